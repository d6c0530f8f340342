package graceful

import (
	"os"
	"os/signal"
	"syscall"
)

// Stop 阻塞直到收到 SIGINT 或 SIGTERM，然后执行 fn
func Stop(fn func()) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done
	signal.Stop(done)
	fn()
}
