package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"

	log "github.com/treeforest/logger"
)

// writerLogger 把日志写到 w，标准输出只留给结果
type writerLogger struct {
	l   *stdlog.Logger
	lvl log.Level
}

func newWriterLogger(w io.Writer, lvl log.Level) *writerLogger {
	return &writerLogger{l: stdlog.New(w, "", stdlog.LstdFlags|stdlog.Lshortfile), lvl: lvl}
}

func (l *writerLogger) output(lvl log.Level, tag, msg string) {
	if l.lvl > lvl {
		return
	}
	_ = l.l.Output(4, fmt.Sprintf("[%s] %s", tag, msg))
}

func (l *writerLogger) Debug(v ...interface{}) { l.output(log.DEBUG, "DEBU", fmt.Sprint(v...)) }
func (l *writerLogger) Debugf(format string, v ...interface{}) {
	l.output(log.DEBUG, "DEBU", fmt.Sprintf(format, v...))
}
func (l *writerLogger) Info(v ...interface{}) { l.output(log.INFO, "INFO", fmt.Sprint(v...)) }
func (l *writerLogger) Infof(format string, v ...interface{}) {
	l.output(log.INFO, "INFO", fmt.Sprintf(format, v...))
}
func (l *writerLogger) Warn(v ...interface{}) { l.output(log.WARN, "WARN", fmt.Sprint(v...)) }
func (l *writerLogger) Warnf(format string, v ...interface{}) {
	l.output(log.WARN, "WARN", fmt.Sprintf(format, v...))
}
func (l *writerLogger) Error(v ...interface{}) { l.output(log.ERROR, "ERRO", fmt.Sprint(v...)) }
func (l *writerLogger) Errorf(format string, v ...interface{}) {
	l.output(log.ERROR, "ERRO", fmt.Sprintf(format, v...))
}
func (l *writerLogger) Fatal(v ...interface{}) {
	l.output(log.FATAL, "FATA", fmt.Sprint(v...))
	os.Exit(1)
}
func (l *writerLogger) Fatalf(format string, v ...interface{}) {
	l.output(log.FATAL, "FATA", fmt.Sprintf(format, v...))
	os.Exit(1)
}

func (l *writerLogger) SetLevel(lvl log.Level) {
	l.lvl = lvl
}

// setupLogger 日志写到标准错误，默认只输出警告及以上
func setupLogger(debug bool) {
	lvl := log.WARN
	if debug {
		lvl = log.DEBUG
	}
	log.SetLogger(newWriterLogger(os.Stderr, lvl))
}
