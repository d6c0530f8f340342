package cat

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/treeforest/runblock/internal/clvm"
	"github.com/treeforest/runblock/internal/condition"
)

// CAT 一次 CAT 币的花费
type CAT struct {
	TailHash string        `json:"tail_hash"`
	Memo     string        `json:"memo"`
	NPC      condition.NPC `json:"npc"`
}

// TailHashHex 序列化后的 tail 程序去掉原子长度前缀，再做十六进制编码。
// 32 字节的 tail 序列化为 a0 || hash，结果即 hash 的十六进制。
func TailHashHex(tail *clvm.Program) (string, error) {
	b, ok := tail.AtomBytes()
	if !ok {
		return "", errors.Errorf("tail program is not an atom: %s", tail)
	}
	return hex.EncodeToString(b), nil
}
