package generator

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/treeforest/runblock/internal/clvm"
)

var (
	// ErrAuxiliaryLookup 引用的历史区块高度没有对应的生成器程序
	ErrAuxiliaryLookup = errors.New("auxiliary generator lookup failed")
	// ErrCoinNotFound 生成器的输出中没有指定的币
	ErrCoinNotFound = errors.New("coin not found in generator")
	// ErrCostExceeded 执行超出 cost 预算
	ErrCostExceeded = clvm.ErrCostExceeded
)

// GeneratorArg 按高度引用的历史区块生成器程序
type GeneratorArg struct {
	BlockHeight uint32
	Program     []byte // 序列化的程序
}

// BlockGenerator 区块的交易生成器及其引用的历史程序
type BlockGenerator struct {
	Program       []byte
	GeneratorRefs []GeneratorArg
}

// Loader 按高度加载历史区块的生成器程序，必须在执行之前全部加载完成。
// 找不到某个高度时返回的错误应包装 ErrAuxiliaryLookup。
type Loader interface {
	Load(heights []uint32) ([]GeneratorArg, error)
}

// Spend 生成器输出中的一次花费
type Spend struct {
	CoinName     [32]byte
	ParentCoinID [32]byte
	PuzzleHash   [32]byte
	Amount       uint64
	Puzzle       *clvm.Program
	Solution     *clvm.Program
}

// key 生成器及其引用的摘要，用于缓存
func (g *BlockGenerator) key(flags clvm.Flags) [32]byte {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(flags))
	h.Write(buf[:4])
	binary.BigEndian.PutUint64(buf[:], uint64(len(g.Program)))
	h.Write(buf[:])
	h.Write(g.Program)
	for _, ref := range g.GeneratorRefs {
		binary.BigEndian.PutUint32(buf[:4], ref.BlockHeight)
		h.Write(buf[:4])
		binary.BigEndian.PutUint64(buf[:], uint64(len(ref.Program)))
		h.Write(buf[:])
		h.Write(ref.Program)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// env 生成器的执行环境：(deserializer (ref_1 ... ref_n))，ref 以序列化字节的原子传入
func (g *BlockGenerator) env() *clvm.Program {
	refs := make([]*clvm.Program, 0, len(g.GeneratorRefs))
	for _, ref := range g.GeneratorRefs {
		refs = append(refs, clvm.Atom(ref.Program))
	}
	return clvm.List(deserializeMod, clvm.List(refs...))
}

// CoinID sha256(parent || puzzle_hash || amount)，amount 为最短补码编码
func CoinID(parent, puzzleHash [32]byte, amount []byte) [32]byte {
	buf := make([]byte, 0, 64+len(amount))
	buf = append(buf, parent[:]...)
	buf = append(buf, puzzleHash[:]...)
	buf = append(buf, amount...)
	return sha256.Sum256(buf)
}
