package generator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/treeforest/runblock/internal/clvm"
	"github.com/treeforest/runblock/internal/condition"
	"github.com/treeforest/runblock/internal/consensus"
)

const testMaxCost = 11000000000

func parentID(b byte) []byte {
	id := make([]byte, 32)
	id[0] = b
	return id
}

func quote(p *clvm.Program) *clvm.Program {
	return clvm.Cons(clvm.Atom([]byte{0x01}), p)
}

func makeSpend(parent byte, puzzle, solution *clvm.Program, amount int64) *clvm.Program {
	return clvm.List(clvm.Atom(parentID(parent)), puzzle, clvm.Int(amount), solution)
}

// quotedGenerator 直接返回给定花费列表的生成器
func quotedGenerator(spends ...*clvm.Program) *BlockGenerator {
	program := quote(clvm.List(clvm.List(spends...)))
	return &BlockGenerator{Program: program.Serialize()}
}

func createCoin(ph []byte, amount int64, extra ...*clvm.Program) *clvm.Program {
	items := []*clvm.Program{clvm.Atom([]byte{0x33}), clvm.Atom(ph), clvm.Int(amount)}
	return clvm.List(append(items, extra...)...)
}

func newEngine(t *testing.T, cacheSize int) *Engine {
	e, err := NewEngine(consensus.DefaultConstants, cacheSize)
	require.NoError(t, err)
	return e
}

func TestExecuteEmpty(t *testing.T) {
	gen := quotedGenerator()
	result := newEngine(t, 0).Execute(gen, testMaxCost, 12000, false)
	require.Equal(t, consensus.ErrNone, result.Err)
	require.Empty(t, result.Spends)
	require.True(t, result.Cost >= uint64(len(gen.Program))*12000)
}

func TestExecuteConditions(t *testing.T) {
	ph := make([]byte, 32)
	ph[31] = 0x07
	memo := clvm.List(clvm.Atom(make([]byte, 32)), clvm.Atom([]byte("hello")))
	solution := clvm.List(
		createCoin(ph, 100, memo),
		clvm.List(clvm.Atom([]byte{0x32}), clvm.Atom([]byte("pk")), clvm.Atom([]byte("msg"))),
	)
	gen := quotedGenerator(makeSpend(1, clvm.One, solution, 100))

	result := newEngine(t, 10).Execute(gen, testMaxCost, 12000, false)
	require.Equal(t, consensus.ErrNone, result.Err)
	require.Len(t, result.Spends, 1)

	spend := result.Spends[0]
	var parent [32]byte
	copy(parent[:], parentID(1))
	amount, _ := clvm.Int(100).AtomBytes()
	require.Equal(t, clvm.One.TreeHash(), spend.PuzzleHash)
	require.Equal(t, CoinID(parent, spend.PuzzleHash, amount), spend.CoinName)

	require.Len(t, spend.Conditions, 2)
	// 非原子参数（memo 列表）不进入条件参数
	require.Equal(t, [][]byte{ph, {0x64}}, spend.Conditions[0].Args)
	require.Equal(t, []byte{0x32}, spend.Conditions[1].Opcode)
	require.True(t, result.Cost > createCoinCost+aggSigCost)

	npcs, err := condition.Assemble(result)
	require.NoError(t, err)
	require.Len(t, npcs, 1)
	require.Len(t, npcs[0].ConditionsFor(condition.CreateCoin), 1)
}

func TestExecuteFailures(t *testing.T) {
	e := newEngine(t, 0)

	raise := clvm.List(clvm.Atom([]byte{0x08}))
	gen := quotedGenerator(makeSpend(1, raise, clvm.Nil, 1))
	require.Equal(t, consensus.ErrGeneratorRuntimeError, e.Execute(gen, testMaxCost, 12000, false).Err)

	gen = quotedGenerator(makeSpend(1, clvm.One, clvm.List(createCoin(parentID(2), 1)), 1))
	require.Equal(t, consensus.ErrBlockCostExceedsMax, e.Execute(gen, 1000, 0, false).Err)
	require.Equal(t, consensus.ErrBlockCostExceedsMax, e.Execute(gen, testMaxCost, testMaxCost, false).Err)

	bad := &BlockGenerator{Program: []byte{0xff}}
	require.Equal(t, consensus.ErrGeneratorRuntimeError, e.Execute(bad, testMaxCost, 0, false).Err)

	notList := &BlockGenerator{Program: quote(clvm.Int(5)).Serialize()}
	require.Equal(t, consensus.ErrInvalidBlockSolution, e.Execute(notList, testMaxCost, 0, false).Err)

	short := quotedGenerator(clvm.List(clvm.Atom(parentID(1)), clvm.One))
	require.Equal(t, consensus.ErrInvalidCoinSolution, e.Execute(short, testMaxCost, 0, false).Err)

	refs := make([]GeneratorArg, consensus.DefaultConstants.MaxGeneratorRefListSize+1)
	tooMany := &BlockGenerator{Program: quote(clvm.List(clvm.Nil)).Serialize(), GeneratorRefs: refs}
	require.Equal(t, consensus.ErrTooManyGeneratorRefs, e.Execute(tooMany, testMaxCost, 0, false).Err)
}

func TestExecuteUnknownCondition(t *testing.T) {
	e := newEngine(t, 0)
	solution := clvm.List(clvm.List(clvm.Atom([]byte{0x99, 0x01}), clvm.Atom([]byte("x"))))
	gen := quotedGenerator(makeSpend(1, clvm.One, solution, 1))

	result := e.Execute(gen, testMaxCost, 0, false)
	require.Equal(t, consensus.ErrNone, result.Err)
	require.Equal(t, []byte{0x99, 0x01}, result.Spends[0].Conditions[0].Opcode)

	require.Equal(t, consensus.ErrInvalidCondition, e.Execute(gen, testMaxCost, 0, true).Err)
}

func TestGeneratorEnv(t *testing.T) {
	gen := &BlockGenerator{GeneratorRefs: []GeneratorArg{
		{BlockHeight: 10, Program: []byte{0x80}},
		{BlockHeight: 11, Program: []byte{0xff, 0x01, 0x80}},
	}}
	_, mod, err := clvm.Run(clvm.Int(2), gen.env(), 1000, 0)
	require.NoError(t, err)
	require.True(t, deserializeMod.Equal(mod))

	// 路径 5 取引用列表
	_, refs, err := clvm.Run(clvm.Int(5), gen.env(), 1000, 0)
	require.NoError(t, err)
	require.True(t, clvm.List(clvm.Atom([]byte{0x80}), clvm.Atom([]byte{0xff, 0x01, 0x80})).Equal(refs))
}

func TestDeserializeMod(t *testing.T) {
	programs := []*clvm.Program{
		clvm.Nil,
		clvm.Int(5),
		clvm.Atom([]byte{0x00}),
		clvm.Atom([]byte{0x80}),
		clvm.List(clvm.Atom(make([]byte, 32)), clvm.Atom([]byte("hello")), clvm.List(clvm.Nil)),
		clvm.Cons(clvm.Atom(make([]byte, 64)), clvm.Atom(make([]byte, 3000))),
	}
	for _, p := range programs {
		_, got, err := clvm.Run(deserializeMod, clvm.List(clvm.Atom(p.Serialize())), testMaxCost, 0)
		require.NoError(t, err)
		require.True(t, p.Equal(got), "%s != %s", p, got)
	}

	// 3 字节长度前缀不支持
	_, _, err := clvm.Run(deserializeMod, clvm.List(clvm.Atom([]byte{0xe0, 0x00, 0x00, 0x01})), testMaxCost, 0)
	require.Error(t, err)
}

func TestExecuteWithReference(t *testing.T) {
	ph := make([]byte, 32)
	ph[0] = 0x09
	solution := clvm.List(createCoin(ph, 7))
	// 历史区块的生成器 (q . ((spend)))
	previous := quotedGenerator(makeSpend(3, clvm.One, solution, 7))

	// (r (a 2 (c (f 5) ()))) 用反序列化器解析第一个引用，取出被引用的花费列表
	first := clvm.List(clvm.Atom([]byte{0x05}), clvm.Int(5))
	deserialize := clvm.List(clvm.Atom([]byte{0x02}), clvm.Int(2),
		clvm.List(clvm.Atom([]byte{0x04}), first, clvm.Nil))
	program := clvm.List(clvm.Atom([]byte{0x06}), deserialize)

	gen := &BlockGenerator{
		Program:       program.Serialize(),
		GeneratorRefs: []GeneratorArg{{BlockHeight: 100, Program: previous.Program}},
	}
	e := newEngine(t, 4)
	result := e.Execute(gen, testMaxCost, 12000, false)
	require.Equal(t, consensus.ErrNone, result.Err)
	require.Len(t, result.Spends, 1)
	require.Equal(t, []byte{0x33}, result.Spends[0].Conditions[0].Opcode)
	require.Equal(t, [][]byte{ph, {0x07}}, result.Spends[0].Conditions[0].Args)

	spends, err := e.Spends(previous, testMaxCost)
	require.NoError(t, err)
	require.Equal(t, spends[0].CoinName, result.Spends[0].CoinName)

	// 没有引用时解析失败
	gen.GeneratorRefs = nil
	require.Equal(t, consensus.ErrGeneratorRuntimeError, e.Execute(gen, testMaxCost, 12000, false).Err)
}

func TestPuzzleAndSolutionForCoin(t *testing.T) {
	puzzleA := quote(clvm.Nil)
	solutionA := clvm.List(clvm.Int(1))
	solutionB := clvm.List(clvm.Int(2))
	gen := quotedGenerator(
		makeSpend(1, puzzleA, solutionA, 10),
		makeSpend(2, clvm.One, solutionB, 20),
	)

	for _, cacheSize := range []int{0, 4} {
		e := newEngine(t, cacheSize)
		spends, err := e.Spends(gen, testMaxCost)
		require.NoError(t, err)
		require.Len(t, spends, 2)

		cost, puzzle, solution, err := e.PuzzleAndSolutionForCoin(gen, spends[1].CoinName, testMaxCost)
		require.NoError(t, err)
		require.True(t, cost > 0)
		require.True(t, clvm.One.Equal(puzzle))
		require.True(t, solutionB.Equal(solution))

		// 第二次查找（可能命中缓存）结果一致
		cost2, puzzle2, _, err := e.PuzzleAndSolutionForCoin(gen, spends[0].CoinName, testMaxCost)
		require.NoError(t, err)
		require.Equal(t, cost, cost2)
		require.True(t, puzzleA.Equal(puzzle2))

		_, _, _, err = e.PuzzleAndSolutionForCoin(gen, [32]byte{0xee}, testMaxCost)
		require.True(t, errors.Is(err, ErrCoinNotFound))

		_, _, _, err = e.PuzzleAndSolutionForCoin(gen, spends[0].CoinName, 1)
		require.True(t, errors.Is(err, ErrCostExceeded))
	}
}
