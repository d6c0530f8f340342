package cat

import (
	"github.com/pkg/errors"
	log "github.com/treeforest/logger"
	"github.com/treeforest/runblock/internal/clvm"
	"github.com/treeforest/runblock/internal/condition"
	"github.com/treeforest/runblock/internal/consensus"
	"github.com/treeforest/runblock/internal/generator"
)

// Executor 执行生成器得到每个币的条件
type Executor interface {
	Execute(gen *generator.BlockGenerator, costLimit, costPerByte uint64, mempoolMode bool) *condition.Result
}

// Lookup 在生成器中查找币的谜题和解
type Lookup interface {
	PuzzleAndSolutionForCoin(gen *generator.BlockGenerator, coinName [32]byte, maxCost uint64) (uint64, *clvm.Program, *clvm.Program, error)
}

// Pipeline 把区块生成器转换为 CAT 列表。各个币依次处理，互不影响。
type Pipeline struct {
	Executor  Executor
	Lookup    Lookup
	Matcher   Matcher
	Memo      MemoFunc
	Constants consensus.ConsensusConstants

	MempoolMode bool
	// SkipInvalidMemo 为 true 时 memo 非法的币被跳过，否则整个运行失败
	SkipInvalidMemo bool
	// Filter 非空时只输出 tail 哈希可能在其中的 CAT
	Filter *TailFilter
}

// NewPipeline 使用同一个引擎执行和查找
func NewPipeline(engine *generator.Engine, constants consensus.ConsensusConstants) *Pipeline {
	return &Pipeline{
		Executor:  engine,
		Lookup:    engine,
		Matcher:   NewCATMatcher(CATModHash),
		Memo:      ExtractMemo,
		Constants: constants,
	}
}

// Run 执行失败返回 *condition.ExecutionError，不输出部分结果
func (p *Pipeline) Run(gen *generator.BlockGenerator) ([]CAT, error) {
	maxCost := p.Constants.MaxBlockCostCLVM
	result := p.Executor.Execute(gen, maxCost, p.Constants.CostPerByte, p.MempoolMode)
	npcs, err := condition.Assemble(result)
	if err != nil {
		return nil, err
	}
	log.Debugf("generator spends %d coins, cost %d", len(npcs), result.Cost)

	memo := p.Memo
	if memo == nil {
		memo = ExtractMemo
	}

	cats := make([]CAT, 0)
	for _, npc := range npcs {
		_, puzzle, solution, err := p.Lookup.PuzzleAndSolutionForCoin(gen, npc.CoinName, maxCost)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve coin %x", npc.CoinName)
		}

		args, ok := p.Matcher.Match(puzzle)
		if !ok {
			continue
		}
		tail := args[1]
		tailBytes, _ := tail.AtomBytes()
		if p.Filter != nil && !p.Filter.Test(tailBytes) {
			log.Debugf("coin %x filtered out", npc.CoinName)
			continue
		}
		tailHash, err := TailHashHex(tail)
		if err != nil {
			return nil, errors.Wrapf(err, "coin %x", npc.CoinName)
		}

		text, err := memo(puzzle, solution, maxCost)
		if err != nil {
			if p.SkipInvalidMemo && errors.Is(err, ErrInvalidMemoEncoding) {
				log.Warnf("skip coin %x: %v", npc.CoinName, err)
				continue
			}
			return nil, errors.Wrapf(err, "extract memo of coin %x", npc.CoinName)
		}

		log.Debugf("cat coin %x tail %s", npc.CoinName, tailHash)
		cats = append(cats, CAT{TailHash: tailHash, Memo: text, NPC: npc})
	}
	return cats, nil
}
