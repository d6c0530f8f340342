package generator

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	log "github.com/treeforest/logger"
	"github.com/treeforest/runblock/internal/clvm"
	"github.com/treeforest/runblock/internal/condition"
	"github.com/treeforest/runblock/internal/consensus"
	"github.com/treeforest/runblock/pkg/utils"
)

const (
	createCoinCost = 1800000
	aggSigCost     = 1200000
)

// codeError 携带共识错误码的执行错误
type codeError struct {
	code consensus.Err
	err  error
}

func (e *codeError) Error() string {
	return e.code.String() + ": " + e.err.Error()
}

func (e *codeError) Unwrap() error {
	return e.err
}

func fail(code consensus.Err, format string, args ...interface{}) error {
	return &codeError{code: code, err: errors.Errorf(format, args...)}
}

type spendList struct {
	cost   uint64
	spends []Spend
}

// Engine 区块生成器执行引擎。同一生成器的花费列表会被缓存，重复查找时不再执行。
type Engine struct {
	maxRefs uint32
	cache   *lru.Cache[[32]byte, *spendList]
}

// NewEngine cacheSize <= 0 时不缓存
func NewEngine(constants consensus.ConsensusConstants, cacheSize int) (*Engine, error) {
	e := &Engine{maxRefs: constants.MaxGeneratorRefListSize}
	if cacheSize > 0 {
		cache, err := lru.New[[32]byte, *spendList](cacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "create spend cache failed")
		}
		e.cache = cache
	}
	return e, nil
}

// Execute 执行生成器并运行每个花费的谜题，得到每个币的条件。
// 任何失败都以错误码的形式放在结果中。
func (e *Engine) Execute(gen *BlockGenerator, costLimit, costPerByte uint64, mempoolMode bool) *condition.Result {
	if uint32(len(gen.GeneratorRefs)) > e.maxRefs {
		return &condition.Result{Err: consensus.ErrTooManyGeneratorRefs}
	}

	byteCost := uint64(len(gen.Program)) * costPerByte
	if costPerByte != 0 && byteCost/costPerByte != uint64(len(gen.Program)) || byteCost > costLimit {
		return &condition.Result{Err: consensus.ErrBlockCostExceedsMax}
	}

	var flags clvm.Flags
	if mempoolMode {
		flags |= clvm.StrictMode
	}

	cost, spends, err := e.spends(gen, costLimit-byteCost, flags)
	if err != nil {
		log.Debugf("run generator failed: %v", err)
		return &condition.Result{Err: errorCode(err)}
	}
	total := byteCost + cost

	result := &condition.Result{Spends: make([]condition.SpendConditions, 0, len(spends))}
	for _, spend := range spends {
		runCost, out, err := clvm.Run(spend.Puzzle, spend.Solution, costLimit-total, flags)
		if err != nil {
			log.Debugf("run puzzle of coin %x failed: %v", spend.CoinName, err)
			return &condition.Result{Err: errorCode(err)}
		}
		total += runCost

		conditions, condCost, err := parseConditions(out, mempoolMode)
		if err != nil {
			log.Debugf("parse conditions of coin %x failed: %v", spend.CoinName, err)
			return &condition.Result{Err: errorCode(err)}
		}
		if condCost > costLimit-total {
			return &condition.Result{Err: consensus.ErrBlockCostExceedsMax}
		}
		total += condCost

		result.Spends = append(result.Spends, condition.SpendConditions{
			CoinName:   spend.CoinName,
			PuzzleHash: spend.PuzzleHash,
			Conditions: conditions,
		})
	}
	result.Cost = total
	return result
}

// PuzzleAndSolutionForCoin 重新执行生成器，找到花费 coinName 的谜题和解。
// 返回生成器执行的 cost。
func (e *Engine) PuzzleAndSolutionForCoin(gen *BlockGenerator, coinName [32]byte, maxCost uint64) (uint64, *clvm.Program, *clvm.Program, error) {
	cost, spends, err := e.spends(gen, maxCost, 0)
	if err != nil {
		if errors.Is(err, clvm.ErrCostExceeded) {
			return cost, nil, nil, errors.Wrapf(ErrCostExceeded, "lookup coin %x", coinName)
		}
		return cost, nil, nil, errors.Wrapf(err, "lookup coin %x", coinName)
	}
	for _, spend := range spends {
		if spend.CoinName == coinName {
			return cost, spend.Puzzle, spend.Solution, nil
		}
	}
	return cost, nil, nil, errors.Wrapf(ErrCoinNotFound, "%x", coinName)
}

// Spends 执行生成器，返回其输出的花费列表
func (e *Engine) Spends(gen *BlockGenerator, maxCost uint64) ([]Spend, error) {
	_, spends, err := e.spends(gen, maxCost, 0)
	return spends, err
}

func (e *Engine) spends(gen *BlockGenerator, maxCost uint64, flags clvm.Flags) (uint64, []Spend, error) {
	var key [32]byte
	if e.cache != nil {
		key = gen.key(flags)
		if hit, ok := e.cache.Get(key); ok {
			if hit.cost > maxCost {
				return hit.cost, nil, clvm.ErrCostExceeded
			}
			return hit.cost, hit.spends, nil
		}
	}

	cost, spends, err := runGenerator(gen, maxCost, flags)
	if err != nil {
		return cost, nil, err
	}
	if e.cache != nil {
		e.cache.Add(key, &spendList{cost: cost, spends: spends})
	}
	return cost, spends, nil
}

func runGenerator(gen *BlockGenerator, maxCost uint64, flags clvm.Flags) (uint64, []Spend, error) {
	program, err := clvm.Deserialize(gen.Program)
	if err != nil {
		return 0, nil, &codeError{code: consensus.ErrGeneratorRuntimeError, err: err}
	}

	cost, out, err := clvm.Run(program, gen.env(), maxCost, flags)
	if err != nil {
		return cost, nil, err
	}

	// 输出为 ((spend ...))，spend 为 (parent puzzle amount solution . _)
	first, ok := out.First()
	if !ok {
		return cost, nil, fail(consensus.ErrInvalidBlockSolution, "generator output is not a list: %s", out)
	}
	items, ok := first.AsSlice()
	if !ok {
		return cost, nil, fail(consensus.ErrInvalidBlockSolution, "spend list is not a proper list")
	}

	spends := make([]Spend, 0, len(items))
	for i, item := range items {
		spend, err := parseSpend(item)
		if err != nil {
			return cost, nil, fail(consensus.ErrInvalidCoinSolution, "spend %d: %v", i, err)
		}
		spends = append(spends, spend)
	}
	return cost, spends, nil
}

func parseSpend(item *clvm.Program) (Spend, error) {
	fields := make([]*clvm.Program, 0, 4)
	cur := item
	for len(fields) < 4 && cur.IsPair() {
		first, _ := cur.First()
		cur, _ = cur.Rest()
		fields = append(fields, first)
	}
	if len(fields) < 4 {
		return Spend{}, errors.New("spend needs 4 fields")
	}

	parentBytes, ok := fields[0].AtomBytes()
	if !ok {
		return Spend{}, errors.New("parent coin id is not an atom")
	}
	parent, err := utils.BytesToByte32(parentBytes)
	if err != nil {
		return Spend{}, errors.Wrap(err, "invalid parent coin id")
	}
	amountBytes, ok := fields[2].AtomBytes()
	if !ok {
		return Spend{}, errors.New("amount is not an atom")
	}
	amount, ok := fields[2].AsUint64()
	if !ok {
		return Spend{}, errors.New("invalid amount")
	}

	puzzle := fields[1]
	puzzleHash := puzzle.TreeHash()
	return Spend{
		CoinName:     CoinID(parent, puzzleHash, amountBytes),
		ParentCoinID: parent,
		PuzzleHash:   puzzleHash,
		Amount:       amount,
		Puzzle:       puzzle,
		Solution:     fields[3],
	}, nil
}

// parseConditions 解析谜题输出的条件列表。参数只收集原子，遇到第一个非原子参数即停止。
func parseConditions(out *clvm.Program, mempoolMode bool) ([]condition.RawCondition, uint64, error) {
	items, ok := out.AsSlice()
	if !ok {
		return nil, 0, fail(consensus.ErrInvalidCondition, "conditions are not a list")
	}

	var cost uint64
	conditions := make([]condition.RawCondition, 0, len(items))
	for _, item := range items {
		opProgram, ok := item.First()
		if !ok {
			return nil, 0, fail(consensus.ErrInvalidCondition, "condition is not a list: %s", item)
		}
		opcode, ok := opProgram.AtomBytes()
		if !ok {
			return nil, 0, fail(consensus.ErrInvalidCondition, "condition opcode is not an atom: %s", item)
		}

		args := make([][]byte, 0)
		cur, _ := item.Rest()
		for cur.IsPair() {
			first, _ := cur.First()
			arg, ok := first.AtomBytes()
			if !ok {
				break
			}
			args = append(args, arg)
			cur, _ = cur.Rest()
		}

		op := condition.OpcodeFromBytes(opcode)
		switch op {
		case condition.CreateCoin:
			if len(args) < 2 {
				return nil, 0, fail(consensus.ErrInvalidCondition, "CREATE_COIN needs 2 arguments")
			}
			cost += createCoinCost
		case condition.AggSigMe, condition.AggSigUnsafe:
			cost += aggSigCost
		default:
			if !op.Known() && mempoolMode {
				return nil, 0, fail(consensus.ErrInvalidCondition, "unknown condition opcode %x", opcode)
			}
		}
		conditions = append(conditions, condition.RawCondition{Opcode: opcode, Args: args})
	}
	return conditions, cost, nil
}

func errorCode(err error) consensus.Err {
	var ce *codeError
	if errors.As(err, &ce) {
		return ce.code
	}
	if errors.Is(err, clvm.ErrCostExceeded) {
		return consensus.ErrBlockCostExceedsMax
	}
	return consensus.ErrGeneratorRuntimeError
}
