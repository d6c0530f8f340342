package condition

import "github.com/treeforest/runblock/internal/consensus"

// RawCondition 执行引擎输出的一个条件：操作码原子和参数原子
type RawCondition struct {
	Opcode []byte
	Args   [][]byte
}

// SpendConditions 执行引擎对一个被花费的币的输出
type SpendConditions struct {
	CoinName   [32]byte
	PuzzleHash [32]byte
	Conditions []RawCondition
}

// Result 执行引擎的输出，Err 非 ErrNone 时其余字段无意义
type Result struct {
	Err    consensus.Err
	Spends []SpendConditions
	Cost   uint64
}

// ConditionWithArgs 参数保持原始字节，含义由使用方按操作码解释
type ConditionWithArgs struct {
	Opcode ConditionOpcode
	Vars   [][]byte
}

// Normalize 将引擎输出的条件转换为 ConditionWithArgs，参数原样复制
func Normalize(raw RawCondition) ConditionWithArgs {
	vars := make([][]byte, 0, len(raw.Args))
	for _, arg := range raw.Args {
		v := make([]byte, len(arg))
		copy(v, arg)
		vars = append(vars, v)
	}
	return ConditionWithArgs{Opcode: OpcodeFromBytes(raw.Opcode), Vars: vars}
}
