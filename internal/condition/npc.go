package condition

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/treeforest/runblock/internal/consensus"
)

// ConditionGroup 操作码相同的一组条件，组内保持执行顺序
type ConditionGroup struct {
	Opcode     ConditionOpcode
	Conditions []ConditionWithArgs
}

// NPC (Name, Puzzle, Condition) 一个被花费的币及其条件
type NPC struct {
	CoinName   [32]byte
	PuzzleHash [32]byte
	Conditions []ConditionGroup
}

// ExecutionError 执行引擎报告的错误
type ExecutionError struct {
	Code consensus.Err
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("generator execution failed: %s (%d)", e.Code, uint16(e.Code))
}

// Validate 检查组内每个条件的操作码都与组的操作码一致
func (n *NPC) Validate() error {
	for _, group := range n.Conditions {
		for _, cwa := range group.Conditions {
			if cwa.Opcode != group.Opcode {
				return errors.Errorf("condition %s in group %s of coin %x", cwa.Opcode, group.Opcode, n.CoinName)
			}
		}
	}
	return nil
}

// ConditionsFor 返回指定操作码的条件
func (n *NPC) ConditionsFor(op ConditionOpcode) []ConditionWithArgs {
	for _, group := range n.Conditions {
		if group.Opcode == op {
			return group.Conditions
		}
	}
	return nil
}

// Assemble 把引擎输出按币分组为 NPC 列表。引擎报告错误时返回 *ExecutionError，不返回部分结果。
func Assemble(result *Result) ([]NPC, error) {
	if result.Err != consensus.ErrNone {
		return nil, &ExecutionError{Code: result.Err}
	}

	npcs := make([]NPC, 0, len(result.Spends))
	for _, spend := range result.Spends {
		npc := NPC{
			CoinName:   spend.CoinName,
			PuzzleHash: spend.PuzzleHash,
			Conditions: groupConditions(spend.Conditions),
		}
		if err := npc.Validate(); err != nil {
			panic(err)
		}
		npcs = append(npcs, npc)
	}
	return npcs, nil
}

// groupConditions 按操作码首次出现的顺序分组
func groupConditions(raws []RawCondition) []ConditionGroup {
	groups := make([]ConditionGroup, 0)
	index := make(map[ConditionOpcode]int)
	for _, raw := range raws {
		cwa := Normalize(raw)
		i, ok := index[cwa.Opcode]
		if !ok {
			i = len(groups)
			index[cwa.Opcode] = i
			groups = append(groups, ConditionGroup{Opcode: cwa.Opcode})
		}
		groups[i].Conditions = append(groups[i].Conditions, cwa)
	}
	return groups
}
