package condition

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/treeforest/runblock/pkg/utils"
)

type conditionWithArgsJSON struct {
	ConditionOpcode ConditionOpcode `json:"condition_opcode"`
	Arguments       []string        `json:"arguments"`
}

func (c ConditionWithArgs) MarshalJSON() ([]byte, error) {
	args := make([]string, 0, len(c.Vars))
	for _, v := range c.Vars {
		args = append(args, hex.EncodeToString(v))
	}
	return json.Marshal(conditionWithArgsJSON{ConditionOpcode: c.Opcode, Arguments: args})
}

func (c *ConditionWithArgs) UnmarshalJSON(data []byte) error {
	var v conditionWithArgsJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	vars := make([][]byte, 0, len(v.Arguments))
	for _, arg := range v.Arguments {
		b, err := hex.DecodeString(arg)
		if err != nil {
			return errors.Wrapf(err, "decode argument %q failed", arg)
		}
		vars = append(vars, b)
	}
	c.Opcode = v.ConditionOpcode
	c.Vars = vars
	return nil
}

type conditionGroupJSON struct {
	ConditionType ConditionOpcode     `json:"condition_type"`
	Conditions    []ConditionWithArgs `json:"conditions"`
}

func (g ConditionGroup) MarshalJSON() ([]byte, error) {
	for _, cwa := range g.Conditions {
		if cwa.Opcode != g.Opcode {
			return nil, errors.Errorf("condition %s in group %s", cwa.Opcode, g.Opcode)
		}
	}
	conditions := g.Conditions
	if conditions == nil {
		conditions = []ConditionWithArgs{}
	}
	return json.Marshal(conditionGroupJSON{ConditionType: g.Opcode, Conditions: conditions})
}

func (g *ConditionGroup) UnmarshalJSON(data []byte) error {
	var v conditionGroupJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	for _, cwa := range v.Conditions {
		if cwa.Opcode != v.ConditionType {
			return errors.Errorf("condition %s in group %s", cwa.Opcode, v.ConditionType)
		}
	}
	g.Opcode = v.ConditionType
	g.Conditions = v.Conditions
	return nil
}

type npcJSON struct {
	CoinName   string           `json:"coin_name"`
	Conditions []ConditionGroup `json:"conditions"`
	PuzzleHash string           `json:"puzzle_hash"`
}

func (n NPC) MarshalJSON() ([]byte, error) {
	conditions := n.Conditions
	if conditions == nil {
		conditions = []ConditionGroup{}
	}
	return json.Marshal(npcJSON{
		CoinName:   hex.EncodeToString(n.CoinName[:]),
		Conditions: conditions,
		PuzzleHash: hex.EncodeToString(n.PuzzleHash[:]),
	})
}

func (n *NPC) UnmarshalJSON(data []byte) error {
	var v npcJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	coinName, err := utils.HexToByte32(v.CoinName)
	if err != nil {
		return errors.Wrap(err, "invalid coin_name")
	}
	puzzleHash, err := utils.HexToByte32(v.PuzzleHash)
	if err != nil {
		return errors.Wrap(err, "invalid puzzle_hash")
	}
	n.CoinName = coinName
	n.PuzzleHash = puzzleHash
	n.Conditions = v.Conditions
	return nil
}
