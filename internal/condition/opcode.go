package condition

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ConditionOpcode 条件操作码，保存原始字节，未知操作码也能无损保留
type ConditionOpcode string

const (
	AggSigUnsafe             ConditionOpcode = "\x31"
	AggSigMe                 ConditionOpcode = "\x32"
	CreateCoin               ConditionOpcode = "\x33"
	ReserveFee               ConditionOpcode = "\x34"
	CreateCoinAnnouncement   ConditionOpcode = "\x3c"
	AssertCoinAnnouncement   ConditionOpcode = "\x3d"
	CreatePuzzleAnnouncement ConditionOpcode = "\x3e"
	AssertPuzzleAnnouncement ConditionOpcode = "\x3f"
	AssertMyCoinID           ConditionOpcode = "\x46"
	AssertMyParentID         ConditionOpcode = "\x47"
	AssertMyPuzzlehash       ConditionOpcode = "\x48"
	AssertMyAmount           ConditionOpcode = "\x49"
	AssertSecondsRelative    ConditionOpcode = "\x50"
	AssertSecondsAbsolute    ConditionOpcode = "\x51"
	AssertHeightRelative     ConditionOpcode = "\x52"
	AssertHeightAbsolute     ConditionOpcode = "\x53"
)

const unknownPrefix = "UNKNOWN_"

var opcodeNames = map[ConditionOpcode]string{
	AggSigUnsafe:             "AGG_SIG_UNSAFE",
	AggSigMe:                 "AGG_SIG_ME",
	CreateCoin:               "CREATE_COIN",
	ReserveFee:               "RESERVE_FEE",
	CreateCoinAnnouncement:   "CREATE_COIN_ANNOUNCEMENT",
	AssertCoinAnnouncement:   "ASSERT_COIN_ANNOUNCEMENT",
	CreatePuzzleAnnouncement: "CREATE_PUZZLE_ANNOUNCEMENT",
	AssertPuzzleAnnouncement: "ASSERT_PUZZLE_ANNOUNCEMENT",
	AssertMyCoinID:           "ASSERT_MY_COIN_ID",
	AssertMyParentID:         "ASSERT_MY_PARENT_ID",
	AssertMyPuzzlehash:       "ASSERT_MY_PUZZLEHASH",
	AssertMyAmount:           "ASSERT_MY_AMOUNT",
	AssertSecondsRelative:    "ASSERT_SECONDS_RELATIVE",
	AssertSecondsAbsolute:    "ASSERT_SECONDS_ABSOLUTE",
	AssertHeightRelative:     "ASSERT_HEIGHT_RELATIVE",
	AssertHeightAbsolute:     "ASSERT_HEIGHT_ABSOLUTE",
}

var opcodesByName = func() map[string]ConditionOpcode {
	m := make(map[string]ConditionOpcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

func OpcodeFromBytes(b []byte) ConditionOpcode {
	return ConditionOpcode(b)
}

func (op ConditionOpcode) Bytes() []byte {
	return []byte(op)
}

// Known 是否在共识操作码表中
func (op ConditionOpcode) Known() bool {
	_, ok := opcodeNames[op]
	return ok
}

// Name 返回外部 JSON 中使用的名称，未知操作码为 UNKNOWN_<hex>
func (op ConditionOpcode) Name() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return unknownPrefix + hex.EncodeToString([]byte(op))
}

func (op ConditionOpcode) String() string {
	return op.Name()
}

// ParseConditionOpcode 是 Name 的逆过程
func ParseConditionOpcode(name string) (ConditionOpcode, error) {
	if op, ok := opcodesByName[name]; ok {
		return op, nil
	}
	if strings.HasPrefix(name, unknownPrefix) {
		b, err := hex.DecodeString(strings.TrimPrefix(name, unknownPrefix))
		if err == nil {
			return ConditionOpcode(b), nil
		}
	}
	return "", errors.Errorf("unknown condition opcode name %q", name)
}

func (op ConditionOpcode) MarshalJSON() ([]byte, error) {
	return json.Marshal(op.Name())
}

func (op *ConditionOpcode) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := ParseConditionOpcode(name)
	if err != nil {
		return err
	}
	*op = v
	return nil
}
