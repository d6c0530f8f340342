package consensus

import "fmt"

// Err 共识错误码
type Err uint16

const (
	ErrNone                  Err = 0
	ErrUnknown               Err = 1
	ErrInvalidBlockSolution  Err = 2
	ErrInvalidCoinSolution   Err = 3
	ErrInvalidCondition      Err = 10
	ErrBlockCostExceedsMax   Err = 23
	ErrGeneratorRuntimeError Err = 117
	ErrTooManyGeneratorRefs  Err = 121
)

var errNames = map[Err]string{
	ErrNone:                  "NONE",
	ErrUnknown:               "UNKNOWN",
	ErrInvalidBlockSolution:  "INVALID_BLOCK_SOLUTION",
	ErrInvalidCoinSolution:   "INVALID_COIN_SOLUTION",
	ErrInvalidCondition:      "INVALID_CONDITION",
	ErrBlockCostExceedsMax:   "BLOCK_COST_EXCEEDS_MAX",
	ErrGeneratorRuntimeError: "GENERATOR_RUNTIME_ERROR",
	ErrTooManyGeneratorRefs:  "TOO_MANY_GENERATOR_REFS",
}

func (e Err) String() string {
	if name, ok := errNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Err(%d)", uint16(e))
}
