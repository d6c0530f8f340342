package consensus

import (
	"strconv"

	"github.com/pkg/errors"
	log "github.com/treeforest/logger"
)

// ConsensusConstants 共识常量。值类型，构造后不再修改，按参数传递。
type ConsensusConstants struct {
	MaxBlockCostCLVM        uint64 // 区块的最大 CLVM cost
	CostPerByte             uint64 // 生成器程序每字节的 cost
	MaxGeneratorRefListSize uint32 // 生成器最多可引用的历史区块数
}

var DefaultConstants = ConsensusConstants{
	MaxBlockCostCLVM:        11000000000,
	CostPerByte:             12000,
	MaxGeneratorRefListSize: 512,
}

// Replace 返回替换了指定字段后的副本。未识别的键被忽略。
func (c ConsensusConstants) Replace(overrides map[string]interface{}) (ConsensusConstants, error) {
	out := c
	for key, value := range overrides {
		switch key {
		case "MAX_BLOCK_COST_CLVM":
			v, err := toUint64(value)
			if err != nil {
				return c, errors.Errorf("override %s failed: %v", key, err)
			}
			out.MaxBlockCostCLVM = v
		case "COST_PER_BYTE":
			v, err := toUint64(value)
			if err != nil {
				return c, errors.Errorf("override %s failed: %v", key, err)
			}
			out.CostPerByte = v
		case "MAX_GENERATOR_REF_LIST_SIZE":
			v, err := toUint64(value)
			if err != nil {
				return c, errors.Errorf("override %s failed: %v", key, err)
			}
			if v > 0xFFFFFFFF {
				return c, errors.Errorf("override %s failed: %d overflows uint32", key, v)
			}
			out.MaxGeneratorRefListSize = uint32(v)
		default:
			log.Debugf("ignore constant override %s", key)
		}
	}
	return out, nil
}

func toUint64(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0, errors.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, errors.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case float64:
		if v < 0 || v != float64(uint64(v)) {
			return 0, errors.Errorf("invalid value %v", v)
		}
		return uint64(v), nil
	case string:
		return strconv.ParseUint(v, 10, 64)
	default:
		return 0, errors.Errorf("unsupported type %T", value)
	}
}
