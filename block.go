package runblock

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// HexBytes JSON 中以十六进制字符串表示的字节，允许 0x 前缀
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "hex bytes must be a string")
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return errors.Wrap(err, "invalid hex")
	}
	*h = b
	return nil
}

// BlockRecord 区块中与交易生成器有关的字段，其他字段被忽略
type BlockRecord struct {
	TransactionsGenerator        *HexBytes `json:"transactions_generator"`
	TransactionsGeneratorRefList []uint32  `json:"transactions_generator_ref_list"`
}

// FullBlock 区块的 JSON 记录
type FullBlock struct {
	Block BlockRecord `json:"block"`
}

// HasGenerator 区块是否带有交易生成器
func (b *FullBlock) HasGenerator() bool {
	return b.Block.TransactionsGenerator != nil
}

// DecodeFullBlock 解析区块的 JSON 记录
func DecodeFullBlock(data []byte) (*FullBlock, error) {
	block := new(FullBlock)
	if err := json.Unmarshal(data, block); err != nil {
		return nil, errors.Wrap(err, "decode full block failed")
	}
	return block, nil
}
