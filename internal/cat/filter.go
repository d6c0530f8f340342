package cat

import (
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/pkg/errors"
	"github.com/treeforest/runblock/pkg/gob"
)

// TailFilter tail 哈希的 Bloom 过滤器，客户端可以只关心部分 CAT
type TailFilter struct {
	filter *bloom.BloomFilter
}

// NewTailFilter n 为预计元素个数，fp 为误判率
func NewTailFilter(n uint, fp float64) *TailFilter {
	return &TailFilter{filter: bloom.NewWithEstimates(n, fp)}
}

func (f *TailFilter) Add(tailHash []byte) {
	f.filter.Add(tailHash)
}

func (f *TailFilter) Test(tailHash []byte) bool {
	return f.filter.Test(tailHash)
}

func (f *TailFilter) GobEncode() ([]byte, error) {
	return f.filter.GobEncode()
}

func (f *TailFilter) GobDecode(data []byte) error {
	filter := bloom.New(1, 1)
	if err := filter.GobDecode(data); err != nil {
		return errors.Wrap(err, "bloom filter decode failed")
	}
	f.filter = filter
	return nil
}

// Encode 编码为可以在网络中传输的字节
func (f *TailFilter) Encode() ([]byte, error) {
	return gob.Encode(f)
}

// DecodeTailFilter 是 Encode 的逆过程
func DecodeTailFilter(data []byte) (*TailFilter, error) {
	f := &TailFilter{}
	if err := gob.Decode(data, f); err != nil {
		return nil, err
	}
	return f, nil
}
