package runblock

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"github.com/treeforest/runblock/internal/cat"
	"github.com/treeforest/runblock/internal/generator"
)

// ErrMissingGenerator 区块没有交易生成器
var ErrMissingGenerator = errors.New("block has no transactions generator")

// RunGenerator 执行生成器，返回其中的 CAT 花费
func RunGenerator(p *cat.Pipeline, gen *generator.BlockGenerator) ([]cat.CAT, error) {
	return p.Run(gen)
}

// RunFullBlock 先加载引用的历史生成器，再执行区块的生成器。区块没有生成器时返回 ErrMissingGenerator。
func RunFullBlock(p *cat.Pipeline, block *FullBlock, loader generator.Loader) ([]cat.CAT, error) {
	refs, err := loadRefs(loader, block.Block.TransactionsGeneratorRefList)
	if err != nil {
		return nil, err
	}
	if !block.HasGenerator() {
		return nil, ErrMissingGenerator
	}
	return RunGenerator(p, &generator.BlockGenerator{
		Program:       []byte(*block.Block.TransactionsGenerator),
		GeneratorRefs: refs,
	})
}

// RunGeneratorWithArgs 执行十六进制编码的生成器。空生成器视为没有交易，返回空列表。
func RunGeneratorWithArgs(p *cat.Pipeline, generatorHex string, args []generator.GeneratorArg) ([]cat.CAT, error) {
	generatorHex = strings.TrimPrefix(generatorHex, "0x")
	if generatorHex == "" {
		return []cat.CAT{}, nil
	}
	program, err := hex.DecodeString(generatorHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid generator hex")
	}
	return RunGenerator(p, &generator.BlockGenerator{Program: program, GeneratorRefs: args})
}

// RunJSONBlockFile 从 r 读取区块 JSON，结果以一个 JSON 数组写入 w。失败时不写入任何内容。
func RunJSONBlockFile(p *cat.Pipeline, r io.Reader, loader generator.Loader, w io.Writer) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.WithStack(err)
	}
	block, err := DecodeFullBlock(data)
	if err != nil {
		return err
	}

	cats, err := RunFullBlock(p, block, loader)
	if err != nil {
		return err
	}

	out, err := json.Marshal(cats)
	if err != nil {
		return errors.Wrap(err, "encode cat list failed")
	}
	_, err = w.Write(append(out, '\n'))
	return errors.WithStack(err)
}

func loadRefs(loader generator.Loader, heights []uint32) ([]generator.GeneratorArg, error) {
	if len(heights) == 0 {
		return nil, nil
	}
	if loader == nil {
		return nil, errors.Wrap(generator.ErrAuxiliaryLookup, "no generator loader")
	}
	refs, err := loader.Load(heights)
	if err != nil {
		return nil, err
	}
	if len(refs) != len(heights) {
		return nil, errors.Wrapf(generator.ErrAuxiliaryLookup, "want %d generators, got %d", len(heights), len(refs))
	}
	return refs, nil
}
