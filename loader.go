package runblock

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/treeforest/logger"
	"github.com/treeforest/runblock/internal/generator"
)

// FileLoader 从目录 Dir 中读取 <height>.json 区块记录
type FileLoader struct {
	Dir string
}

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

func (l *FileLoader) path(height uint32) string {
	return filepath.Join(l.Dir, strconv.FormatUint(uint64(height), 10)+".json")
}

// Load 按顺序读取每个高度的生成器程序。文件不存在或区块没有生成器时返回的错误包装 generator.ErrAuxiliaryLookup。
func (l *FileLoader) Load(heights []uint32) ([]generator.GeneratorArg, error) {
	args := make([]generator.GeneratorArg, 0, len(heights))
	for _, height := range heights {
		path := l.path(height)
		log.Debugf("load generator at height %d from %s", height, path)

		data, err := ioutil.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrapf(generator.ErrAuxiliaryLookup, "height %d: %s not found", height, path)
			}
			return nil, errors.WithStack(err)
		}
		block, err := DecodeFullBlock(data)
		if err != nil {
			return nil, errors.Wrapf(err, "height %d", height)
		}
		if !block.HasGenerator() {
			return nil, errors.Wrapf(generator.ErrAuxiliaryLookup, "height %d: block has no generator", height)
		}
		args = append(args, generator.GeneratorArg{
			BlockHeight: height,
			Program:     []byte(*block.Block.TransactionsGenerator),
		})
	}
	return args, nil
}
