package dao

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	log "github.com/treeforest/logger"
	"github.com/treeforest/runblock/internal/generator"
	"github.com/treeforest/runblock/pkg/gob"
)

const (
	dbName             = "GENERATORS" // 数据库名
	latestHeightKey    = "__latest_generator_height__"
	generatorKeyPrefix = "__generator_height__"
)

func IsNotExistDB(path string) bool {
	_, err := os.Stat(filepath.Join(path, dbName))
	return os.IsNotExist(err)
}

// record 持久化的生成器记录
type record struct {
	Height  uint32
	Program []byte
}

// DAO 历史区块生成器程序的存储对象
type DAO struct {
	*leveldb.DB
	latestHeight uint32
	hasLatest    bool
}

// New 打开（不存在则创建）数据库
func New(dbPath string) (*DAO, error) {
	log.Debug("db path:", filepath.Join(dbPath, dbName))
	levelDB, err := leveldb.OpenFile(filepath.Join(dbPath, dbName), &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb [%s]", dbName)
	}
	d := &DAO{DB: levelDB}
	if err = d.loadLatestHeight(); err != nil {
		_ = levelDB.Close()
		return nil, err
	}
	return d, nil
}

func (o *DAO) loadLatestHeight() error {
	ro := &opt.ReadOptions{DontFillCache: false}
	value, err := o.DB.Get([]byte(latestHeightKey), ro)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "load latest generator height failed")
	}
	h, err := strconv.ParseUint(string(value), 10, 32)
	if err != nil {
		return errors.Wrap(err, "invalid latest generator height")
	}
	o.latestHeight, o.hasLatest = uint32(h), true
	return nil
}

func (o *DAO) Close() error {
	return o.DB.Close()
}

// LatestHeight 已保存的最高区块高度
func (o *DAO) LatestHeight() (uint32, bool) {
	return o.latestHeight, o.hasLatest
}

func (o *DAO) keyHeight(height uint32) []byte {
	key := generatorKeyPrefix + strconv.FormatUint(uint64(height), 16)
	return []byte(key)
}

func (o *DAO) Has(height uint32) (bool, error) {
	return o.DB.Has(o.keyHeight(height), nil)
}

// GetGenerator 返回高度对应的序列化生成器程序，不存在时返回的错误包装 generator.ErrAuxiliaryLookup
func (o *DAO) GetGenerator(height uint32) ([]byte, error) {
	data, err := o.DB.Get(o.keyHeight(height), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, errors.Wrapf(generator.ErrAuxiliaryLookup, "height %d", height)
		}
		return nil, errors.Wrapf(err, "get generator at height %d", height)
	}
	var r record
	if err = gob.Decode(data, &r); err != nil {
		return nil, errors.Wrapf(err, "decode generator at height %d", height)
	}
	return r.Program, nil
}

// AddGenerator 保存高度对应的生成器程序，已存在时覆盖
func (o *DAO) AddGenerator(height uint32, program []byte) error {
	data, err := gob.Encode(record{Height: height, Program: program})
	if err != nil {
		return err
	}
	newLatest := !o.hasLatest || height > o.latestHeight
	err = o.DoTransaction(func(trans *leveldb.Transaction) error {
		wo := &opt.WriteOptions{Sync: true}

		err := trans.Put(o.keyHeight(height), data, wo)
		if err != nil {
			return errors.Wrap(err, "insert generator failed")
		}

		if newLatest {
			err = trans.Put([]byte(latestHeightKey), []byte(strconv.FormatUint(uint64(height), 10)), wo)
			if err != nil {
				return errors.Wrap(err, "update latest generator height failed")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 提交成功后才更新内存中的最高高度
	if newLatest {
		o.latestHeight, o.hasLatest = height, true
	}
	return nil
}

// Load 按顺序加载引用的生成器程序，实现 generator.Loader
func (o *DAO) Load(heights []uint32) ([]generator.GeneratorArg, error) {
	args := make([]generator.GeneratorArg, 0, len(heights))
	for _, height := range heights {
		program, err := o.GetGenerator(height)
		if err != nil {
			return nil, err
		}
		args = append(args, generator.GeneratorArg{BlockHeight: height, Program: program})
	}
	return args, nil
}

// DoTransaction 事务操作
func (o *DAO) DoTransaction(fn func(trans *leveldb.Transaction) error) error {
	trans, err := o.DB.OpenTransaction()
	if err != nil {
		return errors.Wrap(err, "open transaction failed")
	}
	defer func() {
		if err != nil {
			// 事务提交失败，销毁事务
			trans.Discard()
		}
	}()

	if err = fn(trans); err != nil {
		return err
	}

	err = trans.Commit()
	if err != nil {
		return errors.Wrap(err, "commit failed")
	}

	return nil
}
