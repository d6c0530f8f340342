package main

import (
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	log "github.com/treeforest/logger"
	"github.com/treeforest/runblock"
	"github.com/treeforest/runblock/dao"
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Store the generators of <height>.json block records",
	Long: `Store the transactions generator of each <height>.json block record in the
generator database so later blocks can reference it by height.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := dao.New(conf.LevelDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range args {
		height, err := heightOf(path)
		if err != nil {
			return err
		}
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return errors.WithStack(err)
		}
		block, err := runblock.DecodeFullBlock(data)
		if err != nil {
			return errors.Wrap(err, path)
		}
		if !block.HasGenerator() {
			log.Warnf("skip %s: block has no generator", path)
			continue
		}
		if err = store.AddGenerator(height, *block.Block.TransactionsGenerator); err != nil {
			return err
		}
		log.Debugf("imported generator at height %d", height)
	}
	return nil
}

// heightOf 从文件名 <height>.json 解析高度
func heightOf(path string) (uint32, error) {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	height, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, errors.Errorf("file name %s is not <height>.json", path)
	}
	return uint32(height), nil
}
