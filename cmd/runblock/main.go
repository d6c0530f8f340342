package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/treeforest/runblock"
	"github.com/treeforest/runblock/config"
	"github.com/treeforest/runblock/dao"
	"github.com/treeforest/runblock/internal/cat"
	"github.com/treeforest/runblock/internal/generator"
)

var (
	configPath string
	blockDir   string
	dbPath     string
	tails      []string
)

// rootCmd 执行一个区块 JSON 文件，输出其中的 CAT 花费
var rootCmd = &cobra.Command{
	Use:   "runblock FILE",
	Short: "List the CAT spends of a full block",
	Long: `Run the transactions generator of a full block (JSON) and print the
CAT spends it contains as one JSON array.

Referenced generators are read from <dir>/<height>.json when --dir is set,
otherwise from the leveldb store at --db.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runBlockFile,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&blockDir, "dir", "", "directory of <height>.json block records")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "generator database path")
	rootCmd.Flags().StringSliceVar(&tails, "tail", nil, "only output CATs with these tail hashes (hex)")

	rootCmd.AddCommand(serveCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig 读取配置文件并应用命令行参数
func loadConfig() (*config.Config, error) {
	conf := config.DefaultConfig()
	if configPath != "" {
		var err error
		if conf, err = config.Load(configPath); err != nil {
			return nil, errors.Wrap(err, "load config failed")
		}
	}
	if blockDir != "" {
		conf.BlockDir = blockDir
	}
	if dbPath != "" {
		conf.LevelDBPath = dbPath
	}
	setupLogger(conf.Debug)
	return conf, nil
}

func newPipeline(conf *config.Config) (*cat.Pipeline, error) {
	constants, err := conf.Constants()
	if err != nil {
		return nil, err
	}
	modHash, err := conf.ModHash()
	if err != nil {
		return nil, err
	}
	engine, err := generator.NewEngine(constants, conf.LookupCacheSize)
	if err != nil {
		return nil, err
	}

	p := cat.NewPipeline(engine, constants)
	p.Matcher = cat.NewCATMatcher(modHash)
	p.SkipInvalidMemo = conf.SkipInvalidMemo
	p.MempoolMode = conf.MempoolMode
	return p, nil
}

// openStore 数据库不存在时返回 nil
func openStore(conf *config.Config) (*dao.DAO, error) {
	if dao.IsNotExistDB(conf.LevelDBPath) {
		return nil, nil
	}
	return dao.New(conf.LevelDBPath)
}

// newLoader 优先使用区块文件目录，其次是数据库，都没有时读取当前目录下的 <height>.json
func newLoader(conf *config.Config, store *dao.DAO) generator.Loader {
	if conf.BlockDir != "" {
		return runblock.NewFileLoader(conf.BlockDir)
	}
	if store != nil {
		return store
	}
	return runblock.NewFileLoader(".")
}

func runBlockFile(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPipeline(conf)
	if err != nil {
		return err
	}
	if len(tails) > 0 {
		p.Filter, err = tailFilter(tails)
		if err != nil {
			return err
		}
	}

	store, err := openStore(conf)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	f, err := os.Open(args[0])
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	return runblock.RunJSONBlockFile(p, f, newLoader(conf, store), cmd.OutOrStdout())
}
