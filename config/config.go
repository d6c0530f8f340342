package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/treeforest/runblock/internal/cat"
	"github.com/treeforest/runblock/internal/consensus"
	"github.com/treeforest/runblock/pkg/utils"
	"gopkg.in/yaml.v3"
)

// NetworkOverrides 各网络对默认配置的覆盖
type NetworkOverrides struct {
	Constants map[string]map[string]interface{} `yaml:"constants"`
}

type Config struct {
	// 网络配置
	SelectedNetwork  string           `yaml:"selected_network"`  // 当前网络
	NetworkOverrides NetworkOverrides `yaml:"network_overrides"` // 各网络的共识常量覆盖

	// 对外服务配置
	HttpServerPort int `yaml:"http_server_port"` // web监听端口

	// 存储配置
	LevelDBPath string `yaml:"leveldb_path"` // 历史生成器数据库路径
	BlockDir    string `yaml:"block_dir"`    // <height>.json 区块文件目录，非空时优先于数据库

	// 执行配置
	CATModHash      string `yaml:"cat_mod_hash"`      // CAT 模板的树哈希
	LookupCacheSize int    `yaml:"lookup_cache_size"` // 生成器花费列表缓存大小，0 表示不缓存
	SkipInvalidMemo bool   `yaml:"skip_invalid_memo"` // memo 非法时跳过该币而不是整体失败
	MempoolMode     bool   `yaml:"mempool_mode"`      // 严格模式执行

	Debug bool `yaml:"debug"` // 输出调试日志
}

func DefaultConfig() *Config {
	return &Config{
		SelectedNetwork:  "mainnet",
		NetworkOverrides: NetworkOverrides{Constants: map[string]map[string]interface{}{}},
		HttpServerPort:   8080,
		LevelDBPath:      ".",
		BlockDir:         "",
		CATModHash:       cat.CATModHashHex,
		LookupCacheSize:  16,
		SkipInvalidMemo:  false,
		MempoolMode:      false,
		Debug:            false,
	}
}

func (c *Config) Unmarshal(b []byte) error {
	return yaml.Unmarshal(b, c)
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Constants 当前网络的共识常量
func (c *Config) Constants() (consensus.ConsensusConstants, error) {
	overrides := c.NetworkOverrides.Constants[c.SelectedNetwork]
	constants, err := consensus.DefaultConstants.Replace(overrides)
	if err != nil {
		return consensus.ConsensusConstants{}, errors.Wrapf(err, "network %s", c.SelectedNetwork)
	}
	return constants, nil
}

// ModHash 解析 CAT 模板哈希，为空时使用默认值
func (c *Config) ModHash() ([32]byte, error) {
	if c.CATModHash == "" {
		return cat.CATModHash, nil
	}
	h, err := utils.HexToByte32(c.CATModHash)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "invalid cat_mod_hash")
	}
	return h, nil
}

// Load 读取配置文件，文件中没有的字段保持默认值
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	conf := DefaultConfig()
	if err = conf.Unmarshal(data); err != nil {
		return nil, errors.WithStack(err)
	}

	return conf, nil
}
