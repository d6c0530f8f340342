package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/treeforest/runblock/internal/cat"
	"github.com/treeforest/runblock/internal/consensus"
)

const testConfig = `
selected_network: testnet10
network_overrides:
  constants:
    mainnet:
      COST_PER_BYTE: 1
    testnet10:
      MAX_BLOCK_COST_CLVM: 5000000
      MAX_GENERATOR_REF_LIST_SIZE: 8
      GENESIS_CHALLENGE: "ae83525ba8d1dd3f09b277de18ca3e43fc0af20d20c4b3e92ef2a48bd291ccb2"
block_dir: /tmp/blocks
skip_invalid_memo: true
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	conf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "testnet10", conf.SelectedNetwork)
	require.Equal(t, "/tmp/blocks", conf.BlockDir)
	require.True(t, conf.SkipInvalidMemo)
	// 未出现的字段保持默认值
	require.Equal(t, 8080, conf.HttpServerPort)
	require.Equal(t, 16, conf.LookupCacheSize)

	constants, err := conf.Constants()
	require.NoError(t, err)
	require.Equal(t, consensus.ConsensusConstants{
		MaxBlockCostCLVM:        5000000,
		CostPerByte:             consensus.DefaultConstants.CostPerByte,
		MaxGeneratorRefListSize: 8,
	}, constants)

	modHash, err := conf.ModHash()
	require.NoError(t, err)
	require.Equal(t, cat.CATModHash, modHash)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	constants, err := conf.Constants()
	require.NoError(t, err)
	require.Equal(t, consensus.DefaultConstants, constants)

	conf.CATModHash = "zz"
	_, err = conf.ModHash()
	require.Error(t, err)

	conf.NetworkOverrides.Constants["mainnet"] = map[string]interface{}{"COST_PER_BYTE": -1}
	_, err = conf.Constants()
	require.Error(t, err)

	data, err := DefaultConfig().Marshal()
	require.NoError(t, err)
	got := new(Config)
	require.NoError(t, got.Unmarshal(data))
	require.Equal(t, DefaultConfig(), got)
}
