package dao

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/treeforest/runblock/internal/generator"
)

func TestGeneratorStore(t *testing.T) {
	dir := t.TempDir()
	require.True(t, IsNotExistDB(dir))

	d, err := New(dir)
	require.NoError(t, err)
	_, ok := d.LatestHeight()
	require.False(t, ok)

	require.NoError(t, d.AddGenerator(10, []byte{0xff, 0x01, 0x80}))
	require.NoError(t, d.AddGenerator(3, []byte{0x80}))

	has, err := d.Has(10)
	require.NoError(t, err)
	require.True(t, has)
	has, err = d.Has(11)
	require.NoError(t, err)
	require.False(t, has)

	program, err := d.GetGenerator(3)
	require.NoError(t, err)
	require.Equal(t, []byte{0x80}, program)

	args, err := d.Load([]uint32{10, 3, 10})
	require.NoError(t, err)
	require.Equal(t, []generator.GeneratorArg{
		{BlockHeight: 10, Program: []byte{0xff, 0x01, 0x80}},
		{BlockHeight: 3, Program: []byte{0x80}},
		{BlockHeight: 10, Program: []byte{0xff, 0x01, 0x80}},
	}, args)

	_, err = d.Load([]uint32{3, 99})
	require.True(t, errors.Is(err, generator.ErrAuxiliaryLookup))

	require.NoError(t, d.Close())

	// 重新打开后最高高度仍然保留
	require.False(t, IsNotExistDB(dir))
	d, err = New(dir)
	require.NoError(t, err)
	defer d.Close()
	height, ok := d.LatestHeight()
	require.True(t, ok)
	require.Equal(t, uint32(10), height)

	program, err = d.GetGenerator(10)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0x01, 0x80}, program)
}

func TestAddGeneratorFailureKeepsLatestHeight(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.AddGenerator(5, []byte{0x80}))
	require.NoError(t, d.Close())

	require.Error(t, d.AddGenerator(6, []byte{0x80}))
	height, ok := d.LatestHeight()
	require.True(t, ok)
	require.Equal(t, uint32(5), height)
}
