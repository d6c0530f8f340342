package main

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	log "github.com/treeforest/logger"
	"github.com/treeforest/runblock"
	"github.com/treeforest/runblock/dao"
	"github.com/treeforest/runblock/internal/cat"
	"github.com/treeforest/runblock/pkg/graceful"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run_block over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPipeline(conf)
	if err != nil {
		return err
	}
	store, err := dao.New(conf.LevelDBPath)
	if err != nil {
		return err
	}

	server := runblock.NewHttpServer(conf.HttpServerPort, p, newLoader(conf, store), store)
	go server.Run()
	log.Infof("http server listening on :%d", conf.HttpServerPort)

	graceful.Stop(func() {
		log.Info("shutting down")
		if err := store.Close(); err != nil {
			log.Errorf("close generator store failed: %v", err)
		}
	})
	return nil
}

func tailFilter(tails []string) (*cat.TailFilter, error) {
	filter := cat.NewTailFilter(uint(len(tails)), 0.0001)
	for _, tail := range tails {
		b, err := hex.DecodeString(strings.TrimPrefix(tail, "0x"))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid tail %s", tail)
		}
		filter.Add(b)
	}
	return filter, nil
}
