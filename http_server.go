package runblock

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/treeforest/logger"
	"github.com/treeforest/runblock/dao"
	"github.com/treeforest/runblock/internal/cat"
	"github.com/treeforest/runblock/internal/clvm"
	"github.com/treeforest/runblock/internal/condition"
	"github.com/treeforest/runblock/internal/generator"
)

const requestIDHeader = "X-Request-Id"

type HttpServer struct {
	port     int
	pipeline *cat.Pipeline
	loader   generator.Loader
	store    *dao.DAO
}

// NewHttpServer loader 用于加载引用的历史生成器，store 为空时 /generators 不可用
func NewHttpServer(port int, pipeline *cat.Pipeline, loader generator.Loader, store *dao.DAO) *HttpServer {
	return &HttpServer{port: port, pipeline: pipeline, loader: loader, store: store}
}

func (s *HttpServer) Handler() *gin.Engine {
	r := gin.Default()
	r.Use(requestID)

	r.POST("/run_block", s.handleRunBlock)
	r.GET("/generators/:height", s.handleGetGenerator)
	r.PUT("/generators/:height", s.handlePutGenerator)
	return r
}

func (s *HttpServer) Run() {
	err := s.Handler().Run(fmt.Sprintf(":%d", s.port))
	if err != nil {
		log.Fatal("http server run failed:", err)
	}
}

func requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	c.Set(requestIDHeader, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

// handleRunBlock 查询参数 tail（可重复，十六进制）或 bloom（base64 编码的 gob 过滤器）用于筛选 CAT
func (s *HttpServer) handleRunBlock(c *gin.Context) {
	data, err := ioutil.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	block, err := DecodeFullBlock(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := *s.pipeline
	p.Filter = filter

	cats, err := RunFullBlock(&p, block, s.loader)
	if err != nil {
		log.Warnf("request %s run block failed: %v", c.GetString(requestIDHeader), err)
		var execErr *condition.ExecutionError
		switch {
		case errors.As(err, &execErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": uint16(execErr.Code)})
		case errors.Is(err, ErrMissingGenerator):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, generator.ErrAuxiliaryLookup):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, cats)
}

func parseFilter(c *gin.Context) (*cat.TailFilter, error) {
	if encoded := c.Query("bloom"); encoded != "" {
		data, err := base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "invalid bloom encoding")
		}
		return cat.DecodeTailFilter(data)
	}

	tails := c.QueryArray("tail")
	if len(tails) == 0 {
		return nil, nil
	}
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

type generatorBody struct {
	Height                uint32   `json:"height"`
	TransactionsGenerator HexBytes `json:"transactions_generator"`
}

func (s *HttpServer) handleGetGenerator(c *gin.Context) {
	if !s.checkStore(c) {
		return
	}
	height, ok := parseHeight(c)
	if !ok {
		return
	}

	program, err := s.store.GetGenerator(height)
	if err != nil {
		if errors.Is(err, generator.ErrAuxiliaryLookup) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, generatorBody{Height: height, TransactionsGenerator: program})
}

func (s *HttpServer) handlePutGenerator(c *gin.Context) {
	if !s.checkStore(c) {
		return
	}
	height, ok := parseHeight(c)
	if !ok {
		return
	}

	var body generatorBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request obj error"})
		return
	}
	if _, err := clvm.Deserialize(body.TransactionsGenerator); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.AddGenerator(height, body.TransactionsGenerator); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

func parseHeight(c *gin.Context) (uint32, bool) {
	height, err := strconv.ParseUint(c.Param("height"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid height"})
		return 0, false
	}
	return uint32(height), true
}

func (s *HttpServer) checkStore(c *gin.Context) bool {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "generator store not configured"})
		return false
	}
	return true
}
