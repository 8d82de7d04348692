/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/prsb/token-gateway/token/services/invoker"
	"github.com/prsb/token-gateway/token/services/logging"
	"github.com/prsb/token-gateway/token/services/storage/journal"
)

var logger = logging.MustGetLogger("rest")

// Invoker is the dispatcher the server exposes
type Invoker interface {
	InvokeFunction(ctx context.Context, channel, chaincode, fcn string, args []string, username, org string) (*invoker.Result, error)
	Query(ctx context.Context, req invoker.QueryRequest) (*invoker.QueryResult, error)
}

// JournalReader lists journaled invocations
type JournalReader interface {
	Query(ctx context.Context, f journal.Filter) ([]*journal.Entry, error)
}

// Server is the HTTP surface of the gateway
type Server struct {
	engine *gin.Engine
	server *http.Server
}

// Options holds the optional collaborators of the server, nil fields disable the matching routes
type Options struct {
	Journal JournalReader
	Health  http.Handler
	Metrics http.Handler
}

func NewServer(cfg config.Server, svc Invoker, opts Options) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), withRequestID, accessLog)

	if opts.Health != nil {
		engine.GET("/healthz", gin.WrapH(opts.Health))
	}
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	h := &handlers{invoker: svc, journal: opts.Journal}
	api := engine.Group("/", authenticate([]byte(cfg.JWTSecret)))
	api.POST("/channels/:channel/chaincodes/:chaincode", h.invoke)
	api.GET("/channels/:channel/chaincodes/:chaincode", h.query)
	api.GET("/invocations", h.invocations)

	return &Server{
		engine: engine,
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve accepts connections on l until Shutdown is called
func (s *Server) Serve(l net.Listener) error {
	logger.Infof("serving on [%s]", l.Addr())
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server stopped")
	}
	return nil
}

// ListenAndServe listens on the configured address and serves
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on [%s]", s.server.Addr)
	}
	return s.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Infof("shutting down [%s]", s.server.Addr)
	return s.server.Shutdown(ctx)
}

func accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	logger.Debugf("[%s] %s %s %d in %s", requestID(c), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
}
