/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	errors2 "errors"

	"github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/prsb/token-gateway/token/services/invoker"
	"github.com/prsb/token-gateway/token/services/logging"
	metrics2 "github.com/prsb/token-gateway/token/services/metrics"
	"github.com/prsb/token-gateway/token/services/network/driver"
	"github.com/prsb/token-gateway/token/services/network/fabric"
	"github.com/prsb/token-gateway/token/services/rest"
	"github.com/prsb/token-gateway/token/services/storage/journal"
	"github.com/prsb/token-gateway/token/services/utils/cache"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/dig"
)

var logger = logging.MustGetLogger("sdk")

// SDK assembles the gateway services in a dig container
type SDK struct {
	configPath string
	container  *dig.Container
}

func NewSDK(configPath string) *SDK {
	return &SDK{configPath: configPath, container: dig.New()}
}

func (p *SDK) Container() *dig.Container {
	return p.container
}

// Install registers the constructors of all services.
// Nothing is built until a service is requested.
func (p *SDK) Install() error {
	logger.Debugf("installing services from [%s]...", p.configPath)
	err := errors2.Join(
		p.container.Provide(func() (*config.Service, error) { return config.Load(p.configPath) }),
		p.container.Provide(func(s *config.Service) fabric.OrganizationResolver { return s }),
		p.container.Provide(fabric.NewProvider, dig.As(new(driver.Provider))),
		p.container.Provide(func(s *config.Service) metrics.Provider { return metrics2.NewProvider(s.MetricsEnabled()) }),
		p.container.Provide(metrics2.New),
		p.container.Provide(newJournal),
		p.container.Provide(func() (cache.Cache[[]byte], error) { return cache.New[[]byte](cache.DefaultSize) }),
		p.container.Provide(func() trace.TracerProvider { return noop.NewTracerProvider() }),
		p.container.Provide(newInvoker),
		p.container.Provide(NewHealthHandler),
		p.container.Provide(newServer),
	)
	if err != nil {
		return errors.WithMessagef(err, "failed setting up dig container")
	}
	if err := p.container.Invoke(initLogging); err != nil {
		return errors.WithMessagef(err, "failed initializing logging")
	}
	return nil
}

// Invoker returns the dispatcher
func (p *SDK) Invoker() (*invoker.Service, error) {
	var svc *invoker.Service
	if err := p.container.Invoke(func(s *invoker.Service) { svc = s }); err != nil {
		return nil, errors.WithMessagef(err, "failed building the invoker")
	}
	return svc, nil
}

// Server returns the HTTP server
func (p *SDK) Server() (*rest.Server, error) {
	var srv *rest.Server
	if err := p.container.Invoke(func(s *rest.Server) { srv = s }); err != nil {
		return nil, errors.WithMessagef(err, "failed building the server")
	}
	return srv, nil
}

// Config returns the loaded configuration
func (p *SDK) Config() (*config.Service, error) {
	var cfg *config.Service
	if err := p.container.Invoke(func(s *config.Service) { cfg = s }); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close releases the journal, when open
func (p *SDK) Close() error {
	return p.container.Invoke(func(store *journal.Store) error {
		if store == nil {
			return nil
		}
		return store.Close()
	})
}

func initLogging(s *config.Service) {
	l := s.Logging()
	logging.Init(logging.Config{Spec: l.Spec, Format: l.Format})
}

// newJournal opens the journal store, or returns nil when the journal is disabled
func newJournal(s *config.Service) (*journal.Store, error) {
	j := s.Journal()
	if !j.Enabled {
		logger.Infof("invocation journal disabled")
		return nil, nil
	}
	store, err := journal.Open(j.Driver, j.DataSource, j.TablePrefix, j.QueryLimit)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed opening the invocation journal")
	}
	logger.Infof("invocation journal on [%s]", j.Driver)
	return store, nil
}

func newInvoker(in struct {
	dig.In
	Provider       driver.Provider
	Metrics        *metrics2.Metrics
	Journal        *journal.Store
	TxCache        cache.Cache[[]byte]
	TracerProvider trace.TracerProvider
}) *invoker.Service {
	opts := []invoker.Option{
		invoker.WithMetrics(in.Metrics),
		invoker.WithTxCache(in.TxCache),
		invoker.WithTracerProvider(in.TracerProvider),
	}
	if in.Journal != nil {
		opts = append(opts, invoker.WithJournal(in.Journal))
	}
	return invoker.NewService(in.Provider, opts...)
}

func newServer(in struct {
	dig.In
	Config  *config.Service
	Invoker *invoker.Service
	Journal *journal.Store
	Health  *healthz.HealthHandler
}) (*rest.Server, error) {
	cfg := in.Config.Server()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := rest.Options{Health: in.Health}
	if in.Journal != nil {
		opts.Journal = in.Journal
	}
	if in.Config.MetricsEnabled() {
		opts.Metrics = promhttp.Handler()
	}
	return rest.NewServer(cfg, in.Invoker, opts), nil
}
