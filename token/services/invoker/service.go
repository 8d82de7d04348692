/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoker

import (
	"context"
	"reflect"
	"time"

	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/prsb/token-gateway/token/services/logging"
	"github.com/prsb/token-gateway/token/services/metrics"
	"github.com/prsb/token-gateway/token/services/network/driver"
	"github.com/prsb/token-gateway/token/services/storage/journal"
	"github.com/prsb/token-gateway/token/services/utils/cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var logger = logging.MustGetLogger("invoker")

// Request is a single invocation on behalf of an enrolled user
type Request struct {
	Channel   string
	Chaincode string
	Username  string
	Org       string
	Operation Operation
}

// Result is returned by a successful invocation
type Result struct {
	Message  string `json:"message"`
	TxID     string `json:"txId"`
	Function string `json:"function"`
}

// Journal records the outcome of every invocation
type Journal interface {
	Append(ctx context.Context, e *journal.Entry) error
}

// Option configures a Service
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithJournal makes the service journal every dispatch, failures to journal are only logged
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("invoker") }
}

// WithTxCache sets the cache for lookups by transaction id
func WithTxCache(c cache.Cache[[]byte]) Option {
	return func(s *Service) { s.txCache = c }
}

// Service dispatches token operations to the token chaincode.
// Every call opens its own gateway connection and closes it before returning.
type Service struct {
	provider driver.Provider
	metrics  *metrics.Metrics
	journal  Journal
	tracer   trace.Tracer
	txCache  cache.Cache[[]byte]
}

func NewService(provider driver.Provider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		metrics:  metrics.New(&disabled.Provider{}),
		tracer:   noop.NewTracerProvider().Tracer("invoker"),
		txCache:  cache.NoCache[[]byte]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvokeFunction parses the function name and its positional arguments and invokes the resulting operation
func (s *Service) InvokeFunction(ctx context.Context, channel, chaincode, fcn string, args []string, username, org string) (*Result, error) {
	req := Request{Channel: channel, Chaincode: chaincode, Username: username, Org: org}
	op, err := ParseOperation(fcn, args)
	if err != nil {
		s.observe(ctx, req, fcn, time.Now(), nil, err)
		return nil, err
	}
	req.Operation = op
	return s.Invoke(ctx, req)
}

// Invoke validates the operation, checks the caller identity, connects and runs the operation's
// read and write sequence. No connection is opened when validation or the identity check fail.
func (s *Service) Invoke(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	req.Operation = deref(req.Operation)
	if req.Operation == nil {
		err := newError(InvalidOperation, "", nil, "operation must be set")
		s.observe(ctx, req, "", start, nil, err)
		return nil, err
	}
	fcn := req.Operation.Function()

	ctx, span := s.tracer.Start(ctx, "invoke "+fcn, trace.WithAttributes(
		attribute.String("channel", req.Channel),
		attribute.String("chaincode", req.Chaincode),
		attribute.String("function", fcn),
	))
	defer span.End()

	res, err := s.invoke(ctx, req, fcn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("tx_id", res.TxID))
	}
	s.observe(ctx, req, fcn, start, res, err)
	return res, err
}

func (s *Service) invoke(ctx context.Context, req Request, fcn string) (*Result, error) {
	run := route(req.Operation)
	if run == nil {
		return nil, UnknownFunction(fcn)
	}
	if err := req.Operation.Validate(); err != nil {
		return nil, asInvalid(fcn, err)
	}

	gw, err := s.connect(ctx, fcn, req.Org, req.Username)
	if err != nil {
		return nil, err
	}
	defer gw.Close()

	network, err := gw.Network(req.Channel)
	if err != nil {
		return nil, ledgerFailure(fcn, err, "failed to access channel %s", req.Channel)
	}
	contract := network.Contract(req.Chaincode)
	logger.Debugf("dispatching %s on [%s:%s] as [%s@%s]", fcn, req.Channel, req.Chaincode, req.Username, req.Org)

	return run(&dispatcher{ctx: ctx, contract: contract, function: fcn})
}

// route returns the call sequence of op, nil when op is not one of the token operations
func route(op Operation) func(*dispatcher) (*Result, error) {
	switch op := op.(type) {
	case GenerateToken:
		return func(d *dispatcher) (*Result, error) { return d.generateToken(op) }
	case TransferToken:
		return func(d *dispatcher) (*Result, error) { return d.transferToken(op) }
	case CreateToken:
		return func(d *dispatcher) (*Result, error) { return d.createToken(op) }
	case ChangeTokenOwner:
		return func(d *dispatcher) (*Result, error) { return d.changeTokenOwner(op) }
	case UpdateTokenVolume:
		return func(d *dispatcher) (*Result, error) { return d.updateTokenVolume(op) }
	case RetireToken:
		return func(d *dispatcher) (*Result, error) { return d.retireToken(op) }
	case RetirePartialToken:
		return func(d *dispatcher) (*Result, error) { return d.retirePartialToken(op) }
	default:
		return nil
	}
}

// deref turns &CreateToken{...} and friends into their values. A nil pointer yields nil.
func deref(op Operation) Operation {
	v := reflect.ValueOf(op)
	if v.Kind() != reflect.Pointer {
		return op
	}
	if v.IsNil() {
		return nil
	}
	if o, ok := v.Elem().Interface().(Operation); ok {
		return o
	}
	return op
}

// connect checks that the identity is enrolled and opens a gateway connection with it
func (s *Service) connect(ctx context.Context, fcn, org, username string) (driver.Gateway, error) {
	if err := s.checkIdentity(ctx, fcn, org, username); err != nil {
		return nil, err
	}
	return s.dial(ctx, fcn, org, username)
}

func (s *Service) checkIdentity(ctx context.Context, fcn, org, username string) error {
	ok, err := s.provider.IdentityExists(ctx, org, username)
	if err != nil {
		if errors.Is(err, config.ErrUnknownOrganization) {
			return newError(IdentityNotFound, fcn, err, "unknown organization %s", org)
		}
		return ledgerFailure(fcn, err, "failed to access the wallet of %s", org)
	}
	if !ok {
		return newError(IdentityNotFound, fcn, nil,
			"An identity for the user %s does not exist in the wallet of %s", username, org)
	}
	return nil
}

func (s *Service) dial(ctx context.Context, fcn, org, username string) (driver.Gateway, error) {
	gw, err := s.provider.Connect(ctx, org, username)
	if err != nil {
		return nil, ledgerFailure(fcn, err, "failed to connect to the gateway as %s@%s", username, org)
	}
	return gw, nil
}

func (s *Service) observe(ctx context.Context, req Request, fcn string, start time.Time, res *Result, err error) {
	elapsed := time.Since(start)
	outcome := OutcomeOf(err)
	s.metrics.Observe(metricFunction(fcn), string(outcome), elapsed)

	entry := &journal.Entry{
		Function:  fcn,
		Channel:   req.Channel,
		Chaincode: req.Chaincode,
		Username:  req.Username,
		Org:       req.Org,
		Outcome:   outcome,
		StartedAt: start,
		Duration:  elapsed,
	}
	switch kind := KindOf(err); {
	case err == nil:
		entry.TxID, entry.Message = res.TxID, res.Message
		logger.Infof("%s committed in [%s] after %s: %s", fcn, res.TxID, elapsed, res.Message)
	case kind == LedgerFailure || kind == Unknown:
		entry.ErrorKind, entry.Message = kind.String(), err.Error()
		logger.Errorf("%s failed after %s: %s", fcn, elapsed, err)
	default:
		entry.ErrorKind, entry.Message = kind.String(), err.Error()
		if kind == PreconditionFailed {
			s.metrics.Rejected(metricFunction(fcn))
		}
		logger.Warnf("%s rejected: %s", fcn, err)
	}

	if s.journal == nil {
		return
	}
	if jErr := s.journal.Append(context.WithoutCancel(ctx), entry); jErr != nil {
		logger.Errorf("failed to journal %s: %s", fcn, jErr)
	}
}

// UnknownFunctionLabel is the metrics label of any function outside Functions and QueryFunctions
const UnknownFunctionLabel = "unknown"

func metricFunction(fcn string) string {
	for _, f := range Functions {
		if f == fcn {
			return fcn
		}
	}
	if _, ok := queryArity[fcn]; ok {
		return fcn
	}
	return UnknownFunctionLabel
}

// OutcomeOf maps an invocation error to its journal outcome
func OutcomeOf(err error) journal.Outcome {
	if err == nil {
		return journal.Success
	}
	switch KindOf(err) {
	case PreconditionFailed, InvalidOperation, IdentityNotFound:
		return journal.Rejected
	default:
		return journal.Failed
	}
}

func asInvalid(fcn string, err error) error {
	if KindOf(err) != Unknown {
		return err
	}
	return newError(InvalidOperation, fcn, err, "invalid %s", fcn)
}
