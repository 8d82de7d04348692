/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Query function names
const (
	QueryTokenFunction              = queryTokenFunction
	QueryAllTokensFunction          = "queryAllTokens"
	QueryTokenHistoryFunction       = "queryTokenHistory"
	QueryTokenByTxIDFunction        = "queryTokenByTxID"
	QueryTokenHistoryByTxIDFunction = "queryTokenHistoryByTxID"
)

var queryArity = map[string]int{
	QueryTokenFunction:              1,
	QueryAllTokensFunction:          0,
	QueryTokenHistoryFunction:       1,
	QueryTokenByTxIDFunction:        2,
	QueryTokenHistoryByTxIDFunction: 1,
}

// QueryFunctions lists the evaluable functions
var QueryFunctions = []string{
	QueryTokenFunction,
	QueryAllTokensFunction,
	QueryTokenHistoryFunction,
	QueryTokenByTxIDFunction,
	QueryTokenHistoryByTxIDFunction,
}

// QueryRequest is a read-only evaluation on behalf of an enrolled user
type QueryRequest struct {
	Channel   string
	Chaincode string
	Username  string
	Org       string
	Function  string
	Args      []string
}

// QueryResult carries the chaincode payload as returned by the ledger
type QueryResult struct {
	Function string          `json:"function"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	// Found is false when the chaincode returned an empty payload
	Found bool `json:"found"`
}

// Query evaluates one of QueryFunctions. Nothing is submitted to the ordering service.
// Lookups by transaction id are served from the cache once found, the identity is checked in any case.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "query "+req.Function, trace.WithAttributes(
		attribute.String("channel", req.Channel),
		attribute.String("chaincode", req.Chaincode),
		attribute.String("function", req.Function),
	))
	defer span.End()

	res, err := s.query(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warnf("%s failed: %s", req.Function, err)
	}
	s.metrics.Observe(metricFunction(req.Function), string(OutcomeOf(err)), time.Since(start))
	return res, err
}

func (s *Service) query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	fcn := req.Function
	n, ok := queryArity[fcn]
	if !ok {
		return nil, newError(InvalidOperation, fcn, nil,
			"Query requires either %s as function but got %s", strings.Join(QueryFunctions, "/"), fcn)
	}
	if len(req.Args) != n {
		return nil, invalid(fcn, "expected %d arguments, got %d", n, len(req.Args))
	}
	for _, arg := range req.Args {
		if len(strings.TrimSpace(arg)) == 0 {
			return nil, invalid(fcn, "arguments must not be empty")
		}
	}

	if err := s.checkIdentity(ctx, fcn, req.Org, req.Username); err != nil {
		return nil, err
	}
	evaluate := func() ([]byte, error) {
		gw, err := s.dial(ctx, fcn, req.Org, req.Username)
		if err != nil {
			return nil, err
		}
		defer gw.Close()
		network, err := gw.Network(req.Channel)
		if err != nil {
			return nil, ledgerFailure(fcn, err, "failed to access channel %s", req.Channel)
		}
		logger.Debugf("evaluating %s %v on [%s:%s]", fcn, req.Args, req.Channel, req.Chaincode)
		raw, err := network.Contract(req.Chaincode).EvaluateTransaction(fcn, req.Args...)
		if err != nil {
			return nil, ledgerFailure(fcn, err, "failed to evaluate %s", fcn)
		}
		return raw, nil
	}

	if fcn != QueryTokenByTxIDFunction {
		raw, err := evaluate()
		if err != nil {
			return nil, err
		}
		return newQueryResult(fcn, raw), nil
	}

	key := strings.Join([]string{req.Channel, req.Chaincode, req.Args[0], req.Args[1]}, "\x00")
	raw, cached, err := s.txCache.GetOrLoad(key, func() ([]byte, error) {
		raw, err := evaluate()
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, errNotCommitted
		}
		return raw, nil
	})
	if errors.Is(err, errNotCommitted) {
		return newQueryResult(fcn, nil), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Debugf("%s [%s] served from cache: %v", fcn, req.Args[1], cached)
	return newQueryResult(fcn, raw), nil
}

// errNotCommitted keeps empty lookups out of the transaction cache
var errNotCommitted = errors.New("transaction not found")

func newQueryResult(fcn string, raw []byte) *QueryResult {
	return &QueryResult{
		Function: fcn,
		Payload:  json.RawMessage(raw),
		Found:    len(raw) > 0,
	}
}
