/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"time"

	"github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/hyperledger/fabric-lib-go/common/metrics/prometheus"
)

const (
	namespace = "tokengw"

	FunctionLabel = "function"
	OutcomeLabel  = "outcome"
)

var (
	invocationsCounterOpts = metrics.CounterOpts{
		Namespace:    namespace,
		Name:         "invocations",
		Help:         "The number of dispatched token invocations.",
		LabelNames:   []string{FunctionLabel, OutcomeLabel},
		StatsdFormat: "%{#fqname}.%{function}.%{outcome}",
	}
	invocationDurationHistogramOpts = metrics.HistogramOpts{
		Namespace:    namespace,
		Name:         "invocation_duration",
		Help:         "The time to complete a token invocation in seconds.",
		Buckets:      []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 100},
		LabelNames:   []string{FunctionLabel},
		StatsdFormat: "%{#fqname}.%{function}",
	}
	preconditionRejectionsCounterOpts = metrics.CounterOpts{
		Namespace:    namespace,
		Name:         "precondition_rejections",
		Help:         "The number of invocations rejected by a ledger state pre-check.",
		LabelNames:   []string{FunctionLabel},
		StatsdFormat: "%{#fqname}.%{function}",
	}
)

// Metrics are the collectors updated by the dispatcher
type Metrics struct {
	Invocations            metrics.Counter
	InvocationDuration     metrics.Histogram
	PreconditionRejections metrics.Counter
}

func New(p metrics.Provider) *Metrics {
	return &Metrics{
		Invocations:            p.NewCounter(invocationsCounterOpts),
		InvocationDuration:     p.NewHistogram(invocationDurationHistogramOpts),
		PreconditionRejections: p.NewCounter(preconditionRejectionsCounterOpts),
	}
}

// NewProvider returns the prometheus provider when enabled, a no-op one otherwise
func NewProvider(enabled bool) metrics.Provider {
	if enabled {
		return &prometheus.Provider{}
	}
	return &disabled.Provider{}
}

// Observe records a completed invocation
func (m *Metrics) Observe(function, outcome string, elapsed time.Duration) {
	m.Invocations.With(FunctionLabel, function, OutcomeLabel, outcome).Add(1)
	m.InvocationDuration.With(FunctionLabel, function).Observe(elapsed.Seconds())
}

func (m *Metrics) Rejected(function string) {
	m.PreconditionRejections.With(FunctionLabel, function).Add(1)
}
