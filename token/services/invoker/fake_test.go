/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/prsb/token-gateway/token/services/network/driver"
	"github.com/prsb/token-gateway/token/services/storage/journal"
	"github.com/prsb/token-gateway/token/token"
)

type call struct {
	Kind string
	Name string
	Args []string
}

func evaluate(name string, args ...string) call { return call{Kind: "evaluate", Name: name, Args: args} }
func submit(name string, args ...string) call   { return call{Kind: "submit", Name: name, Args: args} }

// fakeLedger is a driver.Provider over an in-memory token state
type fakeLedger struct {
	mu sync.Mutex

	orgs       map[string]map[string]bool
	state      map[string]*token.Token
	payloads   map[string][]byte
	connectErr error
	// submitErrAt fails the n-th submission, counting from 1
	submitErrAt  int
	submitErr    error
	evaluateErr  error
	identityErr  error
	calls        []call
	identityHits int
	connects     int
	closes       int
	submits      int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		orgs:     map[string]map[string]bool{"org1": {"user1": true}},
		state:    map[string]*token.Token{},
		payloads: map[string][]byte{},
	}
}

func (f *fakeLedger) put(key string, amount float64) {
	f.state[key] = &token.Token{Amount: amount, Owner: key, Source: key, ConversionRate: 1}
}

func (f *fakeLedger) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeLedger) IdentityExists(_ context.Context, org string, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identityHits++
	if f.identityErr != nil {
		return false, f.identityErr
	}
	users, ok := f.orgs[org]
	if !ok {
		return false, errors.Wrapf(config.ErrUnknownOrganization, "organization [%s]", org)
	}
	return users[username], nil
}

func (f *fakeLedger) Connect(context.Context, string, string) (driver.Gateway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.connects++
	return &fakeGateway{ledger: f}, nil
}

type fakeGateway struct {
	ledger *fakeLedger
}

func (g *fakeGateway) Network(string) (driver.Network, error) {
	return g, nil
}

func (g *fakeGateway) Contract(string) driver.Contract {
	return g.ledger
}

func (g *fakeGateway) Close() {
	g.ledger.mu.Lock()
	defer g.ledger.mu.Unlock()
	g.ledger.closes++
}

func (f *fakeLedger) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, evaluate(name, args...))
	if f.evaluateErr != nil {
		return nil, f.evaluateErr
	}
	if name == queryTokenFunction {
		t, ok := f.state[args[0]]
		if !ok {
			return nil, nil
		}
		return json.Marshal(t)
	}
	return f.payloads[name], nil
}

func (f *fakeLedger) SubmitTransaction(name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, submit(name, args...))
	f.submits++
	if f.submitErrAt == f.submits {
		return nil, f.submitErr
	}
	txID := fmt.Sprintf("tx%d", f.submits)

	env := &token.Envelope{TxID: txID}
	switch name {
	case CreateTokenFunction:
		amount, _ := strconv.ParseFloat(args[1], 64)
		rate, _ := strconv.ParseFloat(args[4], 64)
		env.Token = &token.Token{Amount: amount, Owner: args[2], Source: args[3], ConversionRate: rate, PastOperation: args[5]}
		f.state[args[0]] = env.Token
	case UpdateTokenVolumeFunction:
		amount, _ := strconv.ParseFloat(args[1], 64)
		t := *f.state[args[0]]
		t.Amount, t.PastOperation = amount, args[2]
		f.state[args[0]], env.Token = &t, &t
	case ChangeTokenOwnerFunction:
		t := *f.state[args[0]]
		t.Owner = args[1]
		f.state[args[0]], env.Token = &t, &t
	case RetireTokenFunction:
		delete(f.state, args[0])
		env.TokenID = args[0]
	}
	return json.Marshal(env)
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []*journal.Entry
	err     error
}

func (j *fakeJournal) Append(_ context.Context, e *journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return j.err
}
