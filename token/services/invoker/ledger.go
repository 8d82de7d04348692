/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoker

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/network/driver"
	"github.com/prsb/token-gateway/token/token"
)

const queryTokenFunction = "queryToken"

// ErrTokenNotFound is returned by QueryToken when the ledger holds no value under the key
var ErrTokenNotFound = errors.New("token not found")

// QueryToken evaluates queryToken for key.
// An empty payload is the only absence signal, any other payload is decoded as a token.
func QueryToken(contract driver.Contract, key string) (*token.Token, error) {
	raw, err := contract.EvaluateTransaction(queryTokenFunction, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to evaluate %s [%s]", queryTokenFunction, key)
	}
	if len(raw) == 0 {
		return nil, errors.WithMessagef(ErrTokenNotFound, "key [%s]", key)
	}
	t := &token.Token{}
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, errors.Wrapf(err, "failed to decode token [%s]", key)
	}
	return t, nil
}

// Submit submits the named transaction and decodes the returned envelope
func Submit(contract driver.Contract, name string, args ...string) (*token.Envelope, error) {
	raw, err := contract.SubmitTransaction(name, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to submit transaction %s", name)
	}
	if len(raw) == 0 {
		return nil, errors.Errorf("transaction %s returned an empty payload", name)
	}
	env := &token.Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, errors.Wrapf(err, "failed to decode the result of %s", name)
	}
	return env, nil
}
