/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoker

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/network/driver"
	"github.com/prsb/token-gateway/token/token"
	"github.com/sourcegraph/conc/pool"
)

// dispatcher runs the read and write sequence of a single operation over an open contract.
// Pre-checks read the ledger in a separate round trip from the writes, two concurrent
// dispatches on the same key can both pass them: the ledger key-version validation
// rejects the second commit.
type dispatcher struct {
	ctx      context.Context
	contract driver.Contract
	function string
}

func (d *dispatcher) generateToken(op GenerateToken) (*Result, error) {
	// the token key doubles as the key of the current owner's token
	current, err := d.read(op.Key)
	switch {
	case err == nil:
		env, err := d.submit(UpdateTokenVolumeFunction, op.Key, token.FormatAmount(current.Amount+op.Amount), TokenGenerated)
		if err != nil {
			return nil, err
		}
		return d.result(env, "Successfully generated %s tokens for %s!", token.FormatAmount(op.Amount), op.Key), nil
	case errors.Is(err, ErrTokenNotFound):
		if !op.HasDetails {
			return nil, preconditionFailed(d.function,
				"Token with key %s does not exist, owner, source and conversion rate are required to create it", op.Key)
		}
		env, err := d.submit(CreateTokenFunction, op.Key, token.FormatAmount(op.Amount), op.Owner, op.Source, token.FormatAmount(op.ConversionRate), TokenGenerated)
		if err != nil {
			return nil, err
		}
		return d.result(env, "Successfully generated %s tokens for %s!", token.FormatAmount(op.Amount), op.Key), nil
	default:
		return nil, err
	}
}

func (d *dispatcher) transferToken(op TransferToken) (*Result, error) {
	var from, to *token.Token
	var fromErr, toErr error
	p := pool.New()
	p.Go(func() { from, fromErr = d.read(op.From) })
	p.Go(func() { to, toErr = d.read(op.To) })
	p.Wait()

	if err := d.exists(op.From, fromErr); err != nil {
		return nil, err
	}
	if err := d.exists(op.To, toErr); err != nil {
		return nil, err
	}
	if from.Amount < op.Amount {
		return nil, preconditionFailed(d.function, "%s does not have enough tokens for the transfer!", op.From)
	}

	debit, err := d.submit(UpdateTokenVolumeFunction, op.From, token.FormatAmount(from.Amount-op.Amount), TokenTransferred)
	if err != nil {
		return nil, err
	}
	credit, err := d.submit(UpdateTokenVolumeFunction, op.To, token.FormatAmount(to.Amount+op.Amount), TokenTransferred)
	if err != nil {
		return nil, ledgerFailure(d.function, errors.Cause(err),
			"failed to credit %s, the debit of %s was committed in transaction %s", op.To, op.From, debit.TxID)
	}
	return d.result(credit, "Successfully transferred %s tokens to %s", token.FormatAmount(op.Amount), op.To), nil
}

func (d *dispatcher) createToken(op CreateToken) (*Result, error) {
	env, err := d.submit(CreateTokenFunction, op.Key, token.FormatAmount(op.Amount), op.Owner, op.Source, token.FormatAmount(op.ConversionRate), TokenCreated)
	if err != nil {
		return nil, err
	}
	return d.result(env, "Successfully added the token asset with key %s", op.Key), nil
}

func (d *dispatcher) changeTokenOwner(op ChangeTokenOwner) (*Result, error) {
	env, err := d.submit(ChangeTokenOwnerFunction, op.Key, op.NewOwner)
	if err != nil {
		return nil, err
	}
	return d.result(env, "Successfully changed token owner with key %s", op.Key), nil
}

func (d *dispatcher) updateTokenVolume(op UpdateTokenVolume) (*Result, error) {
	env, err := d.submit(UpdateTokenVolumeFunction, op.Key, token.FormatAmount(op.Amount), TokenVolumeUpdated)
	if err != nil {
		return nil, err
	}
	return d.result(env, "Successfully updated token volume with key %s", op.Key), nil
}

func (d *dispatcher) retireToken(op RetireToken) (*Result, error) {
	env, err := d.submit(RetireTokenFunction, op.Key)
	if err != nil {
		return nil, err
	}
	return d.result(env, "Successfully retired token with key %s", op.Key), nil
}

func (d *dispatcher) retirePartialToken(op RetirePartialToken) (*Result, error) {
	current, err := d.read(op.Key)
	if err := d.exists(op.Key, err); err != nil {
		return nil, err
	}
	if current.Amount < op.Amount {
		return nil, preconditionFailed(d.function, "%s does not have enough tokens to retire %s", op.Key, token.FormatAmount(op.Amount))
	}
	env, err := d.submit(UpdateTokenVolumeFunction, op.Key, token.FormatAmount(current.Amount-op.Amount), TokenRetired)
	if err != nil {
		return nil, err
	}
	return d.result(env, "Successfully retired %s tokens!", token.FormatAmount(op.Amount)), nil
}

func (d *dispatcher) read(key string) (*token.Token, error) {
	logger.Debugf("%s: evaluating %s [%s]", d.function, queryTokenFunction, key)
	t, err := QueryToken(d.contract, key)
	if err != nil && !errors.Is(err, ErrTokenNotFound) {
		return nil, ledgerFailure(d.function, errors.Cause(err), "failed to read token %s", key)
	}
	return t, err
}

func (d *dispatcher) exists(key string, err error) error {
	if errors.Is(err, ErrTokenNotFound) {
		return preconditionFailed(d.function, "Token with key %s does not exist", key)
	}
	return err
}

func (d *dispatcher) submit(name string, args ...string) (*token.Envelope, error) {
	if err := d.ctx.Err(); err != nil {
		return nil, ledgerFailure(d.function, err, "%s aborted before submitting %s", d.function, name)
	}
	logger.Debugf("%s: submitting %s %v", d.function, name, args)
	env, err := Submit(d.contract, name, args...)
	if err != nil {
		return nil, ledgerFailure(d.function, err, "transaction %s failed", name)
	}
	return env, nil
}

func (d *dispatcher) result(env *token.Envelope, format string, args ...interface{}) *Result {
	return &Result{
		Message:  fmt.Sprintf(format, args...),
		TxID:     env.TxID,
		Function: d.function,
	}
}
