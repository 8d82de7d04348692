/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoker

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/token"
)

// Function names accepted by Invoke
const (
	GenerateTokenFunction      = "generateToken"
	TransferTokenFunction      = "transferToken"
	CreateTokenFunction        = "createToken"
	ChangeTokenOwnerFunction   = "changeTokenOwner"
	UpdateTokenVolumeFunction  = "updateTokenVolume"
	RetireTokenFunction        = "retireToken"
	RetirePartialTokenFunction = "retirePartialToken"
)

// Functions lists the invocable functions in the order they are reported to callers
var Functions = []string{
	GenerateTokenFunction,
	TransferTokenFunction,
	CreateTokenFunction,
	ChangeTokenOwnerFunction,
	UpdateTokenVolumeFunction,
	RetireTokenFunction,
	RetirePartialTokenFunction,
}

// Labels stored by the chaincode as the token's past operation
const (
	TokenGenerated     = "Token Generated"
	TokenTransferred   = "Token Transferred"
	TokenRetired       = "Token Retired"
	TokenCreated       = "Token Created"
	TokenVolumeUpdated = "Token Volume Updated"
)

// Operation is one of the invocable token operations
type Operation interface {
	// Function returns the function name the operation is dispatched under
	Function() string
	// Validate checks the operation fields without touching the ledger
	Validate() error
}

// GenerateToken adds Amount to the token under Key, creating it when absent.
// Owner, Source and ConversionRate are only used on creation.
type GenerateToken struct {
	Key            string
	Amount         float64
	Owner          string
	Source         string
	ConversionRate float64
	// HasDetails is set when Owner, Source and ConversionRate were supplied
	HasDetails bool
}

func (GenerateToken) Function() string { return GenerateTokenFunction }

func (o GenerateToken) Validate() error {
	if err := keyRequired(o.Function(), "key", o.Key); err != nil {
		return err
	}
	return positive(o.Function(), o.Amount)
}

// TransferToken moves Amount from the token under From to the token under To
type TransferToken struct {
	From   string
	To     string
	Amount float64
}

func (TransferToken) Function() string { return TransferTokenFunction }

func (o TransferToken) Validate() error {
	if err := keyRequired(o.Function(), "from", o.From); err != nil {
		return err
	}
	if err := keyRequired(o.Function(), "to", o.To); err != nil {
		return err
	}
	if o.From == o.To {
		return invalid(o.Function(), "cannot transfer from [%s] to itself", o.From)
	}
	return positive(o.Function(), o.Amount)
}

// CreateToken writes a new token under Key
type CreateToken struct {
	Key            string
	Amount         float64
	Owner          string
	Source         string
	ConversionRate float64
}

func (CreateToken) Function() string { return CreateTokenFunction }

func (o CreateToken) Validate() error {
	if err := keyRequired(o.Function(), "key", o.Key); err != nil {
		return err
	}
	if err := keyRequired(o.Function(), "owner", o.Owner); err != nil {
		return err
	}
	return nonNegative(o.Function(), o.Amount)
}

// ChangeTokenOwner reassigns the token under Key
type ChangeTokenOwner struct {
	Key      string
	NewOwner string
}

func (ChangeTokenOwner) Function() string { return ChangeTokenOwnerFunction }

func (o ChangeTokenOwner) Validate() error {
	if err := keyRequired(o.Function(), "key", o.Key); err != nil {
		return err
	}
	return keyRequired(o.Function(), "new owner", o.NewOwner)
}

// UpdateTokenVolume overwrites the amount of the token under Key
type UpdateTokenVolume struct {
	Key    string
	Amount float64
}

func (UpdateTokenVolume) Function() string { return UpdateTokenVolumeFunction }

func (o UpdateTokenVolume) Validate() error {
	if err := keyRequired(o.Function(), "key", o.Key); err != nil {
		return err
	}
	return nonNegative(o.Function(), o.Amount)
}

// RetireToken deletes the token under Key
type RetireToken struct {
	Key string
}

func (RetireToken) Function() string { return RetireTokenFunction }

func (o RetireToken) Validate() error {
	return keyRequired(o.Function(), "key", o.Key)
}

// RetirePartialToken removes Amount from the token under Key
type RetirePartialToken struct {
	Key    string
	Amount float64
}

func (RetirePartialToken) Function() string { return RetirePartialTokenFunction }

func (o RetirePartialToken) Validate() error {
	if err := keyRequired(o.Function(), "key", o.Key); err != nil {
		return err
	}
	return positive(o.Function(), o.Amount)
}

// ParseOperation maps a function name and its positional arguments to an Operation.
// The returned operation is validated.
func ParseOperation(fcn string, args []string) (Operation, error) {
	var op Operation
	var err error
	switch fcn {
	case GenerateTokenFunction:
		op, err = parseGenerateToken(args)
	case TransferTokenFunction:
		op, err = parseTransferToken(args)
	case CreateTokenFunction:
		op, err = parseCreateToken(args)
	case ChangeTokenOwnerFunction:
		if err = arity(fcn, args, 2); err == nil {
			op = ChangeTokenOwner{Key: args[0], NewOwner: args[1]}
		}
	case UpdateTokenVolumeFunction:
		if err = arity(fcn, args, 2); err == nil {
			var amount float64
			if amount, err = parseAmount(fcn, args[1]); err == nil {
				op = UpdateTokenVolume{Key: args[0], Amount: amount}
			}
		}
	case RetireTokenFunction:
		if err = arity(fcn, args, 1); err == nil {
			op = RetireToken{Key: args[0]}
		}
	case RetirePartialTokenFunction:
		if err = arity(fcn, args, 2); err == nil {
			var amount float64
			if amount, err = parseAmount(fcn, args[1]); err == nil {
				op = RetirePartialToken{Key: args[0], Amount: amount}
			}
		}
	default:
		return nil, UnknownFunction(fcn)
	}
	if err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

// UnknownFunction returns the error reported for a function name outside Functions
func UnknownFunction(fcn string) *Error {
	return newError(InvalidOperation, fcn, nil,
		"Invocation requires either %s as function but got %s", strings.Join(Functions, "/"), fcn)
}

func parseGenerateToken(args []string) (Operation, error) {
	const fcn = GenerateTokenFunction
	if len(args) != 2 && len(args) != 5 {
		return nil, invalid(fcn, "expected 2 or 5 arguments [key, amount, owner, source, conversion rate], got %d", len(args))
	}
	amount, err := parseAmount(fcn, args[1])
	if err != nil {
		return nil, err
	}
	op := GenerateToken{Key: args[0], Amount: amount}
	if len(args) == 5 {
		rate, err := parseAmount(fcn, args[4])
		if err != nil {
			return nil, err
		}
		op.Owner, op.Source, op.ConversionRate, op.HasDetails = args[2], args[3], rate, true
	}
	return op, nil
}

func parseTransferToken(args []string) (Operation, error) {
	const fcn = TransferTokenFunction
	if err := arity(fcn, args, 3); err != nil {
		return nil, err
	}
	amount, err := parseAmount(fcn, args[2])
	if err != nil {
		return nil, err
	}
	return TransferToken{From: args[0], To: args[1], Amount: amount}, nil
}

func parseCreateToken(args []string) (Operation, error) {
	const fcn = CreateTokenFunction
	if err := arity(fcn, args, 5); err != nil {
		return nil, err
	}
	amount, err := parseAmount(fcn, args[1])
	if err != nil {
		return nil, err
	}
	rate, err := parseAmount(fcn, args[4])
	if err != nil {
		return nil, err
	}
	return CreateToken{Key: args[0], Amount: amount, Owner: args[2], Source: args[3], ConversionRate: rate}, nil
}

func arity(fcn string, args []string, n int) error {
	if len(args) != n {
		return invalid(fcn, "expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func parseAmount(fcn string, s string) (float64, error) {
	v, err := token.ParseAmount(s)
	if err != nil {
		return 0, newError(InvalidOperation, fcn, errors.Cause(err), "invalid amount [%s]", s)
	}
	return v, nil
}

func keyRequired(fcn, field, value string) error {
	if len(strings.TrimSpace(value)) == 0 {
		return invalid(fcn, "%s must be set", field)
	}
	return nil
}

func positive(fcn string, amount float64) error {
	if err := nonNegative(fcn, amount); err != nil {
		return err
	}
	if amount == 0 {
		return invalid(fcn, "amount must be positive")
	}
	return nil
}

func nonNegative(fcn string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return invalid(fcn, "amount must be finite")
	}
	if amount < 0 {
		return invalid(fcn, "amount must not be negative, got %s", token.FormatAmount(amount))
	}
	return nil
}

func invalid(fcn string, format string, args ...interface{}) *Error {
	return newError(InvalidOperation, fcn, nil, fmt.Sprintf("invalid %s: %s", fcn, format), args...)
}
