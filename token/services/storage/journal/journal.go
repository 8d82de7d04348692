/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package journal

import (
	"time"

	"github.com/pkg/errors"
)

// Outcome is how a dispatch ended
type Outcome string

const (
	Success Outcome = "success"
	// Rejected is reported for business rejections: invalid operations, failed pre-checks, unknown identities
	Rejected Outcome = "rejected"
	// Failed is reported for ledger client failures
	Failed Outcome = "failed"
)

// ErrNotFound is returned by Get for unknown ids
var ErrNotFound = errors.New("invocation not found")

// Entry is one journaled dispatch
type Entry struct {
	ID        string        `json:"id"`
	Function  string        `json:"function"`
	Channel   string        `json:"channel"`
	Chaincode string        `json:"chaincode"`
	Username  string        `json:"username"`
	Org       string        `json:"org"`
	TxID      string        `json:"txId,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	ErrorKind string        `json:"errorKind,omitempty"`
	Message   string        `json:"message"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Filter selects journal entries, empty fields match everything
type Filter struct {
	Org      string
	Function string
	Outcome  Outcome
	Username string
	// Limit caps the number of returned entries, the store default applies when not positive
	Limit int
}
