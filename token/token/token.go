/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package token

import "fmt"

// Token is the state the token chaincode keeps under a token key
type Token struct {
	// Amount is the volume the key currently holds
	Amount float64 `json:"amount"`
	// Owner is the name of the token holder
	Owner string `json:"owner"`
	// Source is the origin of the token
	Source string `json:"source"`
	// ConversionRate is the rate applied when the token was generated
	ConversionRate float64 `json:"conversion_rate"`
	// PastOperation labels the last operation that wrote the token
	PastOperation string `json:"past_operation"`
}

func (t *Token) String() string {
	return fmt.Sprintf("[%s:%s:%s]", t.Owner, FormatAmount(t.Amount), t.PastOperation)
}

// Envelope is the payload returned by every chaincode write
type Envelope struct {
	// Token is the token as written, nil for retirements
	Token *Token `json:"token,omitempty"`
	// TokenID is set by retirements
	TokenID string `json:"tokenID,omitempty"`
	// TxID is the identifier of the ledger transaction that carried the write
	TxID string `json:"txID"`
}

// Record is a key/value pair returned by range queries
type Record struct {
	Key    string `json:"Key"`
	Record *Token `json:"Record"`
}

// HistoryEntry is one modification of a token key
type HistoryEntry struct {
	TxID string `json:"TxId"`
	// Value is nil when the modification deleted the key
	Value     *Token `json:"Value"`
	Timestamp string `json:"Timestamp"`
	IsDelete  bool   `json:"IsDelete"`
}
