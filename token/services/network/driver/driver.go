/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
)

// Contract gives access to the transactions of a deployed chaincode
type Contract interface {
	// EvaluateTransaction runs the transaction on a peer without ordering it. The ledger is not updated.
	EvaluateTransaction(name string, args ...string) ([]byte, error)
	// SubmitTransaction endorses, orders and waits for the commit of the transaction.
	// It returns the chaincode response payload.
	SubmitTransaction(name string, args ...string) ([]byte, error)
}

// Network is a channel reachable through a Gateway
type Network interface {
	// Contract returns the contract of the chaincode with the passed name
	Contract(chaincode string) Contract
}

// Gateway is a connection to the ledger network opened on behalf of a single identity
type Gateway interface {
	// Network returns the channel with the passed name
	Network(channel string) (Network, error)
	// Close releases the connection
	Close()
}

// Provider opens gateway connections for the identities of the configured organizations
type Provider interface {
	// IdentityExists reports whether the organization's wallet holds an identity for username.
	// It never opens a network connection.
	IdentityExists(ctx context.Context, org string, username string) (bool, error)
	// Connect opens a gateway connection as username of org.
	// The caller must Close the returned Gateway.
	Connect(ctx context.Context, org string, username string) (Gateway, error)
}
