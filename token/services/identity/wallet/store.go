/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"sort"

	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/logging"
)

var logger = logging.MustGetLogger("wallet")

// Store is a read-only view over a file system wallet.
// Identities are enrolled into the wallet by an external registration flow.
type Store struct {
	path   string
	wallet *gateway.Wallet
}

// Open opens the file system wallet at path
func Open(path string) (*Store, error) {
	w, err := gateway.NewFileSystemWallet(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open wallet at [%s]", path)
	}
	return &Store{path: path, wallet: w}, nil
}

// Exists returns true if the wallet holds an identity with the passed label
func (s *Store) Exists(label string) bool {
	ok := s.wallet.Exists(label)
	logger.Debugf("identity [%s] in wallet [%s]: %v", label, s.path, ok)
	return ok
}

// List returns the sorted labels of the identities in the wallet
func (s *Store) List() ([]string, error) {
	labels, err := s.wallet.List()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list wallet [%s]", s.path)
	}
	sort.Strings(labels)
	return labels, nil
}

// Path returns the wallet location
func (s *Store) Path() string {
	return s.path
}

// Wallet returns the underlying wallet, to be passed to gateway.WithIdentity
func (s *Store) Wallet() *gateway.Wallet {
	return s.wallet
}
