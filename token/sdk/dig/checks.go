/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"context"

	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/prsb/token-gateway/token/services/identity/wallet"
	"github.com/prsb/token-gateway/token/services/storage/journal"
	"go.uber.org/dig"
)

// WalletChecker reports unhealthy when the wallet of an organization cannot be read
type WalletChecker struct {
	Organizations []*config.Organization
}

func (c *WalletChecker) HealthCheck(ctx context.Context) error {
	for _, org := range c.Organizations {
		if err := ctx.Err(); err != nil {
			return err
		}
		w, err := wallet.Open(org.Wallet)
		if err != nil {
			return errors.WithMessagef(err, "wallet of [%s] unavailable", org.Name)
		}
		if _, err := w.List(); err != nil {
			return errors.WithMessagef(err, "wallet of [%s] unavailable", org.Name)
		}
	}
	return nil
}

// NewHealthHandler creates the /healthz handler with a checker for the wallets and, when enabled, the journal
func NewHealthHandler(in struct {
	dig.In
	Config  *config.Service
	Journal *journal.Store
}) (*healthz.HealthHandler, error) {
	h := healthz.NewHealthHandler()
	if err := h.RegisterChecker("wallets", &WalletChecker{Organizations: in.Config.Organizations()}); err != nil {
		return nil, errors.Wrap(err, "failed registering wallet checker")
	}
	if in.Journal != nil {
		if err := h.RegisterChecker("journal", in.Journal); err != nil {
			return nil, errors.Wrap(err, "failed registering journal checker")
		}
	}
	return h, nil
}
