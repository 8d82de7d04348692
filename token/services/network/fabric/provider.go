/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"context"

	fabconfig "github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/prsb/token-gateway/token/services/identity/wallet"
	"github.com/prsb/token-gateway/token/services/logging"
	"github.com/prsb/token-gateway/token/services/network/driver"
)

var logger = logging.MustGetLogger("network", "fabric")

// OrganizationResolver gives access to the per-organization configuration
type OrganizationResolver interface {
	Organization(name string) (*config.Organization, error)
	Gateway() config.Gateway
}

// Provider opens gateway connections with the fabric-sdk-go gateway.
// The gateway waits for the commit of submitted transactions up to the configured commit timeout.
type Provider struct {
	resolver OrganizationResolver
}

func NewProvider(resolver OrganizationResolver) *Provider {
	return &Provider{resolver: resolver}
}

func (p *Provider) IdentityExists(ctx context.Context, org string, username string) (bool, error) {
	o, err := p.resolver.Organization(org)
	if err != nil {
		return false, err
	}
	store, err := wallet.Open(o.Wallet)
	if err != nil {
		return false, err
	}
	return store.Exists(username), nil
}

func (p *Provider) Connect(ctx context.Context, org string, username string) (driver.Gateway, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "connection aborted")
	}
	o, err := p.resolver.Organization(org)
	if err != nil {
		return nil, err
	}
	profile, err := LoadProfile(o)
	if err != nil {
		return nil, err
	}
	store, err := wallet.Open(o.Wallet)
	if err != nil {
		return nil, err
	}
	if !store.Exists(username) {
		return nil, errors.Errorf("identity [%s] not found in wallet [%s]", username, store.Path())
	}

	timeout := p.resolver.Gateway().CommitTimeout
	logger.Debugf("connecting to [%s] as [%s@%s], commit timeout [%s]", profile.Name, username, profile.Organization, timeout)
	gw, err := gateway.Connect(
		gateway.WithConfig(fabconfig.FromRaw(profile.Raw, profile.Format)),
		gateway.WithIdentity(store.Wallet(), username),
		gateway.WithTimeout(timeout),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to gateway as [%s@%s]", username, o.Name)
	}
	return &Gateway{gw: gw, username: username}, nil
}

// Gateway adapts a fabric-sdk-go gateway to driver.Gateway
type Gateway struct {
	gw       *gateway.Gateway
	username string
}

func (g *Gateway) Network(channel string) (driver.Network, error) {
	n, err := g.gw.GetNetwork(channel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get network [%s]", channel)
	}
	return &Network{network: n}, nil
}

func (g *Gateway) Close() {
	logger.Debugf("closing gateway connection of [%s]", g.username)
	g.gw.Close()
}

// Network adapts a fabric-sdk-go network to driver.Network
type Network struct {
	network *gateway.Network
}

func (n *Network) Contract(chaincode string) driver.Contract {
	return n.network.GetContract(chaincode)
}
