/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	s, err := Load("./testdata")
	require.NoError(t, err)

	base, err := filepath.Abs("./testdata")
	require.NoError(t, err)

	orgs := s.Organizations()
	require.Len(t, orgs, 2)
	assert.Equal(t, "org1", orgs[0].Name)
	assert.Equal(t, "org2", orgs[1].Name)

	org1, err := s.Organization("Org1")
	require.NoError(t, err)
	assert.Equal(t, "Org1MSP", org1.MSPID)
	assert.Equal(t, filepath.Join(base, "profiles/connection-org1.yaml"), org1.ConnectionProfile)
	assert.Equal(t, filepath.Join(base, "wallets/org1"), org1.Wallet)

	org2, err := s.Organization("org2")
	require.NoError(t, err)
	assert.Equal(t, "/etc/tokengw/connection-org2.json", org2.ConnectionProfile)

	_, err = s.Organization("org3")
	assert.True(t, errors.Is(err, ErrUnknownOrganization))

	gw := s.Gateway()
	assert.Equal(t, "mychannel", gw.Channel)
	assert.Equal(t, "prsb", gw.Chaincode)
	assert.Equal(t, 30*time.Second, gw.CommitTimeout)

	srv := s.Server()
	assert.Equal(t, "127.0.0.1:4000", srv.Address)
	assert.Equal(t, "thisismysecret", srv.JWTSecret)
	assert.Equal(t, DefaultTokenExpiry, srv.TokenExpiry)

	j := s.Journal()
	assert.True(t, j.Enabled)
	assert.Equal(t, "sqlite", j.Driver)
	assert.Equal(t, DefaultQueryLimit, j.QueryLimit)

	assert.Equal(t, "json", s.Logging().Format)
	assert.False(t, s.MetricsEnabled())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TOKENGW_GATEWAY_COMMITTIMEOUT", "5s")
	t.Setenv("TOKENGW_SERVER_ADDRESS", ":9090")

	s, err := Load("./testdata/tokengw.yaml")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, s.Gateway().CommitTimeout)
	assert.Equal(t, ":9090", s.Server().Address)
}

func TestDefaults(t *testing.T) {
	v := viper.New()
	v.Set("organizations", map[string]interface{}{
		"org1": map[string]interface{}{
			"mspID":             "Org1MSP",
			"connectionProfile": "ccp.yaml",
			"wallet":            "wallet",
		},
	})
	s, err := NewService(NewProviderFromViper(v, "/opt/tokengw"))
	require.NoError(t, err)

	assert.Equal(t, DefaultCommitTimeout, s.Gateway().CommitTimeout)
	assert.Equal(t, DefaultServerAddress, s.Server().Address)
	assert.False(t, s.Journal().Enabled)

	org, err := s.Organization("ORG1")
	require.NoError(t, err)
	assert.Equal(t, "/opt/tokengw/ccp.yaml", org.ConnectionProfile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]interface{}
		wantErr string
	}{
		{
			name:    "no organizations",
			values:  map[string]interface{}{},
			wantErr: "no organizations configured",
		},
		{
			name: "missing msp",
			values: map[string]interface{}{
				"organizations": map[string]interface{}{
					"org1": map[string]interface{}{"connectionProfile": "a", "wallet": "b"},
				},
			},
			wantErr: "[organizations.org1.mspID] must be set",
		},
		{
			name: "missing wallet",
			values: map[string]interface{}{
				"organizations": map[string]interface{}{
					"org1": map[string]interface{}{"mspID": "Org1MSP", "connectionProfile": "a"},
				},
			},
			wantErr: "[organizations.org1.wallet] must be set",
		},
		{
			name: "bad journal driver",
			values: map[string]interface{}{
				"organizations": map[string]interface{}{
					"org1": map[string]interface{}{"mspID": "Org1MSP", "connectionProfile": "a", "wallet": "b"},
				},
				"journal.enabled":    true,
				"journal.driver":     "mysql",
				"journal.dataSource": "x",
			},
			wantErr: "invalid [journal.driver] [mysql]",
		},
		{
			name: "journal without data source",
			values: map[string]interface{}{
				"organizations": map[string]interface{}{
					"org1": map[string]interface{}{"mspID": "Org1MSP", "connectionProfile": "a", "wallet": "b"},
				},
				"journal.enabled": true,
				"journal.driver":  "postgres",
			},
			wantErr: "[journal.dataSource] must be set",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.values {
				v.Set(k, val)
			}
			_, err := NewService(NewProviderFromViper(v, os.TempDir()))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServer(t *testing.T) {
	v := viper.New()
	v.Set("organizations", map[string]interface{}{
		"org1": map[string]interface{}{"mspID": "Org1MSP", "connectionProfile": "a", "wallet": "b"},
	})
	s, err := NewService(NewProviderFromViper(v, os.TempDir()))
	require.NoError(t, err)
	assert.EqualError(t, s.Server().Validate(), "[server.jwtSecret] must be set")

	v.Set("server.jwtSecret", "secret")
	assert.NoError(t, s.Server().Validate())
}
