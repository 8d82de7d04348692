/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"github.com/pkg/errors"
)

var ErrUnknownOrganization = errors.New("unknown organization")

var journalDrivers = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
}

// Validate returns nil if the configuration is usable, an error naming the offending key otherwise.
func (s *Service) Validate() error {
	if len(s.orgs) == 0 {
		return errors.Errorf("no organizations configured under [%s]", OrganizationsKey)
	}
	for _, org := range s.Organizations() {
		if err := org.Validate(); err != nil {
			return err
		}
	}
	if j := s.Journal(); j.Enabled {
		if _, ok := journalDrivers[j.Driver]; !ok {
			return errors.Errorf("invalid [journal.driver] [%s], expected sqlite or postgres", j.Driver)
		}
		if len(j.DataSource) == 0 {
			return errors.New("[journal.dataSource] must be set when the journal is enabled")
		}
	}
	return nil
}

// Validate checks the settings needed to serve requests, tokens cannot be verified without a secret
func (s Server) Validate() error {
	if len(s.JWTSecret) == 0 {
		return errors.New("[server.jwtSecret] must be set")
	}
	return nil
}

func (o *Organization) Validate() error {
	if len(o.MSPID) == 0 {
		return errors.Errorf("[%s.%s.mspID] must be set", OrganizationsKey, o.Name)
	}
	if len(o.ConnectionProfile) == 0 {
		return errors.Errorf("[%s.%s.connectionProfile] must be set", OrganizationsKey, o.Name)
	}
	if len(o.Wallet) == 0 {
		return errors.Errorf("[%s.%s.wallet] must be set", OrganizationsKey, o.Name)
	}
	return nil
}
