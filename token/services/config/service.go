/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const (
	OrganizationsKey = "organizations"

	DefaultCommitTimeout = 100 * time.Second
	DefaultServerAddress = ":4000"
	DefaultTokenExpiry   = 10 * time.Hour
	DefaultQueryLimit    = 100
)

// Organization is the per-organization access material: the connection profile describing
// the network topology and the wallet holding the organization's identities.
type Organization struct {
	Name              string `mapstructure:"-"`
	MSPID             string `mapstructure:"mspID"`
	ConnectionProfile string `mapstructure:"connectionProfile"`
	Wallet            string `mapstructure:"wallet"`
}

// Gateway collects the defaults used when connecting to the network
type Gateway struct {
	Channel       string
	Chaincode     string
	CommitTimeout time.Duration
}

// Server is the REST server configuration
type Server struct {
	Address     string
	JWTSecret   string
	TokenExpiry time.Duration
}

// Journal is the invocation journal configuration
type Journal struct {
	Enabled     bool
	Driver      string
	DataSource  string
	TablePrefix string
	QueryLimit  int
}

// Logging is the logging configuration
type Logging struct {
	Spec   string
	Format string
}

// Service model the configuration service for the token gateway
type Service struct {
	cp   Provider
	orgs map[string]*Organization
}

// NewService loads and validates the organizations section of the passed configuration.
func NewService(cp Provider) (*Service, error) {
	orgs, err := loadOrganizations(cp)
	if err != nil {
		return nil, err
	}
	s := &Service{cp: cp, orgs: orgs}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the configuration at path and returns a Service on top of it.
func Load(path string) (*Service, error) {
	cp, err := NewProvider(path)
	if err != nil {
		return nil, err
	}
	return NewService(cp)
}

// Organization returns the configuration of the named organization.
// Organization names are case-insensitive.
func (s *Service) Organization(name string) (*Organization, error) {
	org, ok := s.orgs[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOrganization, "organization [%s]", name)
	}
	return org, nil
}

// Organizations returns all configured organizations sorted by name
func (s *Service) Organizations() []*Organization {
	res := make([]*Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		res = append(res, org)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

func (s *Service) Gateway() Gateway {
	timeout := s.cp.GetDuration("gateway.commitTimeout")
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	return Gateway{
		Channel:       s.cp.GetString("gateway.channel"),
		Chaincode:     s.cp.GetString("gateway.chaincode"),
		CommitTimeout: timeout,
	}
}

func (s *Service) Server() Server {
	address := s.cp.GetString("server.address")
	if len(address) == 0 {
		address = DefaultServerAddress
	}
	expiry := s.cp.GetDuration("server.tokenExpiry")
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return Server{
		Address:     address,
		JWTSecret:   s.cp.GetString("server.jwtSecret"),
		TokenExpiry: expiry,
	}
}

func (s *Service) Journal() Journal {
	limit := s.cp.GetInt("journal.queryLimit")
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	return Journal{
		Enabled:     s.cp.GetBool("journal.enabled"),
		Driver:      s.cp.GetString("journal.driver"),
		DataSource:  s.cp.GetString("journal.dataSource"),
		TablePrefix: s.cp.GetString("journal.tablePrefix"),
		QueryLimit:  limit,
	}
}

func (s *Service) Logging() Logging {
	return Logging{
		Spec:   s.cp.GetString("logging.spec"),
		Format: s.cp.GetString("logging.format"),
	}
}

func (s *Service) MetricsEnabled() bool {
	return s.cp.GetBool("metrics.enabled")
}

func loadOrganizations(cp Provider) (map[string]*Organization, error) {
	raw := cp.Get(OrganizationsKey)
	if raw == nil {
		return nil, errors.Errorf("no organizations configured under [%s]", OrganizationsKey)
	}
	var boxed map[string]*Organization
	if err := mapstructure.Decode(raw, &boxed); err != nil {
		return nil, errors.WithMessagef(err, "cannot load organizations")
	}
	orgs := make(map[string]*Organization, len(boxed))
	for name, org := range boxed {
		if org == nil {
			return nil, errors.Errorf("organization [%s] has no configuration", name)
		}
		org.Name = strings.ToLower(name)
		org.ConnectionProfile = cp.TranslatePath(org.ConnectionProfile)
		org.Wallet = cp.TranslatePath(org.Wallet)
		orgs[org.Name] = org
	}
	return orgs, nil
}
