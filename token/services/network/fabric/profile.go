/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/config"
	"gopkg.in/yaml.v2"
)

// Profile is a connection profile read for a single organization
type Profile struct {
	// Organization is the key of the organization inside the profile
	Organization string
	// Name is the network name declared by the profile
	Name string
	// Format is either yaml or json
	Format string
	// Raw is the profile content as read from disk
	Raw []byte
}

type profileDocument struct {
	Name   string `yaml:"name"`
	Client struct {
		Organization string `yaml:"organization"`
	} `yaml:"client"`
	Organizations map[string]organizationSection `yaml:"organizations"`
	Peers         map[string]interface{}         `yaml:"peers"`
}

type organizationSection struct {
	MSPID string   `yaml:"mspid"`
	Peers []string `yaml:"peers"`
}

// LoadProfile reads the organization's connection profile from disk.
// Profiles are never cached, every call reads the file again.
func LoadProfile(org *config.Organization) (*Profile, error) {
	raw, err := os.ReadFile(org.ConnectionProfile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading connection profile for [%s]", org.Name)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(org.ConnectionProfile), ".json") {
		format = "json"
	}

	doc := &profileDocument{}
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, errors.Wrapf(err, "failed parsing connection profile [%s]", org.ConnectionProfile)
	}

	key, section, ok := doc.organization(org.Name)
	if !ok {
		return nil, errors.Errorf("connection profile [%s] does not define organization [%s]", org.ConnectionProfile, org.Name)
	}
	if len(section.MSPID) != 0 && section.MSPID != org.MSPID {
		return nil, errors.Errorf("connection profile [%s] binds [%s] to msp [%s], expected [%s]", org.ConnectionProfile, key, section.MSPID, org.MSPID)
	}
	if client := doc.Client.Organization; len(client) != 0 && !strings.EqualFold(client, org.Name) {
		return nil, errors.Errorf("connection profile [%s] is a client profile of [%s], not [%s]", org.ConnectionProfile, client, org.Name)
	}
	if len(section.Peers) == 0 && len(doc.Peers) == 0 {
		return nil, errors.Errorf("connection profile [%s] lists no peers", org.ConnectionProfile)
	}

	return &Profile{
		Organization: key,
		Name:         doc.Name,
		Format:       format,
		Raw:          raw,
	}, nil
}

func (d *profileDocument) organization(name string) (string, organizationSection, bool) {
	for key, section := range d.Organizations {
		if strings.EqualFold(key, name) {
			return key, section, true
		}
	}
	return "", organizationSection{}, false
}
