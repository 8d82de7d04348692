/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "TOKENGW"
	configName = "tokengw"
)

// Provider is the subset of viper used by the Service
type Provider interface {
	Get(key string) interface{}
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	// TranslatePath resolves a relative path against the directory of the configuration file
	TranslatePath(path string) string
}

type provider struct {
	*viper.Viper
	base string
}

// NewProvider reads the configuration at the given path.
// If path is a directory, it is searched for tokengw.yaml.
// Every key can be overridden by TOKENGW_ prefixed environment variables,
// with dots replaced by underscores (TOKENGW_GATEWAY_COMMITTIMEOUT).
func NewProvider(path string) (Provider, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	base := path
	if filepath.Ext(path) == "" {
		v.SetConfigName(configName)
		v.AddConfigPath(path)
	} else {
		v.SetConfigFile(path)
		base = filepath.Dir(path)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed reading configuration from [%s]", path)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, errors.Wrapf(err, "failed resolving configuration directory [%s]", base)
	}
	return &provider{Viper: v, base: abs}, nil
}

// NewProviderFromViper wraps an already populated viper instance, relative paths resolve against base.
func NewProviderFromViper(v *viper.Viper, base string) Provider {
	return &provider{Viper: v, base: base}
}

func (p *provider) TranslatePath(path string) string {
	if len(path) == 0 || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.base, path)
}
