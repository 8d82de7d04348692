/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"io"
	"os"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
)

const (
	DefaultSpec   = "info"
	DefaultFormat = "%{color}%{time:2006-01-02 15:04:05.000 MST} [%{module}] %{shortfunc} -> %{level:.4s} %{id:03x}%{color:reset} %{message}"
)

// Config selects the log spec (e.g. "info:tokengw.invoker=debug") and format.
// Format "json" switches flogging to its JSON encoder.
type Config struct {
	Spec   string
	Format string
	Writer io.Writer
}

// Init configures the process-wide flogging backend.
func Init(c Config) {
	if len(c.Spec) == 0 {
		c.Spec = DefaultSpec
	}
	if len(c.Format) == 0 {
		c.Format = DefaultFormat
	}
	if c.Writer == nil {
		c.Writer = os.Stderr
	}
	flogging.Init(flogging.Config{
		Format:  c.Format,
		Writer:  c.Writer,
		LogSpec: c.Spec,
	})
}
