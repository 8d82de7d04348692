/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package token

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/cmd/tokengw/cobra/flags"
	sdk "github.com/prsb/token-gateway/token/sdk/dig"
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/prsb/token-gateway/token/services/network/driver"
	"github.com/prsb/token-gateway/token/services/rest"
	"github.com/spf13/cobra"
)

// Cmd returns the Cobra Command for Token
func Cmd() *cobra.Command {
	return cobraCommand
}

var cobraCommand = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token.",
	Long:  "Issue an API bearer token for --user of --org. The identity must be enrolled in the organization wallet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		// Parsing of the command line is done so silence cmd usage
		cmd.SilenceUsage = true
		return Issue(cmd.Context(), cmd.OutOrStdout(), flags.Values)
	},
}

// Issue writes a signed bearer token for the enrolled identity selected by g
func Issue(ctx context.Context, out io.Writer, g *flags.Gateway) error {
	if len(g.User) == 0 || len(g.Org) == 0 {
		return errors.New("--user and --org must be set")
	}
	p := sdk.NewSDK(g.ConfigPath)
	if err := p.Install(); err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	return p.Container().Invoke(func(cfg *config.Service, provider driver.Provider) error {
		exists, err := provider.IdentityExists(ctx, g.Org, g.User)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Errorf("identity [%s] is not enrolled in the wallet of [%s]", g.User, g.Org)
		}
		s := cfg.Server()
		raw, err := rest.IssueToken([]byte(s.JWTSecret), g.User, g.Org, s.TokenExpiry)
		if err != nil {
			return errors.WithMessagef(err, "failed issuing token for [%s@%s]", g.User, g.Org)
		}
		_, err = fmt.Fprintln(out, raw)
		return err
	})
}
