/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/cmd/tokengw/cobra/flags"
	sdk "github.com/prsb/token-gateway/token/sdk/dig"
	"github.com/prsb/token-gateway/token/services/invoker"
	"github.com/prsb/token-gateway/token/services/logging"
	"github.com/spf13/cobra"
)

// InvokeCmd returns the Cobra Command for Invoke
func InvokeCmd() *cobra.Command {
	return invokeCommand
}

// QueryCmd returns the Cobra Command for Query
func QueryCmd() *cobra.Command {
	return queryCommand
}

var invokeCommand = &cobra.Command{
	Use:   "invoke <fcn> [args...]",
	Short: "Submit a token transaction.",
	Long:  "Submit a token transaction on behalf of --user of --org and wait for its commit.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Parsing of the command line is done so silence cmd usage
		cmd.SilenceUsage = true
		return Invoke(cmd.Context(), cmd.OutOrStdout(), flags.Values, args[0], args[1:])
	},
}

var queryCommand = &cobra.Command{
	Use:   "query <fcn> [args...]",
	Short: "Evaluate a token query.",
	Long:  "Evaluate a token query on behalf of --user of --org without ordering a transaction.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Parsing of the command line is done so silence cmd usage
		cmd.SilenceUsage = true
		return Query(cmd.Context(), cmd.OutOrStdout(), flags.Values, args[0], args[1:])
	},
}

// Invoke dispatches fcn and writes the result as JSON to out
func Invoke(ctx context.Context, out io.Writer, g *flags.Gateway, fcn string, args []string) error {
	return withInvoker(g, func(svc *invoker.Service, channel, chaincode string) error {
		logger := logging.InvocationLogger("cli", channel, chaincode)
		logger.Debugf("invoking [%s] as [%s@%s]", fcn, g.User, g.Org)
		res, err := svc.InvokeFunction(ctx, channel, chaincode, fcn, args, g.User, g.Org)
		if err != nil {
			return err
		}
		return write(out, res)
	})
}

// Query evaluates fcn and writes the result as JSON to out
func Query(ctx context.Context, out io.Writer, g *flags.Gateway, fcn string, args []string) error {
	return withInvoker(g, func(svc *invoker.Service, channel, chaincode string) error {
		logger := logging.InvocationLogger("cli", channel, chaincode)
		logger.Debugf("querying [%s] as [%s@%s]", fcn, g.User, g.Org)
		res, err := svc.Query(ctx, invoker.QueryRequest{
			Channel:   channel,
			Chaincode: chaincode,
			Username:  g.User,
			Org:       g.Org,
			Function:  fcn,
			Args:      args,
		})
		if err != nil {
			return err
		}
		if !res.Found {
			return errors.Errorf("%s returned no value", fcn)
		}
		return write(out, res)
	})
}

func withInvoker(g *flags.Gateway, f func(svc *invoker.Service, channel, chaincode string) error) error {
	if len(g.User) == 0 || len(g.Org) == 0 {
		return errors.New("--user and --org must be set")
	}
	p := sdk.NewSDK(g.ConfigPath)
	if err := p.Install(); err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	cfg, err := p.Config()
	if err != nil {
		return err
	}
	svc, err := p.Invoker()
	if err != nil {
		return err
	}
	channel, chaincode := g.Target(cfg.Gateway())
	if len(channel) == 0 || len(chaincode) == 0 {
		return errors.New("no channel or chaincode, set --channel and --chaincode or gateway.channel and gateway.chaincode")
	}
	return f(svc, channel, chaincode)
}

func write(out io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed marshalling result")
	}
	_, err = fmt.Fprintln(out, string(raw))
	return err
}
