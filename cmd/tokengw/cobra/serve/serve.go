/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/cmd/tokengw/cobra/flags"
	sdk "github.com/prsb/token-gateway/token/sdk/dig"
	"github.com/prsb/token-gateway/token/services/logging"
	"github.com/prsb/token-gateway/token/services/rest"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var logger = logging.MustGetLogger("serve")

// ShutdownTimeout bounds the graceful shutdown of the server
var ShutdownTimeout = 30 * time.Second

// Cmd returns the Cobra Command for Serve
func Cmd() *cobra.Command {
	return cobraCommand
}

var cobraCommand = &cobra.Command{
	Use:   "serve",
	Short: "Serve the token gateway REST API.",
	Long:  "Serve the token gateway REST API until SIGINT or SIGTERM is received.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		// Parsing of the command line is done so silence cmd usage
		cmd.SilenceUsage = true

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Serve(ctx, flags.Values.ConfigPath)
	},
}

// Serve runs the REST server configured at configPath until ctx is done
func Serve(ctx context.Context, configPath string) error {
	gin.SetMode(gin.ReleaseMode)

	p := sdk.NewSDK(configPath)
	if err := p.Install(); err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warnf("failed closing services: %s", err)
		}
	}()
	srv, err := p.Server()
	if err != nil {
		return err
	}
	return run(ctx, srv)
}

func run(ctx context.Context, srv *rest.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed shutting down the server")
		}
		return nil
	})
	return g.Wait()
}
