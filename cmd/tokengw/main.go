/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/prsb/token-gateway/cmd/tokengw/cobra/flags"
	"github.com/prsb/token-gateway/cmd/tokengw/cobra/invoke"
	"github.com/prsb/token-gateway/cmd/tokengw/cobra/serve"
	"github.com/prsb/token-gateway/cmd/tokengw/cobra/token"
	"github.com/prsb/token-gateway/cmd/tokengw/cobra/version"
	"github.com/spf13/cobra"
)

// The main command describes the service and
// defaults to printing the help message.
var mainCmd = &cobra.Command{Use: version.ProgramName}

func main() {
	flags.Register(mainCmd)

	mainCmd.AddCommand(serve.Cmd())
	mainCmd.AddCommand(invoke.InvokeCmd())
	mainCmd.AddCommand(invoke.QueryCmd())
	mainCmd.AddCommand(token.Cmd())
	mainCmd.AddCommand(version.Cmd())

	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}
