/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package flags

import (
	"github.com/prsb/token-gateway/token/services/config"
	"github.com/spf13/cobra"
)

// Gateway holds the flags shared by all commands
type Gateway struct {
	// ConfigPath is the configuration file, or a directory holding tokengw.yaml
	ConfigPath string
	// Channel and Chaincode override the configured gateway defaults
	Channel   string
	Chaincode string
	// User and Org select the wallet identity
	User string
	Org  string
}

// Values is bound to the persistent flags of the root command
var Values = &Gateway{}

// Register binds Values to the persistent flags of cmd
func Register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&Values.ConfigPath, "config", "c", ".", "configuration file, or a directory holding tokengw.yaml")
	f.StringVar(&Values.Channel, "channel", "", "channel name, defaults to gateway.channel")
	f.StringVar(&Values.Chaincode, "chaincode", "", "chaincode name, defaults to gateway.chaincode")
	f.StringVarP(&Values.User, "user", "u", "", "wallet label of the invoking identity")
	f.StringVarP(&Values.Org, "org", "o", "", "organization the identity is enrolled with")
}

// Target returns the channel and chaincode to address, falling back to the configured defaults
func (g *Gateway) Target(gw config.Gateway) (string, string) {
	channel, chaincode := g.Channel, g.Chaincode
	if len(channel) == 0 {
		channel = gw.Channel
	}
	if len(chaincode) == 0 {
		chaincode = gw.Chaincode
	}
	return channel, chaincode
}
