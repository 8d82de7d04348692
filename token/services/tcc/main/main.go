/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/logging"
	"github.com/prsb/token-gateway/token/services/tcc"
)

type serverConfig struct {
	CCID       string
	CCaddress  string
	TLS        string
	TLSKey     string
	TLSCert    string
	TLSCACerts string
	LogLevel   string
	LogFormat  string
}

func configFromEnv(getenv func(string) string) serverConfig {
	return serverConfig{
		CCID:       getenv("CHAINCODE_ID"),
		CCaddress:  getenv("CHAINCODE_SERVER_ADDRESS"),
		TLS:        getenv("CHAINCODE_TLS"),
		TLSKey:     getenv("CHAINCODE_TLS_KEY"),
		TLSCert:    getenv("CHAINCODE_TLS_CERT"),
		TLSCACerts: getenv("CHAINCODE_TLS_CA_CERTS"),
		LogLevel:   getenv("CHAINCODE_LOG_LEVEL"),
		LogFormat:  getenv("CHAINCODE_LOG_FORMAT"),
	}
}

// tlsProperties loads the key pair and client CAs when TLS is on.
// TLS is on when CHAINCODE_TLS is true, or unset with a key configured.
func tlsProperties(config serverConfig) (shim.TLSProperties, error) {
	if config.TLS == "" && config.TLSKey != "" {
		config.TLS = "true"
	}
	if config.TLS == "" {
		return shim.TLSProperties{Disabled: true}, nil
	}
	enabled, err := strconv.ParseBool(config.TLS)
	if err != nil {
		return shim.TLSProperties{}, errors.Wrapf(err, "invalid CHAINCODE_TLS [%s]", config.TLS)
	}
	if !enabled {
		return shim.TLSProperties{Disabled: true}, nil
	}

	var props shim.TLSProperties
	if props.Key, err = readPEM("CHAINCODE_TLS_KEY", config.TLSKey); err != nil {
		return shim.TLSProperties{}, err
	}
	if props.Cert, err = readPEM("CHAINCODE_TLS_CERT", config.TLSCert); err != nil {
		return shim.TLSProperties{}, err
	}
	// client authentication is optional
	if config.TLSCACerts != "" {
		if props.ClientCACerts, err = readPEM("CHAINCODE_TLS_CA_CERTS", config.TLSCACerts); err != nil {
			return shim.TLSProperties{}, err
		}
	}
	return props, nil
}

func readPEM(env, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.Errorf("%s must be set when TLS is enabled", env)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading %s [%s]", env, path)
	}
	return raw, nil
}

func main() {
	config := configFromEnv(os.Getenv)
	logging.Init(logging.Config{Spec: config.LogLevel, Format: config.LogFormat})

	if config.CCID == "" || config.CCaddress == "" {
		fmt.Println("CC ID or CC address is empty... Running as usual...")
		if err := shim.Start(&tcc.TokenChaincode{}); err != nil {
			fmt.Fprintf(os.Stderr, "Exiting chaincode: %s", err)
			os.Exit(2)
		}
		return
	}

	fmt.Println("Token Chaincode CCID : " + config.CCID)
	fmt.Println("Token Chaincode address : " + config.CCaddress)
	tlsProps, err := tlsProperties(config)
	assertNoError(err, "invalid TLS configuration")
	fmt.Printf("Running Token Chaincode as service (TLS enabled: %t)...\n", !tlsProps.Disabled)

	server := &shim.ChaincodeServer{
		CCID:     config.CCID,
		Address:  config.CCaddress,
		CC:       &tcc.TokenChaincode{},
		TLSProps: tlsProps,
	}
	assertNoError(server.Start(), "error starting Token Chaincode")
}

func assertNoError(err error, s string, args ...interface{}) {
	if err != nil {
		panic(fmt.Sprintf("%s: %s", fmt.Sprintf(s, args...), err))
	}
}
