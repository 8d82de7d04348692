/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tcc

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
	pb "github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/logging"
	"github.com/prsb/token-gateway/token/token"
)

var logger = logging.MustGetLogger("tcc")

const (
	InitLedgerFunction              = "initLedger"
	CreateTokenFunction             = "createToken"
	UpdateTokenVolumeFunction       = "updateTokenVolume"
	ChangeTokenOwnerFunction        = "changeTokenOwner"
	RetireTokenFunction             = "retireToken"
	TransferTokenFunction           = "transferToken"
	QueryTokenFunction              = "queryToken"
	QueryTokenByTxIDFunction        = "queryTokenByTxID"
	QueryAllTokensFunction          = "queryAllTokens"
	QueryTokenHistoryFunction       = "queryTokenHistory"
	QueryTokenHistoryByTxIDFunction = "queryTokenHistoryByTxID"

	// OwnerIndex indexes token keys by owner
	OwnerIndex = "owner~key"

	tokenTransferred = "Token Transferred"
)

// TokenChaincode keeps one token per key and the owner index over them
type TokenChaincode struct{}

func (cc *TokenChaincode) Init(shim.ChaincodeStubInterface) *pb.Response {
	return shim.Success(nil)
}

func (cc *TokenChaincode) Invoke(stub shim.ChaincodeStubInterface) (res *pb.Response) {
	txID := stub.GetTxID()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[%s] invoke triggered panic: %s\n%s", txID, r, string(debug.Stack()))
			res = shim.Error(fmt.Sprintf("failed responding [%s]", r))
			return
		}
		if res.Status == shim.OK {
			logger.Debugf("[%s] OK", txID)
		} else {
			logger.Errorf("[%s] %d: %s", txID, res.Status, res.Message)
		}
	}()

	f, args := stub.GetFunctionAndParameters()
	logger.Debugf("[%s] %s with %d args", txID, f, len(args))
	switch f {
	case InitLedgerFunction:
		return cc.InitLedger(stub)
	case CreateTokenFunction:
		return cc.CreateToken(stub, args)
	case UpdateTokenVolumeFunction:
		return cc.UpdateTokenVolume(stub, args)
	case ChangeTokenOwnerFunction:
		return cc.ChangeTokenOwner(stub, args)
	case RetireTokenFunction:
		return cc.RetireToken(stub, args)
	case TransferTokenFunction:
		return cc.TransferToken(stub, args)
	case QueryTokenFunction:
		return cc.QueryToken(stub, args)
	case QueryTokenByTxIDFunction:
		return cc.QueryTokenByTxID(stub, args)
	case QueryAllTokensFunction:
		return cc.QueryAllTokens(stub)
	case QueryTokenHistoryFunction:
		return cc.QueryTokenHistory(stub, args)
	case QueryTokenHistoryByTxIDFunction:
		return cc.QueryTokenHistoryByTxID(stub, args)
	default:
		return shim.Error(fmt.Sprintf("function [%s] not recognized", f))
	}
}

// InitLedger seeds the ledger with the sample tokens TOKEN0 to TOKEN3
func (cc *TokenChaincode) InitLedger(stub shim.ChaincodeStubInterface) *pb.Response {
	tokens := []token.Token{
		{Amount: 2.31, Owner: "PRSB-A", Source: "PRSB-A", ConversionRate: 0.6689},
		{Amount: 19.87, Owner: "PRSB-B", Source: "PRSB-B", ConversionRate: 0.6689},
		{Amount: 4.11, Owner: "PRSB-C", Source: "PRSB-C", ConversionRate: 0.6689},
		{Amount: 7.49, Owner: "PRSB-D", Source: "PRSB-D", ConversionRate: 0.6689},
	}
	for i := range tokens {
		key := "TOKEN" + strconv.Itoa(i)
		if err := putToken(stub, key, &tokens[i]); err != nil {
			return shim.Error(err.Error())
		}
		if err := indexOwner(stub, tokens[i].Owner, key); err != nil {
			return shim.Error(err.Error())
		}
	}
	return shim.Success(nil)
}

// CreateToken expects [key, amount, owner, source, conversion rate, past operation]
func (cc *TokenChaincode) CreateToken(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 6 {
		return shim.Error("Incorrect number of arguments. Expecting 6")
	}
	amount, err := token.ParseAmount(args[1])
	if err != nil {
		return shim.Error("Invalid amount: " + err.Error())
	}
	rate, err := token.ParseAmount(args[4])
	if err != nil {
		return shim.Error("Invalid conversion rate: " + err.Error())
	}
	existing, err := stub.GetState(args[0])
	if err != nil {
		return shim.Error("Failed to get asset: " + err.Error())
	}
	if existing != nil {
		return shim.Error("Asset already exists: " + args[0])
	}

	t := &token.Token{Amount: amount, Owner: args[2], Source: args[3], ConversionRate: rate, PastOperation: args[5]}
	if err := putToken(stub, args[0], t); err != nil {
		return shim.Error(err.Error())
	}
	if err := indexOwner(stub, t.Owner, args[0]); err != nil {
		return shim.Error(err.Error())
	}
	return envelope(&token.Envelope{Token: t, TxID: stub.GetTxID()})
}

// UpdateTokenVolume expects [key, volume, past operation] and overwrites the amount
func (cc *TokenChaincode) UpdateTokenVolume(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 3 {
		return shim.Error("Incorrect number of arguments. Expecting 3")
	}
	volume, err := token.ParseAmount(args[1])
	if err != nil {
		return shim.Error("Invalid volume: " + err.Error())
	}
	if volume < 0 {
		return shim.Error("Invalid volume: must not be negative")
	}
	t, err := getToken(stub, args[0])
	if err != nil {
		return shim.Error(err.Error())
	}
	t.Amount, t.PastOperation = volume, args[2]
	if err := putToken(stub, args[0], t); err != nil {
		return shim.Error(err.Error())
	}
	return envelope(&token.Envelope{Token: t, TxID: stub.GetTxID()})
}

// ChangeTokenOwner expects [key, new owner] and moves the owner index entry
func (cc *TokenChaincode) ChangeTokenOwner(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 2 {
		return shim.Error("Incorrect number of arguments. Expecting 2")
	}
	t, err := getToken(stub, args[0])
	if err != nil {
		return shim.Error(err.Error())
	}
	if err := unindexOwner(stub, t.Owner, args[0]); err != nil {
		return shim.Error(err.Error())
	}
	t.Owner = args[1]
	if err := putToken(stub, args[0], t); err != nil {
		return shim.Error(err.Error())
	}
	if err := indexOwner(stub, t.Owner, args[0]); err != nil {
		return shim.Error(err.Error())
	}
	return envelope(&token.Envelope{Token: t, TxID: stub.GetTxID()})
}

// RetireToken expects [key] and deletes the token
func (cc *TokenChaincode) RetireToken(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 1 {
		return shim.Error("Incorrect number of arguments. Expecting 1")
	}
	raw, err := stub.GetState(args[0])
	if err != nil {
		return shim.Error("Failed to get token: " + err.Error())
	}
	if raw != nil {
		t := &token.Token{}
		if err := json.Unmarshal(raw, t); err == nil {
			if err := unindexOwner(stub, t.Owner, args[0]); err != nil {
				return shim.Error(err.Error())
			}
		}
	}
	if err := stub.DelState(args[0]); err != nil {
		return shim.Error(fmt.Sprintf("Failed to retire token with ID %s: %s", args[0], err))
	}
	return envelope(&token.Envelope{TokenID: args[0], TxID: stub.GetTxID()})
}

// TransferToken expects [from, to, amount] and moves amount between the two tokens in a single transaction
func (cc *TokenChaincode) TransferToken(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 3 {
		return shim.Error("Incorrect number of arguments. Expecting 3")
	}
	if args[0] == args[1] {
		return shim.Error("Cannot transfer to the same token")
	}
	amount, err := token.ParseAmount(args[2])
	if err != nil {
		return shim.Error("Invalid amount: " + err.Error())
	}
	if amount <= 0 {
		return shim.Error("Invalid amount: must be positive")
	}
	from, err := getToken(stub, args[0])
	if err != nil {
		return shim.Error(err.Error())
	}
	to, err := getToken(stub, args[1])
	if err != nil {
		return shim.Error(err.Error())
	}
	if from.Amount < amount {
		return shim.Error(fmt.Sprintf("%s does not have enough tokens for the transfer!", args[0]))
	}
	from.Amount, from.PastOperation = from.Amount-amount, tokenTransferred
	to.Amount, to.PastOperation = to.Amount+amount, tokenTransferred
	if err := putToken(stub, args[0], from); err != nil {
		return shim.Error(err.Error())
	}
	if err := putToken(stub, args[1], to); err != nil {
		return shim.Error(err.Error())
	}
	return envelope(&token.Envelope{Token: to, TxID: stub.GetTxID()})
}

func getToken(stub shim.ChaincodeStubInterface, key string) (*token.Token, error) {
	raw, err := stub.GetState(key)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get token %s", key)
	}
	if raw == nil {
		return nil, errors.Errorf("Token with key %s does not exist", key)
	}
	t := &token.Token{}
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal token %s", key)
	}
	return t, nil
}

func putToken(stub shim.ChaincodeStubInterface, key string, t *token.Token) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal token %s", key)
	}
	if err := stub.PutState(key, raw); err != nil {
		return errors.Wrapf(err, "Failed to put token %s", key)
	}
	return nil
}

func indexOwner(stub shim.ChaincodeStubInterface, owner, key string) error {
	k, err := stub.CreateCompositeKey(OwnerIndex, []string{owner, key})
	if err != nil {
		return errors.Wrap(err, "Failed to create composite key")
	}
	if err := stub.PutState(k, []byte{0x00}); err != nil {
		return errors.Wrap(err, "Failed to put index")
	}
	return nil
}

func unindexOwner(stub shim.ChaincodeStubInterface, owner, key string) error {
	k, err := stub.CreateCompositeKey(OwnerIndex, []string{owner, key})
	if err != nil {
		return errors.Wrap(err, "Failed to create composite key")
	}
	if err := stub.DelState(k); err != nil {
		return errors.Wrap(err, "Failed to delete index")
	}
	return nil
}

func envelope(env interface{}) *pb.Response {
	raw, err := json.Marshal(env)
	if err != nil {
		return shim.Error("Failed to marshal response payload: " + err.Error())
	}
	return shim.Success(raw)
}
