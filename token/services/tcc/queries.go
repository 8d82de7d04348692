/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tcc

import (
	"encoding/json"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
	pb "github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/prsb/token-gateway/token/token"
)

// QueryToken returns the raw token under args[0], an empty payload when absent
func (cc *TokenChaincode) QueryToken(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 1 {
		return shim.Error("Incorrect number of arguments. Expecting 1")
	}
	raw, err := stub.GetState(args[0])
	if err != nil {
		return shim.Error("Failed to get token: " + err.Error())
	}
	return shim.Success(raw)
}

// QueryTokenByTxID expects [key, txID] and returns the token as written by that transaction.
// The payload is empty when the transaction did not touch the key.
func (cc *TokenChaincode) QueryTokenByTxID(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 2 {
		return shim.Error("Incorrect number of arguments. Expecting 2")
	}
	it, err := stub.GetHistoryForKey(args[0])
	if err != nil {
		return shim.Error("Failed to get transaction history: " + err.Error())
	}
	defer func() { _ = it.Close() }()

	for it.HasNext() {
		m, err := it.Next()
		if err != nil {
			return shim.Error("Failed to get next transaction: " + err.Error())
		}
		if m.TxId != args[1] {
			continue
		}
		if m.IsDelete {
			return envelope(&token.Envelope{TokenID: args[0], TxID: m.TxId})
		}
		t := &token.Token{}
		if err := json.Unmarshal(m.Value, t); err != nil {
			return shim.Error("Failed to unmarshal transaction value to Token: " + err.Error())
		}
		return envelope(&token.Envelope{Token: t, TxID: m.TxId})
	}
	return shim.Success(nil)
}

// QueryAllTokens returns every token as a list of key/record pairs, index entries excluded
func (cc *TokenChaincode) QueryAllTokens(stub shim.ChaincodeStubInterface) *pb.Response {
	it, err := stub.GetStateByRange("", "")
	if err != nil {
		return shim.Error(err.Error())
	}
	defer func() { _ = it.Close() }()

	records := []token.Record{}
	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return shim.Error(err.Error())
		}
		t := &token.Token{}
		if err := json.Unmarshal(kv.Value, t); err != nil {
			return shim.Error("Failed to unmarshal token " + kv.Key + ": " + err.Error())
		}
		records = append(records, token.Record{Key: kv.Key, Record: t})
	}
	logger.Debugf("queryAllTokens returning %d records", len(records))
	return envelope(records)
}

// QueryTokenHistory returns every modification of the token under args[0], oldest first
func (cc *TokenChaincode) QueryTokenHistory(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) < 1 {
		return shim.Error("Incorrect number of arguments. Expecting 1")
	}
	it, err := stub.GetHistoryForKey(args[0])
	if err != nil {
		return shim.Error(err.Error())
	}
	defer func() { _ = it.Close() }()

	history := []token.HistoryEntry{}
	for it.HasNext() {
		m, err := it.Next()
		if err != nil {
			return shim.Error(err.Error())
		}
		entry := token.HistoryEntry{TxID: m.TxId, IsDelete: m.IsDelete}
		if ts := m.GetTimestamp(); ts != nil {
			entry.Timestamp = ts.AsTime().UTC().Format(time.RFC3339Nano)
		}
		if !m.IsDelete {
			entry.Value = &token.Token{}
			if err := json.Unmarshal(m.Value, entry.Value); err != nil {
				return shim.Error("Failed to unmarshal history value: " + err.Error())
			}
		}
		history = append(history, entry)
	}
	return envelope(history)
}

// QueryTokenHistoryByTxID returns the successive values of the token under args[0], deletions skipped
func (cc *TokenChaincode) QueryTokenHistoryByTxID(stub shim.ChaincodeStubInterface, args []string) *pb.Response {
	if len(args) != 1 {
		return shim.Error("Incorrect number of arguments. Expecting 1")
	}
	it, err := stub.GetHistoryForKey(args[0])
	if err != nil {
		return shim.Error("Failed to get history for asset: " + err.Error())
	}
	defer func() { _ = it.Close() }()

	history := []token.Token{}
	for it.HasNext() {
		m, err := it.Next()
		if err != nil {
			return shim.Error("Failed to get next history entry: " + err.Error())
		}
		if m.IsDelete {
			continue
		}
		var t token.Token
		if err := json.Unmarshal(m.Value, &t); err != nil {
			return shim.Error("Failed to unmarshal transaction value: " + err.Error())
		}
		history = append(history, t)
	}
	return envelope(history)
}
