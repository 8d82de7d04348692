/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tcc_test

import (
	"sort"
	"strings"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/v2/shim"
	"github.com/hyperledger/fabric-protos-go-apiv2/ledger/queryresult"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const compositeKeyNamespace = "\x00"

// fakeStub keeps the world state and the key history in memory.
// Methods the chaincode does not use panic through the nil embedded interface.
type fakeStub struct {
	shim.ChaincodeStubInterface

	args    []string
	txID    string
	clock   time.Time
	state   map[string][]byte
	history map[string][]*queryresult.KeyModification
	putErr  error
}

func newFakeStub() *fakeStub {
	return &fakeStub{
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		state:   map[string][]byte{},
		history: map[string][]*queryresult.KeyModification{},
	}
}

func (s *fakeStub) GetFunctionAndParameters() (string, []string) {
	if len(s.args) == 0 {
		return "", nil
	}
	return s.args[0], s.args[1:]
}

func (s *fakeStub) GetTxID() string { return s.txID }

func (s *fakeStub) GetState(key string) ([]byte, error) {
	return s.state[key], nil
}

func (s *fakeStub) PutState(key string, value []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.state[key] = value
	s.record(key, value, false)
	return nil
}

func (s *fakeStub) DelState(key string) error {
	delete(s.state, key)
	s.record(key, nil, true)
	return nil
}

func (s *fakeStub) record(key string, value []byte, isDelete bool) {
	s.clock = s.clock.Add(time.Second)
	s.history[key] = append(s.history[key], &queryresult.KeyModification{
		TxId:      s.txID,
		Value:     value,
		Timestamp: timestamppb.New(s.clock),
		IsDelete:  isDelete,
	})
}

func (s *fakeStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	if len(objectType) == 0 {
		return "", errors.New("object type must be set")
	}
	return compositeKeyNamespace + objectType + compositeKeyNamespace + strings.Join(attributes, compositeKeyNamespace) + compositeKeyNamespace, nil
}

func (s *fakeStub) GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	var keys []string
	for k := range s.state {
		if strings.HasPrefix(k, compositeKeyNamespace) {
			continue
		}
		if (startKey == "" || k >= startKey) && (endKey == "" || k < endKey) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	kvs := make([]*queryresult.KV, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, &queryresult.KV{Key: k, Value: s.state[k]})
	}
	return &stateIterator{kvs: kvs}, nil
}

func (s *fakeStub) GetHistoryForKey(key string) (shim.HistoryQueryIteratorInterface, error) {
	return &historyIterator{mods: s.history[key]}, nil
}

type stateIterator struct {
	kvs []*queryresult.KV
}

func (i *stateIterator) HasNext() bool { return len(i.kvs) > 0 }
func (i *stateIterator) Close() error  { return nil }
func (i *stateIterator) Next() (*queryresult.KV, error) {
	kv := i.kvs[0]
	i.kvs = i.kvs[1:]
	return kv, nil
}

type historyIterator struct {
	mods []*queryresult.KeyModification
}

func (i *historyIterator) HasNext() bool { return len(i.mods) > 0 }
func (i *historyIterator) Close() error  { return nil }
func (i *historyIterator) Next() (*queryresult.KeyModification, error) {
	m := i.mods[0]
	i.mods = i.mods[1:]
	return m, nil
}
