/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tcc_test

import (
	"encoding/json"

	pb "github.com/hyperledger/fabric-protos-go-apiv2/peer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/tcc"
	"github.com/prsb/token-gateway/token/token"
)

var _ = Describe("TokenChaincode", func() {
	var (
		stub      *fakeStub
		chaincode *tcc.TokenChaincode
	)

	invoke := func(txID string, args ...string) *pb.Response {
		stub.txID = txID
		stub.args = args
		return chaincode.Invoke(stub)
	}
	decodeEnvelope := func(res *pb.Response) *token.Envelope {
		Expect(res.Status).To(Equal(int32(200)), res.Message)
		env := &token.Envelope{}
		Expect(json.Unmarshal(res.Payload, env)).To(Succeed())
		return env
	}
	queryToken := func(key string) *token.Token {
		res := invoke("q", tcc.QueryTokenFunction, key)
		Expect(res.Status).To(Equal(int32(200)))
		if len(res.Payload) == 0 {
			return nil
		}
		t := &token.Token{}
		Expect(json.Unmarshal(res.Payload, t)).To(Succeed())
		return t
	}

	BeforeEach(func() {
		stub = newFakeStub()
		chaincode = &tcc.TokenChaincode{}
	})

	Describe("Init", func() {
		It("succeeds", func() {
			response := chaincode.Init(stub)
			Expect(response).NotTo(BeNil())
			Expect(response.Status).To(Equal(int32(200)))
		})
	})

	Describe("Invoke", func() {
		It("rejects unknown functions", func() {
			res := invoke("tx1", "mint", "k")
			Expect(res.Status).To(Equal(int32(500)))
			Expect(res.Message).To(Equal("function [mint] not recognized"))
		})

		It("turns panics into errors", func() {
			stub.args = []string{tcc.CreateTokenFunction, "k", "1", "o", "s", "1", "Token Created"}
			stub.state = nil
			res := chaincode.Invoke(stub)
			Expect(res.Status).To(Equal(int32(500)))
			Expect(res.Message).To(ContainSubstring("failed responding"))
		})
	})

	Describe("initLedger", func() {
		It("seeds the sample tokens", func() {
			Expect(invoke("tx1", tcc.InitLedgerFunction).Status).To(Equal(int32(200)))
			Expect(queryToken("TOKEN1")).To(Equal(&token.Token{Amount: 19.87, Owner: "PRSB-B", Source: "PRSB-B", ConversionRate: 0.6689}))

			res := invoke("q", tcc.QueryAllTokensFunction)
			Expect(res.Status).To(Equal(int32(200)))
			var records []token.Record
			Expect(json.Unmarshal(res.Payload, &records)).To(Succeed())
			Expect(records).To(HaveLen(4))
			Expect(records[0].Key).To(Equal("TOKEN0"))
			Expect(records[3].Record.Owner).To(Equal("PRSB-D"))
		})
	})

	Describe("createToken", func() {
		It("writes the token and returns it with the transaction id", func() {
			env := decodeEnvelope(invoke("tx1", tcc.CreateTokenFunction, "alice", "50", "Alice", "PRSB-A", "0.6689", "Token Created"))
			Expect(env.TxID).To(Equal("tx1"))
			Expect(env.Token).To(Equal(&token.Token{Amount: 50, Owner: "Alice", Source: "PRSB-A", ConversionRate: 0.6689, PastOperation: "Token Created"}))
			Expect(queryToken("alice")).To(Equal(env.Token))

			index, err := stub.CreateCompositeKey(tcc.OwnerIndex, []string{"Alice", "alice"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stub.state).To(HaveKeyWithValue(index, []byte{0x00}))
		})

		It("rejects duplicates", func() {
			decodeEnvelope(invoke("tx1", tcc.CreateTokenFunction, "alice", "50", "Alice", "PRSB-A", "1", "Token Created"))
			res := invoke("tx2", tcc.CreateTokenFunction, "alice", "5", "Alice", "PRSB-A", "1", "Token Created")
			Expect(res.Status).To(Equal(int32(500)))
			Expect(res.Message).To(Equal("Asset already exists: alice"))
		})

		It("checks its arguments", func() {
			Expect(invoke("tx1", tcc.CreateTokenFunction, "alice", "50").Message).To(Equal("Incorrect number of arguments. Expecting 6"))
			Expect(invoke("tx1", tcc.CreateTokenFunction, "alice", "fifty", "A", "S", "1", "op").Message).To(HavePrefix("Invalid amount"))
			Expect(invoke("tx1", tcc.CreateTokenFunction, "alice", "1", "A", "S", "x", "op").Message).To(HavePrefix("Invalid conversion rate"))
		})

		It("reports write failures", func() {
			stub.putErr = errors.New("flying monkeys")
			res := invoke("tx1", tcc.CreateTokenFunction, "alice", "50", "Alice", "PRSB-A", "1", "Token Created")
			Expect(res.Status).To(Equal(int32(500)))
			Expect(res.Message).To(ContainSubstring("flying monkeys"))
		})
	})

	Context("with alice and bob", func() {
		BeforeEach(func() {
			decodeEnvelope(invoke("tx1", tcc.CreateTokenFunction, "alice", "50", "Alice", "PRSB-A", "1", "Token Created"))
			decodeEnvelope(invoke("tx2", tcc.CreateTokenFunction, "bob", "5", "Bob", "PRSB-B", "1", "Token Created"))
		})

		It("overwrites the volume", func() {
			env := decodeEnvelope(invoke("tx3", tcc.UpdateTokenVolumeFunction, "alice", "7", "Token Volume Updated"))
			Expect(env.Token.Amount).To(Equal(float64(7)))
			Expect(queryToken("alice").PastOperation).To(Equal("Token Volume Updated"))
		})

		It("does not update missing tokens", func() {
			res := invoke("tx3", tcc.UpdateTokenVolumeFunction, "carol", "7", "Token Volume Updated")
			Expect(res.Status).To(Equal(int32(500)))
			Expect(res.Message).To(Equal("Token with key carol does not exist"))
			Expect(queryToken("carol")).To(BeNil())

			res = invoke("tx3", tcc.ChangeTokenOwnerFunction, "carol", "Carol")
			Expect(res.Message).To(Equal("Token with key carol does not exist"))
		})

		It("changes the owner and moves the index", func() {
			env := decodeEnvelope(invoke("tx3", tcc.ChangeTokenOwnerFunction, "alice", "Carol"))
			Expect(env.Token.Owner).To(Equal("Carol"))

			oldIndex, _ := stub.CreateCompositeKey(tcc.OwnerIndex, []string{"Alice", "alice"})
			newIndex, _ := stub.CreateCompositeKey(tcc.OwnerIndex, []string{"Carol", "alice"})
			Expect(stub.state).NotTo(HaveKey(oldIndex))
			Expect(stub.state).To(HaveKey(newIndex))
		})

		It("retires a token", func() {
			env := decodeEnvelope(invoke("tx3", tcc.RetireTokenFunction, "bob"))
			Expect(env.TokenID).To(Equal("bob"))
			Expect(env.Token).To(BeNil())
			Expect(queryToken("bob")).To(BeNil())
		})

		It("transfers atomically", func() {
			env := decodeEnvelope(invoke("tx3", tcc.TransferTokenFunction, "alice", "bob", "10"))
			Expect(env.TxID).To(Equal("tx3"))
			Expect(env.Token.Amount).To(Equal(float64(15)))
			Expect(queryToken("alice").Amount).To(Equal(float64(40)))
			Expect(queryToken("bob").PastOperation).To(Equal("Token Transferred"))
		})

		It("refuses transfers above the balance", func() {
			res := invoke("tx3", tcc.TransferTokenFunction, "bob", "alice", "10")
			Expect(res.Status).To(Equal(int32(500)))
			Expect(res.Message).To(Equal("bob does not have enough tokens for the transfer!"))
			Expect(queryToken("bob").Amount).To(Equal(float64(5)))

			Expect(invoke("tx3", tcc.TransferTokenFunction, "alice", "alice", "1").Message).To(Equal("Cannot transfer to the same token"))
			Expect(invoke("tx3", tcc.TransferTokenFunction, "alice", "carol", "1").Message).To(Equal("Token with key carol does not exist"))
			Expect(invoke("tx3", tcc.TransferTokenFunction, "alice", "bob", "-1").Message).To(Equal("Invalid amount: must be positive"))
		})

		It("lists tokens without the owner index", func() {
			res := invoke("q", tcc.QueryAllTokensFunction)
			var records []token.Record
			Expect(json.Unmarshal(res.Payload, &records)).To(Succeed())
			Expect(records).To(HaveLen(2))
			Expect(records[0].Key).To(Equal("alice"))
			Expect(records[1].Key).To(Equal("bob"))
		})

		Describe("history", func() {
			BeforeEach(func() {
				decodeEnvelope(invoke("tx3", tcc.UpdateTokenVolumeFunction, "alice", "30", "Token Transferred"))
				decodeEnvelope(invoke("tx4", tcc.RetireTokenFunction, "alice"))
			})

			It("returns every modification", func() {
				res := invoke("q", tcc.QueryTokenHistoryFunction, "alice")
				var history []token.HistoryEntry
				Expect(json.Unmarshal(res.Payload, &history)).To(Succeed())
				Expect(history).To(HaveLen(3))
				Expect(history[0].TxID).To(Equal("tx1"))
				Expect(history[1].Value.Amount).To(Equal(float64(30)))
				Expect(history[1].Timestamp).To(Equal("2024-01-01T00:00:05Z"))
				Expect(history[2].IsDelete).To(BeTrue())
				Expect(history[2].Value).To(BeNil())
			})

			It("returns the values, deletions skipped", func() {
				res := invoke("q", tcc.QueryTokenHistoryByTxIDFunction, "alice")
				var values []token.Token
				Expect(json.Unmarshal(res.Payload, &values)).To(Succeed())
				Expect(values).To(HaveLen(2))
				Expect(values[0].Amount).To(Equal(float64(50)))
				Expect(values[1].Amount).To(Equal(float64(30)))
			})

			It("finds the token written by a transaction", func() {
				env := decodeEnvelope(invoke("q", tcc.QueryTokenByTxIDFunction, "alice", "tx3"))
				Expect(env.TxID).To(Equal("tx3"))
				Expect(env.Token.Amount).To(Equal(float64(30)))

				env = decodeEnvelope(invoke("q", tcc.QueryTokenByTxIDFunction, "alice", "tx4"))
				Expect(env.TokenID).To(Equal("alice"))

				res := invoke("q", tcc.QueryTokenByTxIDFunction, "alice", "tx9")
				Expect(res.Status).To(Equal(int32(200)))
				Expect(res.Payload).To(BeEmpty())

				Expect(invoke("q", tcc.QueryTokenByTxIDFunction, "tx3").Message).To(Equal("Incorrect number of arguments. Expecting 2"))
			})
		})
	})
})
