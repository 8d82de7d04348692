/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prsb/token-gateway/token/services/invoker"
	"github.com/prsb/token-gateway/token/services/storage/journal"
)

type handlers struct {
	invoker Invoker
	journal JournalReader
}

type invokeRequest struct {
	Fcn  string   `json:"fcn" binding:"required"`
	Args []string `json:"args"`
}

func (h *handlers) invoke(c *gin.Context) {
	req := &invokeRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, http.StatusBadRequest, invoker.InvalidOperation.String(), "invalid request body: "+err.Error(), false)
		return
	}
	claims := claimsOf(c)
	logger.Debugf("[%s] invoke %s %v as [%s@%s]", requestID(c), req.Fcn, req.Args, claims.Username, claims.OrgName)

	res, err := h.invoker.InvokeFunction(c.Request.Context(), c.Param("channel"), c.Param("chaincode"), req.Fcn, req.Args, claims.Username, claims.OrgName)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

func (h *handlers) query(c *gin.Context) {
	fcn := c.Query("fcn")
	args, err := queryArgs(c)
	if len(fcn) == 0 || err != nil {
		abort(c, http.StatusBadRequest, invoker.InvalidOperation.String(), "query requires fcn and args as a JSON array", false)
		return
	}
	claims := claimsOf(c)
	res, err := h.invoker.Query(c.Request.Context(), invoker.QueryRequest{
		Channel:   c.Param("channel"),
		Chaincode: c.Param("chaincode"),
		Username:  claims.Username,
		Org:       claims.OrgName,
		Function:  fcn,
		Args:      args,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if !res.Found {
		c.JSON(http.StatusNotFound, &Response{
			Error: &Error{Code: "NotFound", Message: fcn + " returned no value", RequestID: requestID(c)},
		})
		return
	}
	ok(c, res)
}

// queryArgs accepts args either as a JSON array, single quotes allowed, or as repeated parameters
func queryArgs(c *gin.Context) ([]string, error) {
	values := c.QueryArray("args")
	if len(values) != 1 || !strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		return values, nil
	}
	var args []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(values[0], "'", `"`)), &args); err != nil {
		return nil, err
	}
	return args, nil
}

func (h *handlers) invocations(c *gin.Context) {
	if h.journal == nil {
		abort(c, http.StatusNotFound, "JournalDisabled", "the invocation journal is not enabled", false)
		return
	}
	// callers only see the invocations of their own organization
	f := journal.Filter{
		Org:      claimsOf(c).OrgName,
		Function: c.Query("function"),
		Outcome:  journal.Outcome(c.Query("outcome")),
		Username: c.Query("username"),
	}
	if limit := c.Query("limit"); len(limit) != 0 {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, invoker.InvalidOperation.String(), "limit must be a non-negative integer", false)
			return
		}
		f.Limit = n
	}
	entries, err := h.journal.Query(c.Request.Context(), f)
	if err != nil {
		logger.Errorf("[%s] failed querying the journal: %s", requestID(c), err)
		abort(c, http.StatusInternalServerError, "JournalFailure", "failed querying the journal", true)
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	ok(c, entries)
}
