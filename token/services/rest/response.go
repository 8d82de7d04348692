/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-uuid"
	"github.com/pkg/errors"
	"github.com/prsb/token-gateway/token/services/invoker"
)

const (
	requestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// Response is the envelope of every API answer
type Response struct {
	Result    interface{} `json:"result"`
	Error     *Error      `json:"error"`
	ErrorData interface{} `json:"errorData"`
}

// Error tells the client whether retrying can help
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id"`
}

var statusByKind = map[invoker.Kind]int{
	invoker.InvalidOperation:   http.StatusBadRequest,
	invoker.PreconditionFailed: http.StatusConflict,
	invoker.IdentityNotFound:   http.StatusUnauthorized,
	invoker.LedgerFailure:      http.StatusBadGateway,
}

// StatusOf returns the HTTP status reported for an invocation error
func StatusOf(err error) int {
	if status, ok := statusByKind[invoker.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func withRequestID(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if len(id) == 0 {
		var err error
		if id, err = uuid.GenerateUUID(); err != nil {
			logger.Warnf("failed generating request id: %s", err)
		}
	}
	c.Set(requestIDKey, id)
	c.Header(RequestIDHeader, id)
	c.Next()
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func ok(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, &Response{Result: result})
}

func fail(c *gin.Context, err error) {
	res := &Response{
		Error: &Error{
			Code:      invoker.KindOf(err).String(),
			Message:   err.Error(),
			Retryable: invoker.IsRetryable(err),
			RequestID: requestID(c),
		},
	}
	var e *invoker.Error
	if errors.As(err, &e) && len(e.Function) != 0 {
		res.ErrorData = gin.H{"function": e.Function}
	}
	c.JSON(StatusOf(err), res)
}

func abort(c *gin.Context, status int, code, message string, retryable bool) {
	c.AbortWithStatusJSON(status, &Response{
		Error: &Error{
			Code:      code,
			Message:   message,
			Retryable: retryable,
			RequestID: requestID(c),
		},
	})
}
