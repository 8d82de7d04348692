/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	claimsKey    = "claims"
	bearerPrefix = "Bearer "
)

// Claims identify the caller: the wallet label and the organization it is enrolled with
type Claims struct {
	Username string `json:"username"`
	OrgName  string `json:"orgName"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for username of org, valid for expiry
func IssueToken(secret []byte, username, org string, expiry time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret must be set")
	}
	now := time.Now()
	claims := &Claims{
		Username: username,
		OrgName:  org,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies an HS256 token and returns its claims
func ParseToken(secret []byte, raw string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("invalid token: jwt secret must be set")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	if len(claims.Username) == 0 || len(claims.OrgName) == 0 {
		return nil, errors.New("invalid token: username and orgName claims must be set")
	}
	return claims, nil
}

func authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			abort(c, http.StatusUnauthorized, "Unauthorized", "Send Bearer Token in Authorization header", false)
			return
		}
		claims, err := ParseToken(secret, strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			logger.Debugf("rejecting request [%s]: %s", requestID(c), err)
			abort(c, http.StatusUnauthorized, "Unauthorized", "Failed to authenticate token", false)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsOf(c *gin.Context) *Claims {
	return c.MustGet(claimsKey).(*Claims)
}
