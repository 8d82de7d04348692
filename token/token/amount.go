/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package token

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseAmount parses a decimal amount and rejects NaN and infinities
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount [%s]", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("invalid amount [%s], must be finite", s)
	}
	return v, nil
}

// FormatAmount renders an amount in the shortest decimal form, without exponent
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
