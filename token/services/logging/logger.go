/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"regexp"
	"slices"
	"strings"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"go.uber.org/zap/zapcore"
)

const (
	loggerNameSeparator = "."
	rootLoggerName      = "tokengw"
)

// Logger provides logging API
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Panic(args ...interface{})
	Panicf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	IsEnabledFor(level zapcore.Level) bool
}

// MustGetLogger returns a logger named after the given parts, rooted at tokengw.
func MustGetLogger(parts ...string) Logger {
	return flogging.MustGetLogger(loggerName(append([]string{rootLoggerName}, parts...)...))
}

// InvocationLogger returns a logger scoped to a channel and chaincode.
// Characters flogging rejects in logger names are replaced with underscores.
func InvocationLogger(prefix string, channel string, chaincode string) Logger {
	return flogging.MustGetLogger(loggerName(rootLoggerName, prefix, segment(channel), segment(chaincode)))
}

var invalidSegmentChars = regexp.MustCompile(`[^[:alnum:]_-]`)

func segment(s string) string {
	return invalidSegmentChars.ReplaceAllString(s, "_")
}

func isEmptyString(s string) bool { return len(s) == 0 }

func loggerName(parts ...string) string {
	return strings.Join(slices.DeleteFunc(parts, isEmptyString), loggerNameSeparator)
}
