/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package viper wraps spf13/viper with the context/logger conventions used
// across this module, so cobra commands and daemons can load layered
// config (flags, env, file) behind one small interface.
package viper

import (
	"context"
	"io"
	"time"

	liblog "github.com/sabouaram/coord/logger"
	loglvl "github.com/sabouaram/coord/logger/level"
	spfvpr "github.com/spf13/viper"
)

// Viper exposes the subset of spf13/viper's behavior this module relies on,
// plus the home/base-name and default-config conveniences a daemon uses to
// locate a config file when none is given explicitly.
type Viper interface {
	// Viper returns the underlying spf13/viper instance for direct access.
	Viper() *spfvpr.Viper

	SetHomeBaseName(name string)
	SetEnvVarsPrefix(prefix string)
	SetDefaultConfig(fct func() io.Reader)

	SetRemoteProvider(provider string)
	SetRemoteEndpoint(endpoint string)
	SetRemotePath(path string)
	SetRemoteSecureKey(key string)
	SetRemoteModel(model interface{})
	SetRemoteReloadFunc(fct func())

	// SetConfigFile registers the explicit config file to use. An empty
	// path falls back to "<home>/.<basename>" when a base name was set.
	SetConfigFile(path string) error

	// Config loads the configured file (or the default config when the
	// file is missing or invalid) into the underlying viper instance,
	// logging the outcome at the given levels.
	Config(onSuccess, onError loglvl.Level) error

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	GetTime(key string) time.Time
	GetIntSlice(key string) []int
	GetStringSlice(key string) []string
	GetStringMap(key string) map[string]interface{}
	GetStringMapString(key string) map[string]string
	GetStringMapStringSlice(key string) map[string][]string

	Unmarshal(out interface{}) error
	UnmarshalKey(key string, out interface{}) error
	UnmarshalExact(out interface{}) error
}

// New returns a Viper bound to ctx, logging through log when non-nil.
func New(ctx context.Context, log liblog.FuncLog) Viper {
	if log == nil {
		log = func() liblog.Logger {
			return liblog.New(ctx)
		}
	}

	return &vpr{
		ctx: ctx,
		log: log,
		vpr: spfvpr.New(),
	}
}
