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

package viper

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	liblog "github.com/sabouaram/coord/logger"
	loglvl "github.com/sabouaram/coord/logger/level"
	spfvpr "github.com/spf13/viper"
)

type vpr struct {
	mu  sync.RWMutex
	ctx context.Context
	log liblog.FuncLog
	vpr *spfvpr.Viper

	homeBaseName string
	envPrefix    string
	defaultCfg   func() io.Reader

	remoteProvider  string
	remoteEndpoint  string
	remotePath      string
	remoteSecureKey string
	remoteReload    func()
}

func (v *vpr) Viper() *spfvpr.Viper {
	return v.vpr
}

func (v *vpr) SetHomeBaseName(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.homeBaseName = name
}

func (v *vpr) SetEnvVarsPrefix(prefix string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.envPrefix = prefix
}

func (v *vpr) SetDefaultConfig(fct func() io.Reader) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.defaultCfg = fct
}

func (v *vpr) SetRemoteProvider(provider string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remoteProvider = provider
}

func (v *vpr) SetRemoteEndpoint(endpoint string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remoteEndpoint = endpoint
}

func (v *vpr) SetRemotePath(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remotePath = path
}

func (v *vpr) SetRemoteSecureKey(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remoteSecureKey = key
}

func (v *vpr) SetRemoteModel(model interface{}) {
	// The remote-provider codec is configured on first Config call; the
	// model is only meaningful for providers this module does not wire.
}

func (v *vpr) SetRemoteReloadFunc(fct func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remoteReload = fct
}

// SetConfigFile points viper at path. An empty path falls back to
// "<home>/.<basename>[.<ext>]" using the configured home base name, adding
// the env prefix as an additional config search convenience.
func (v *vpr) SetConfigFile(path string) error {
	v.mu.RLock()
	base := v.homeBaseName
	prefix := v.envPrefix
	v.mu.RUnlock()

	if path != "" {
		v.vpr.SetConfigFile(path)
		return nil
	}

	if base == "" {
		return ErrorBasePathNotFound.Error(nil)
	}

	home, herr := os.UserHomeDir()
	if herr != nil {
		return ErrorHomePathNotFound.Error(herr)
	}

	v.vpr.SetConfigName("." + base)
	v.vpr.AddConfigPath(home)
	v.vpr.AddConfigPath(".")

	if prefix != "" {
		v.vpr.SetEnvPrefix(prefix)
	}
	v.vpr.AutomaticEnv()

	return nil
}

// Config reads the configured file into viper, falling back to the default
// config reader when the file cannot be read, and logs the outcome.
func (v *vpr) Config(onSuccess, onError loglvl.Level) error {
	err := v.vpr.ReadInConfig()
	if err == nil {
		v.logEntry(onSuccess, "config read from "+v.vpr.ConfigFileUsed())
		return nil
	}

	v.mu.RLock()
	def := v.defaultCfg
	v.mu.RUnlock()

	cfgErr := ErrorConfigRead.Error(err)

	if def == nil {
		v.logEntry(onError, cfgErr.Error())
		return cfgErr
	}

	if merr := v.vpr.MergeConfig(def()); merr != nil {
		derr := ErrorConfigReadDefault.Error(merr)
		v.logEntry(onError, derr.Error())
		return derr
	}

	derr := ErrorConfigIsDefault.Error(err)
	v.logEntry(onError, derr.Error())
	return derr
}

func (v *vpr) logEntry(lvl loglvl.Level, msg string) {
	if v.log == nil {
		return
	}
	l := v.log()
	if l == nil {
		return
	}
	l.Entry(lvl, msg).Log()
}

func (v *vpr) GetBool(key string) bool     { return v.vpr.GetBool(key) }
func (v *vpr) GetString(key string) string { return v.vpr.GetString(key) }
func (v *vpr) GetInt(key string) int       { return v.vpr.GetInt(key) }
func (v *vpr) GetInt32(key string) int32   { return v.vpr.GetInt32(key) }
func (v *vpr) GetInt64(key string) int64   { return v.vpr.GetInt64(key) }
func (v *vpr) GetUint(key string) uint     { return v.vpr.GetUint(key) }
func (v *vpr) GetUint16(key string) uint16 { return v.vpr.GetUint16(key) }
func (v *vpr) GetUint32(key string) uint32 { return v.vpr.GetUint32(key) }
func (v *vpr) GetUint64(key string) uint64 { return v.vpr.GetUint64(key) }
func (v *vpr) GetFloat64(key string) float64 {
	return v.vpr.GetFloat64(key)
}
func (v *vpr) GetDuration(key string) time.Duration { return v.vpr.GetDuration(key) }
func (v *vpr) GetTime(key string) time.Time         { return v.vpr.GetTime(key) }
func (v *vpr) GetIntSlice(key string) []int         { return v.vpr.GetIntSlice(key) }
func (v *vpr) GetStringSlice(key string) []string   { return v.vpr.GetStringSlice(key) }
func (v *vpr) GetStringMap(key string) map[string]interface{} {
	return v.vpr.GetStringMap(key)
}
func (v *vpr) GetStringMapString(key string) map[string]string {
	return v.vpr.GetStringMapString(key)
}
func (v *vpr) GetStringMapStringSlice(key string) map[string][]string {
	return v.vpr.GetStringMapStringSlice(key)
}

func (v *vpr) Unmarshal(out interface{}) error {
	return v.vpr.Unmarshal(out)
}

func (v *vpr) UnmarshalKey(key string, out interface{}) error {
	if !v.vpr.IsSet(key) {
		return ErrorParamMissing.Error(nil)
	}
	return v.vpr.UnmarshalKey(key, out)
}

func (v *vpr) UnmarshalExact(out interface{}) error {
	return v.vpr.UnmarshalExact(out)
}
