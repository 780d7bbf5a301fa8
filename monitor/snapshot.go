/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	liberr "github.com/sabouaram/coord/errors"

	"github.com/sabouaram/coord/session"
)

// Snapshot is the shape written to status.json. It intentionally carries
// none of a full health-check engine's transition history or per-probe
// metrics, only what an external supervisor needs to poll.
type Snapshot struct {
	Health            string `json:"health"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	ActiveSessions    int    `json:"active_sessions"`
	CompletedSessions int    `json:"completed_sessions"`
}

// Collector produces Snapshot values for one daemon instance.
type Collector struct {
	mgr      *session.Manager
	start    time.Time
	draining int32
}

// NewCollector returns a Collector reporting counts from mgr.
func NewCollector(mgr *session.Manager) *Collector {
	return &Collector{mgr: mgr, start: time.Now()}
}

// Drain marks the collector as shutting down; subsequent snapshots report
// Warn while sessions are still active and KO once none remain.
func (c *Collector) Drain() {
	atomic.StoreInt32(&c.draining, 1)
}

func (c *Collector) isDraining() bool {
	return atomic.LoadInt32(&c.draining) != 0
}

// Snapshot returns the current health, uptime and session counts.
func (c *Collector) Snapshot() Snapshot {
	active, completed := c.mgr.Counts()

	h := OK
	if c.isDraining() {
		if active > 0 {
			h = Warn
		} else {
			h = KO
		}
	}

	return Snapshot{
		Health:            h.String(),
		UptimeSeconds:     int64(time.Since(c.start).Seconds()),
		ActiveSessions:    active,
		CompletedSessions: completed,
	}
}

// WriteFile marshals the current snapshot as JSON and writes it atomically
// to path via a temp-file-plus-rename in the same directory.
func (c *Collector) WriteFile(path string) liberr.Error {
	b, jerr := json.Marshal(c.Snapshot())
	if jerr != nil {
		return ErrorMarshal.Error(jerr)
	}

	dir := filepath.Dir(path)
	tmp, terr := os.CreateTemp(dir, ".status-*.json")
	if terr != nil {
		return ErrorWrite.Error(terr)
	}
	tmpName := tmp.Name()

	if _, werr := tmp.Write(b); werr != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return ErrorWrite.Error(werr)
	}
	if cerr := tmp.Close(); cerr != nil {
		_ = os.Remove(tmpName)
		return ErrorWrite.Error(cerr)
	}

	if rerr := os.Rename(tmpName, path); rerr != nil {
		_ = os.Remove(tmpName)
		return ErrorWrite.Error(rerr)
	}

	return nil
}
