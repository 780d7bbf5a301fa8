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

// Package executor runs a single session to completion: validate, prepare
// its directory, allocate ports, launch every node in order, reap exits,
// tear down, and assemble the final manifest. One Execute call is one
// bounded computation over one SessionSpec.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sabouaram/coord/portalloc"
	"github.com/sabouaram/coord/readiness"
	"github.com/sabouaram/coord/supervisor"
	"github.com/sabouaram/coord/wire"
)

const reapTick = 50 * time.Millisecond

const defaultBridge = "127.0.0.1"

// Executor runs sessions rooted at RootDir.
type Executor struct {
	RootDir string
}

// New returns an Executor rooted at rootDir.
func New(rootDir string) *Executor {
	return &Executor{RootDir: rootDir}
}

type instanceRecord struct {
	node          string
	index         uint32
	instance      *supervisor.Instance
	addr          string
	ports         []wire.PortAssignment
	startMs       uint64
	endMs         uint64
	exitCode      int32
	termSignal    int32
	failureReason string
}

func (r *instanceRecord) toInfo() wire.InstanceInfo {
	info := wire.InstanceInfo{
		Node:          r.node,
		Index:         r.index,
		Addr:          r.addr,
		Ports:         r.ports,
		StartMs:       r.startMs,
		EndMs:         r.endMs,
		ExitCode:      r.exitCode,
		TermSignal:    r.termSignal,
		FailureReason: r.failureReason,
	}
	if r.instance != nil {
		info.Pid = r.instance.Pid()
		info.LogPath = r.instance.LogPath
		info.ErrPath = r.instance.ErrPath
	}
	return info
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}

// Execute runs spec to completion and returns its manifest. It never
// returns an error directly: every failure mode is folded into the
// manifest's Result/FailReason/per-instance FailureReason fields.
func (e *Executor) Execute(ctx context.Context, spec wire.SessionSpec) wire.SessionManifest {
	start := time.Now()

	manifest := wire.SessionManifest{
		SessionID: spec.SessionID,
		Group:     spec.Group,
		Mode:      spec.Mode,
		StartMs:   uint64(start.UnixMilli()),
	}

	if len(spec.Nodes) == 0 {
		return abort(manifest, ErrorNoNodes.Error(nil).Error())
	}
	if spec.Mode != wire.ModeA {
		return abort(manifest, ErrorModeUnsupported.Error(nil).Error())
	}

	sessDir, direrr := e.sessionDir(spec)
	if direrr != nil {
		return abort(manifest, direrr.Error())
	}

	assignments, diagnostics := portalloc.Allocate(spec.Network.Ports)
	manifest.Diagnostics = diagnostics

	bridge := spec.Network.BridgeAddr
	if bridge == "" {
		bridge = defaultBridge
	}
	addrs := make(map[string]string, len(spec.Nodes))
	for _, n := range spec.Nodes {
		addrs[n.Name] = bridge
	}

	result := wire.ResultSuccess
	failReason := ""
	var instances []*instanceRecord

	startupDeadline := start.Add(time.Duration(spec.Timeouts.StartupMs) * time.Millisecond)

launch:
	for _, node := range spec.Nodes {
		var nodeInstances []*instanceRecord

		for idx := uint32(0); idx < node.Instances; idx++ {
			instDir := filepath.Join(sessDir, node.Name, fmt.Sprintf("inst%d", idx))
			injected := wire.InjectedEnv(spec.SessionID, spec.Group, node.Name, idx, addrs, assignments)
			env := wire.MergeEnv(os.Environ(), append(injected, node.Env...))

			rec := &instanceRecord{node: node.Name, index: idx, addr: addrs[node.Name], ports: assignments, startMs: nowMs()}

			inst, serr := supervisor.Spawn(instDir, node, idx, env)
			if serr != nil {
				rec.failureReason = serr.Error()
				rec.endMs = nowMs()
				instances = append(instances, rec)
				nodeInstances = append(nodeInstances, rec)
				result = wire.ResultError
				failReason = serr.Error()
				break launch
			}

			rec.instance = inst
			instances = append(instances, rec)
			nodeInstances = append(nodeInstances, rec)
		}

		for _, rec := range nodeInstances {
			if rec.instance == nil {
				continue
			}
			if rerr := readiness.Wait(ctx, node.Readiness, rec.instance, startupDeadline); rerr != nil {
				rec.failureReason = rerr.Error()
				result = wire.ResultFailed
				failReason = rerr.Error()
				break launch
			}
		}
	}

	if result == wire.ResultSuccess {
		result, failReason = runPhase(ctx, instances, start, spec.Timeouts.SessionMs)
	}

	live := make([]*supervisor.Instance, 0, len(instances))
	for _, rec := range instances {
		if rec.instance != nil {
			live = append(live, rec.instance)
		}
	}
	supervisor.Teardown(live, time.Duration(spec.Timeouts.ShutdownMs)*time.Millisecond)

	for _, rec := range instances {
		if rec.instance == nil || rec.endMs != 0 {
			continue
		}
		rec.endMs = nowMs()
		code, sig, reason := rec.instance.Result()
		rec.exitCode = code
		rec.termSignal = sig
		if reason != "" {
			rec.failureReason = reason
		}
	}

	manifest.Result = result
	manifest.FailReason = failReason
	manifest.EndMs = nowMs()
	manifest.Instances = make([]wire.InstanceInfo, 0, len(instances))
	for _, rec := range instances {
		manifest.Instances = append(manifest.Instances, rec.toInfo())
	}

	return manifest
}

// runPhase reaps instances until all exit, a session-level timeout fires, or
// the context is cancelled. It returns the resulting overall Result and a
// fail reason (non-empty only for Timeout/Cancelled, per the rule that
// per-instance failures stay in InstanceInfo.FailureReason).
func runPhase(ctx context.Context, instances []*instanceRecord, start time.Time, sessionMs uint64) (wire.Result, string) {
	result := wire.ResultSuccess

	var deadline time.Time
	if sessionMs > 0 {
		deadline = start.Add(time.Duration(sessionMs) * time.Millisecond)
	}

	for {
		allDone := true

		for _, rec := range instances {
			if rec.instance == nil || rec.endMs != 0 {
				continue
			}
			if rec.instance.IsRunning() {
				allDone = false
				continue
			}

			rec.endMs = nowMs()
			code, sig, reason := rec.instance.Result()
			rec.exitCode = code
			rec.termSignal = sig

			if code != 0 || sig != 0 {
				result = wire.ResultFailed
				if reason == "" {
					reason = "child exited with failure"
				}
				rec.failureReason = reason
			} else if reason != "" {
				result = wire.ResultFailed
				rec.failureReason = reason
			}
		}

		if allDone {
			return result, ""
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return wire.ResultTimeout, "session wall clock exceeded"
		}

		select {
		case <-ctx.Done():
			return wire.ResultCancelled, "session cancelled"
		case <-time.After(reapTick):
		}
	}
}

func abort(manifest wire.SessionManifest, reason string) wire.SessionManifest {
	manifest.Result = wire.ResultError
	manifest.FailReason = reason
	manifest.EndMs = nowMs()
	return manifest
}

func (e *Executor) sessionDir(spec wire.SessionSpec) (string, error) {
	base := e.RootDir
	if spec.ArtifactDir != "" {
		if filepath.IsAbs(spec.ArtifactDir) {
			base = spec.ArtifactDir
		} else {
			base = filepath.Join(e.RootDir, spec.ArtifactDir)
		}
	}

	dir := filepath.Join(base, spec.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
