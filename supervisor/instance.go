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

// Package supervisor spawns one child process per session instance, captures
// its stdout/stderr into per-instance log files, watches for a readiness
// token on stdout, and reaps termination status. It never restarts a child;
// teardown is graceful-then-forced.
package supervisor

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	liberr "github.com/sabouaram/coord/errors"
	"github.com/sabouaram/coord/wire"
)

// Instance is one concrete child process derived from a NodeDef, tracked
// from spawn through exit. It follows the usual spawned -> running -> exited
// runner contract (with IsRunning/Uptime queries) adapted to wrap a live OS
// process instead of a pair of closures.
type Instance struct {
	Node    string
	Index   uint32
	LogPath string
	ErrPath string

	cmd       *exec.Cmd
	startTime time.Time

	mu            sync.Mutex
	endTime       time.Time
	exitCode      int32
	termSignal    int32
	failureReason string
	done          bool

	doneCh chan struct{}

	tokenCh   chan struct{}
	tokenOnce sync.Once

	stdoutDoneCh chan struct{}
	stdoutOnce   sync.Once

	wg sync.WaitGroup
}

// Spawn creates instDir, opens its stdout.log/stderr.log, and starts
// node.Exec with the given fully-merged environment. Readiness token
// scanning is enabled automatically when node.Readiness is StdoutToken.
func Spawn(instDir string, node wire.NodeDef, index uint32, env []string) (*Instance, liberr.Error) {
	if err := os.MkdirAll(instDir, 0o755); err != nil {
		return nil, ErrorInstanceDir.Error(err)
	}

	logPath := filepath.Join(instDir, "stdout.log")
	errPath := filepath.Join(instDir, "stderr.log")

	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, ErrorInstanceDir.Error(err)
	}

	errFile, err := os.Create(errPath)
	if err != nil {
		_ = logFile.Close()
		return nil, ErrorInstanceDir.Error(err)
	}

	cmd := exec.Command(node.Exec, node.Args...)
	if node.Cwd != "" {
		cmd.Dir = node.Cwd
	}
	cmd.Env = env
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = logFile.Close()
		_ = errFile.Close()
		return nil, ErrorSpawn.Error(err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = logFile.Close()
		_ = errFile.Close()
		return nil, ErrorSpawn.Error(err)
	}

	in := &Instance{
		Node:         node.Name,
		Index:        index,
		LogPath:      logPath,
		ErrPath:      errPath,
		cmd:          cmd,
		doneCh:       make(chan struct{}),
		tokenCh:      make(chan struct{}),
		stdoutDoneCh: make(chan struct{}),
	}

	if e := cmd.Start(); e != nil {
		_ = logFile.Close()
		_ = errFile.Close()
		return nil, ErrorSpawn.Error(e)
	}

	in.startTime = time.Now()

	scan := node.Readiness.Kind == wire.ReadinessStdoutToken
	token := node.Readiness.Token

	in.wg.Add(2)
	go in.drain(stdout, logFile, scan, token, true)
	go in.drain(stderr, errFile, false, "", false)

	go in.reap()

	return in, nil
}

// windowSize returns the bounded sliding-window length for token scanning:
// max(4096, 2*len(token)).
func windowSize(token string) int {
	w := 2 * len(token)
	if w < 4096 {
		w = 4096
	}
	return w
}

func (in *Instance) drain(pipe io.Reader, file *os.File, scanToken bool, token string, isStdout bool) {
	defer in.wg.Done()
	defer func() { _ = file.Close() }()

	var window []byte
	wsz := 0
	if scanToken {
		wsz = windowSize(token)
	}

	buf := make([]byte, 8192)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			_, _ = file.Write(chunk)

			if scanToken && !in.TokenMatched() {
				window = append(window, chunk...)
				if len(window) > wsz {
					window = window[len(window)-wsz:]
				}
				if bytes.Contains(window, []byte(token)) {
					in.fireToken()
				}
			}
		}
		if err != nil {
			break
		}
	}

	if isStdout {
		in.fireStreamDone()
	}
}

func (in *Instance) fireToken() {
	in.tokenOnce.Do(func() { close(in.tokenCh) })
}

func (in *Instance) fireStreamDone() {
	in.stdoutOnce.Do(func() { close(in.stdoutDoneCh) })
}

func (in *Instance) reap() {
	in.wg.Wait()
	err := in.cmd.Wait()
	in.finish(err)
}

func (in *Instance) finish(waitErr error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.endTime = time.Now()

	if ps := in.cmd.ProcessState; ps != nil {
		if status, ok := ps.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				in.termSignal = int32(status.Signal())
			} else {
				in.exitCode = int32(status.ExitStatus())
			}
		} else {
			in.exitCode = int32(ps.ExitCode())
		}
	} else if waitErr != nil {
		in.failureReason = waitErr.Error()
	}

	in.done = true
	close(in.doneCh)
}

// TokenMatched reports whether the stdout readiness token has been seen.
func (in *Instance) TokenMatched() bool {
	select {
	case <-in.tokenCh:
		return true
	default:
		return false
	}
}

// TokenFound is closed exactly once, the instant the stdout token is seen.
func (in *Instance) TokenFound() <-chan struct{} {
	return in.tokenCh
}

// StreamDone is closed exactly once when stdout reaches EOF.
func (in *Instance) StreamDone() <-chan struct{} {
	return in.stdoutDoneCh
}

// Done is closed exactly once when the process has been reaped.
func (in *Instance) Done() <-chan struct{} {
	return in.doneCh
}

// IsRunning reports whether the process has not yet been reaped.
func (in *Instance) IsRunning() bool {
	select {
	case <-in.doneCh:
		return false
	default:
		return true
	}
}

// Uptime returns the elapsed time since spawn, or the total lifetime once
// the process has exited.
func (in *Instance) Uptime() time.Duration {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.done {
		return in.endTime.Sub(in.startTime)
	}
	return time.Since(in.startTime)
}

// Pid returns the OS process id, or 0 if the process never started.
func (in *Instance) Pid() int32 {
	if in.cmd.Process == nil {
		return 0
	}
	return int32(in.cmd.Process.Pid)
}

// StartTime returns the instant the process was started.
func (in *Instance) StartTime() time.Time {
	return in.startTime
}

// EndTime returns the instant the process was reaped, or the zero time
// while it is still running.
func (in *Instance) EndTime() time.Time {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.endTime
}

// Result returns the terminal exit code, termination signal and failure
// reason recorded once the process has been reaped.
func (in *Instance) Result() (exitCode int32, termSignal int32, failureReason string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.exitCode, in.termSignal, in.failureReason
}

// Signal delivers sig to the child process. It is a no-op once the process
// has already exited.
func (in *Instance) Signal(sig syscall.Signal) liberr.Error {
	if !in.IsRunning() || in.cmd.Process == nil {
		return nil
	}
	if err := in.cmd.Process.Signal(sig); err != nil {
		return ErrorSignal.Error(err)
	}
	return nil
}
