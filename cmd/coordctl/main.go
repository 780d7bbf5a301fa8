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

// Command coordctl is the control client for a coordd daemon: it submits
// session specs, waits for or polls their manifests, requests shutdown, and
// renders a finished manifest as JSON or JUnit.
package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	libcbr "github.com/sabouaram/coord/cobra"
	"github.com/sabouaram/coord/codec"
	"github.com/sabouaram/coord/report"
	"github.com/sabouaram/coord/transport"
	libver "github.com/sabouaram/coord/version"
	"github.com/sabouaram/coord/wire"
	spfcbr "github.com/spf13/cobra"
)

func appVersion() libver.Version {
	return libver.NewVersion(
		libver.License_MIT,
		"coordctl",
		"control client for the session coordinator daemon",
		"",
		"",
		"dev",
		"",
		"COORDCTL",
		struct{}{},
		0,
	)
}

func dial(endpoint string) (net.Conn, error) {
	ep := transport.ParseEndpoint(endpoint)
	conn, cerr := transport.Connect(ep, transport.TLSMaterial{}, "")
	if cerr != nil {
		return nil, cerr
	}
	return conn, nil
}

func roundTrip(endpoint string, req wire.Message) (wire.Message, error) {
	conn, derr := dial(endpoint)
	if derr != nil {
		return wire.Message{}, derr
	}
	defer func() { _ = conn.Close() }()

	if werr := codec.WriteMessage(conn, req); werr != nil {
		return wire.Message{}, werr
	}
	reply, rerr := codec.ReadMessage(conn)
	if rerr != nil {
		return wire.Message{}, rerr
	}
	if reply.Tag == wire.TagError {
		return wire.Message{}, fmt.Errorf("daemon error: %s", reply.Error.Reason)
	}
	return reply, nil
}

func main() {
	app := libcbr.New()
	app.SetVersion(appVersion())
	app.Init()

	var daemon string
	app.AddFlagString(true, &daemon, "daemon", "d", "127.0.0.1:4770", "address or unix:<path> of the coordd daemon")

	root := app.Cobra()
	root.Use = "coordctl"
	root.Short = "control client for coordd"

	var async bool
	submitCmd := app.NewCommand("submit <spec-file>", "submit a session spec", "submit a session spec and wait for its manifest unless --async is set", "", "")
	submitCmd.Flags().BoolVar(&async, "async", false, "print the assigned session id and return immediately")
	submitCmd.Args = spfcbr.ExactArgs(1)
	submitCmd.RunE = func(cmd *spfcbr.Command, args []string) error {
		return runSubmit(daemon, args[0], async)
	}

	waitCmd := app.NewCommand("wait <session-id>", "block until a session completes", "block until a session completes and print its manifest", "", "")
	waitCmd.Args = spfcbr.ExactArgs(1)
	waitCmd.RunE = func(cmd *spfcbr.Command, args []string) error {
		return runWait(daemon, args[0])
	}

	var statusDaemon bool
	statusCmd := app.NewCommand("status [session-id]", "print a non-blocking status snapshot", "print a session's status, or the daemon's own health when no id is given", "", "")
	statusCmd.Flags().BoolVar(&statusDaemon, "daemon", false, "fetch the daemon's own health snapshot instead of a session's")
	statusCmd.RunE = func(cmd *spfcbr.Command, args []string) error {
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		if !statusDaemon && id == "" {
			return fmt.Errorf("status requires a session id or --daemon")
		}
		return runStatus(daemon, id)
	}

	var shutdownToken string
	shutdownCmd := app.NewCommand("shutdown", "ask the daemon to stop accepting new connections", "", "", "")
	shutdownCmd.Flags().StringVar(&shutdownToken, "token", "", "shared secret required by the daemon")
	shutdownCmd.RunE = func(cmd *spfcbr.Command, args []string) error {
		return runShutdown(daemon, shutdownToken)
	}

	var reportFormat, reportOut string
	reportCmd := app.NewCommand("report <manifest-file>", "render a finished manifest", "render a manifest file previously saved from wait/status as JSON or JUnit", "", "")
	reportCmd.Flags().StringVar(&reportFormat, "format", "json", "output format: json or junit")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write to this file instead of stdout")
	reportCmd.Args = spfcbr.ExactArgs(1)
	reportCmd.RunE = func(cmd *spfcbr.Command, args []string) error {
		return runReport(args[0], reportFormat, reportOut)
	}

	app.AddCommand(submitCmd, waitCmd, statusCmd, shutdownCmd, reportCmd)

	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSubmit(daemon, specFile string, async bool) error {
	b, rerr := os.ReadFile(specFile)
	if rerr != nil {
		return rerr
	}

	var spec wire.SessionSpec
	if jerr := json.Unmarshal(b, &spec); jerr != nil {
		return jerr
	}

	reply, err := roundTrip(daemon, wire.NewSubmit(spec))
	if err != nil {
		return err
	}
	id := reply.Accepted.SessionID

	if async {
		fmt.Println(id)
		return nil
	}

	reply, err = roundTrip(daemon, wire.NewWait(id))
	if err != nil {
		return err
	}
	return printJSON(reply.Manifest)
}

func runWait(daemon, sessionID string) error {
	reply, err := roundTrip(daemon, wire.NewWait(sessionID))
	if err != nil {
		return err
	}
	return printJSON(reply.Manifest)
}

func runStatus(daemon, sessionID string) error {
	reply, err := roundTrip(daemon, wire.NewStatusReq(sessionID))
	if err != nil {
		return err
	}
	return printJSON(reply.Status)
}

func runShutdown(daemon, token string) error {
	reply, err := roundTrip(daemon, wire.NewShutdown(token))
	if err != nil {
		return err
	}
	return printJSON(reply.Status)
}

func runReport(manifestFile, format, out string) error {
	b, rerr := os.ReadFile(manifestFile)
	if rerr != nil {
		return rerr
	}

	var manifest wire.SessionManifest
	if jerr := json.Unmarshal(b, &manifest); jerr != nil {
		return jerr
	}

	f, ferr := report.ParseFormat(format)
	if ferr != nil {
		return ferr
	}

	rendered, rerr2 := report.Render(manifest, f)
	if rerr2 != nil {
		return rerr2
	}

	if out == "" {
		_, werr := os.Stdout.Write(rendered)
		return werr
	}
	return os.WriteFile(out, rendered, 0o644)
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
