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

// Command coordd runs the session coordinator daemon: it accepts session
// specifications over a framed RPC listener, spawns and supervises their
// child processes, and serves manifests and health snapshots to coordctl.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	libcbr "github.com/sabouaram/coord/cobra"
	liblog "github.com/sabouaram/coord/logger"
	loglvl "github.com/sabouaram/coord/logger/level"
	"github.com/sabouaram/coord/monitor"
	"github.com/sabouaram/coord/rpc"
	"github.com/sabouaram/coord/session"
	"github.com/sabouaram/coord/transport"
	libver "github.com/sabouaram/coord/version"
	libvpr "github.com/sabouaram/coord/viper"
	spfcbr "github.com/spf13/cobra"
)

func appVersion() libver.Version {
	return libver.NewVersion(
		libver.License_MIT,
		"coordd",
		"local multi-process session coordinator daemon",
		"",
		"",
		"dev",
		"",
		"COORDD",
		struct{}{},
		0,
	)
}

type daemonFlags struct {
	listen        string
	root          string
	peers         []string
	tlsCA         string
	tlsCert       string
	tlsKey        string
	readyFile     string
	pidFile       string
	shutdownToken string
	retention     string
	daemonize     bool
	configFile    string
}

func main() {
	flags := &daemonFlags{}

	app := libcbr.New()
	app.SetVersion(appVersion())
	app.Init()

	app.AddFlagString(false, &flags.listen, "listen", "l", "127.0.0.1:4770", "address or unix:<path> to accept RPC connections on")
	app.AddFlagString(false, &flags.root, "root", "r", "", "root directory for session working directories and artifacts")
	app.AddFlagStringArray(false, &flags.peers, "peer", "p", nil, "advisory address of a peer daemon (repeatable)")
	app.AddFlagString(false, &flags.tlsCA, "tls-ca", "", "", "PEM file with the CA used to verify peers")
	app.AddFlagString(false, &flags.tlsCert, "tls-cert", "", "", "PEM certificate for the RPC listener")
	app.AddFlagString(false, &flags.tlsKey, "tls-key", "", "", "PEM private key for the RPC listener")
	app.AddFlagString(false, &flags.readyFile, "ready-file", "", "", "path written with \"ready\\n\" once the listener is bound")
	app.AddFlagString(false, &flags.pidFile, "pid-file", "", "", "path written with the daemon's PID once the listener is bound")
	app.AddFlagString(false, &flags.shutdownToken, "shutdown-token", "", "", "shared secret required on a Shutdown RPC")
	app.AddFlagString(false, &flags.retention, "retention", "", "", "inactivity window after which a completed session is pruned, e.g. \"90m\" or \"2d12h\" (default 1h0m0s)")
	app.AddFlagBool(false, &flags.daemonize, "daemonize", "", false, "detach from the controlling terminal after startup")
	_ = app.SetFlagConfig(false, &flags.configFile)

	app.Cobra().RunE = func(cmd *spfcbr.Command, args []string) error {
		return run(cmd, flags)
	}

	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *spfcbr.Command, flags *daemonFlags) error {
	if flags.configFile != "" {
		if err := loadConfigFile(cmd, flags); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if flags.root == "" {
		fmt.Fprintln(os.Stderr, "--root is required")
		os.Exit(1)
	}

	log := liblog.New(context.Background())
	log.SetLevel(loglvl.InfoLevel)

	ep := transport.ParseEndpoint(flags.listen)
	mat := transport.TLSMaterial{
		Enabled:  flags.tlsCert != "" || flags.tlsKey != "" || flags.tlsCA != "",
		CAFile:   flags.tlsCA,
		CertFile: flags.tlsCert,
		KeyFile:  flags.tlsKey,
	}

	ln, lerr := transport.Listen(ep, mat)
	if lerr != nil {
		log.Entry(loglvl.ErrorLevel, "listen failed: "+lerr.Error()).Log()
		os.Exit(1)
	}
	defer func() { _ = ln.Close() }()

	ep.Addr = ln.Addr().String()

	retention, rerr := session.ParseRetention(flags.retention)
	if rerr != nil {
		log.Entry(loglvl.ErrorLevel, "invalid --retention: "+rerr.Error()).Log()
		os.Exit(1)
	}

	mgr := session.New(flags.root, mat, retention)
	mon := monitor.NewCollector(mgr)
	srv := rpc.New(ln, ep, mat, mgr, mon, flags.shutdownToken)

	statusDir := flags.root
	if flags.readyFile != "" {
		statusDir = filepath.Dir(flags.readyFile)
	}
	statusPath := filepath.Join(statusDir, "status.json")
	srv.OnIdle(func() { _ = mon.WriteFile(statusPath) })

	if flags.pidFile != "" {
		_ = os.WriteFile(flags.pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644)
	}
	if flags.readyFile != "" {
		_ = os.WriteFile(flags.readyFile, []byte("ready\n"), 0o644)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig
		mon.Drain()
		mgr.Shutdown()
		time.Sleep(50 * time.Millisecond)
		os.Exit(0)
	}()

	log.Entry(loglvl.InfoLevel, "daemon listening on "+ep.Addr).Log()

	if err := srv.Serve(); err != nil {
		log.Entry(loglvl.ErrorLevel, "serve stopped: "+err.Error()).Log()
		os.Exit(1)
	}

	return nil
}

// loadConfigFile fills in any flag the user did not pass explicitly on the
// command line from flags.configFile, so an explicit CLI flag always wins
// over the config file, regardless of the flag's own pflag-registered
// default value.
func loadConfigFile(cmd *spfcbr.Command, flags *daemonFlags) error {
	v := libvpr.New(context.Background(), nil)
	if err := v.SetConfigFile(flags.configFile); err != nil {
		return err
	}
	if err := v.Config(loglvl.InfoLevel, loglvl.ErrorLevel); err != nil {
		return err
	}

	type fileConfig struct {
		Listen        string
		Root          string
		Peer          []string
		TlsCa         string
		TlsCert       string
		TlsKey        string
		ReadyFile     string
		PidFile       string
		ShutdownToken string
		Retention     string
		Daemonize     bool
	}
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return err
	}

	changed := cmd.Flags().Changed

	if !changed("listen") {
		flags.listen = fc.Listen
	}
	if !changed("root") {
		flags.root = fc.Root
	}
	if !changed("peer") {
		flags.peers = fc.Peer
	}
	if !changed("tls-ca") {
		flags.tlsCA = fc.TlsCa
	}
	if !changed("tls-cert") {
		flags.tlsCert = fc.TlsCert
	}
	if !changed("tls-key") {
		flags.tlsKey = fc.TlsKey
	}
	if !changed("ready-file") {
		flags.readyFile = fc.ReadyFile
	}
	if !changed("pid-file") {
		flags.pidFile = fc.PidFile
	}
	if !changed("shutdown-token") {
		flags.shutdownToken = fc.ShutdownToken
	}
	if !changed("retention") {
		flags.retention = fc.Retention
	}
	if !changed("daemonize") {
		flags.daemonize = fc.Daemonize
	}

	return nil
}
