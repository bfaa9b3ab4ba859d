// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ffutop/usb-relay/internal/config"
	"github.com/ffutop/usb-relay/link"
	"github.com/ffutop/usb-relay/relay"
)

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	config.RegisterFlags(fs)
	quiet := fs.BoolP("quiet", "q", false, "Do not wait for or print the port status.")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cmd, ports, err := parseArgs(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		usage(fs)
		os.Exit(2)
	}

	configFile, _ := fs.GetString("config")
	cfg, err := config.LoadConfig(configFile, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	closer := setupLogger(cfg.Log)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if failed := run(ctx, cfg.Relay, cmd, ports, *quiet, os.Stdout); failed {
		closer.Close()
		os.Exit(1)
	}
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command> <port>...\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands: open, close, switch, status, open_q, close_q\n\n")
	fs.PrintDefaults()
}

// run executes cmd on every port in order and reports whether any failed.
func run(ctx context.Context, cfg config.RelayConfig, cmd relay.Command, ports []byte, quiet bool, out io.Writer) (failed bool) {
	l, err := link.New(cfg)
	if err != nil {
		slog.Error("Failed to open relay", "device", cfg.Device, "err", err)
		fmt.Fprintf(out, "%s: %v\n", cfg.Device, err)
		return true
	}
	defer l.Close()

	for _, port := range ports {
		res, err := l.Exchange(ctx, port, cmd, wantsReply(cmd, quiet))
		if err != nil {
			failed = true
			if errors.Is(err, relay.ErrProtocol) {
				slog.Warn("Incorrect reply from relay", "port", port, "command", cmd, "err", err)
			} else {
				slog.Error("Relay request failed", "port", port, "command", cmd, "err", err)
			}
			fmt.Fprintf(out, "%d: %v\n", port, err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		slog.Info("Relay command done", "port", port, "command", cmd, "replied", res.Replied, "status", res.Status)
		if res.Replied {
			fmt.Fprintf(out, "%d: %s\n", port, res.Status)
		}
	}
	return
}

// wantsReply reports whether to read the board's reply. Quiet mode still
// sends the command as given but never waits for the answer.
func wantsReply(cmd relay.Command, quiet bool) bool {
	return cmd.ExpectsReply() && !quiet
}

func setupLogger(cfg config.LogConfig) io.Closer {
	opts := &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "error":
		opts.Level = slog.LevelError
	}

	var w io.WriteCloser = nopCloser{os.Stderr}
	if cfg.File != "" && cfg.File != "-" {
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
	return w
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
