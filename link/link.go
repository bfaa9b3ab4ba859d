// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package link drives a USB relay board over its serial port.
//
// A Link is safe for use by several goroutines; exchanges are serialized so
// frames from different callers never interleave on the wire.
package link

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ffutop/usb-relay/internal/config"
	"github.com/ffutop/usb-relay/relay"
	"github.com/ffutop/usb-relay/transport/serialport"
)

// SettleDelay is the pause between writing a request and reading the reply.
const SettleDelay = 20 * time.Millisecond

// Result is the outcome of an exchange that did not fail.
// Replied is false for commands that do not ask for a reply.
type Result struct {
	Status  relay.Status
	Replied bool
}

// Link owns the serial connection to one relay board.
type Link struct {
	keepOpen       bool
	verifyChecksum bool
	settle         time.Duration
	readTimeout    time.Duration

	mu   sync.Mutex
	port serialPort
}

// New allocates a Link for cfg.Device. With cfg.KeepOpen the device is
// opened before New returns and stays open until Close.
func New(cfg config.RelayConfig) (*Link, error) {
	driver, err := serialport.ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	open := func(device string) (io.ReadWriteCloser, error) {
		return serialport.Open(device, driver)
	}
	return newLink(cfg, open)
}

func newLink(cfg config.RelayConfig, open func(string) (io.ReadWriteCloser, error)) (*Link, error) {
	l := &Link{
		keepOpen:       cfg.KeepOpen,
		verifyChecksum: cfg.VerifyChecksum,
		settle:         SettleDelay,
		readTimeout:    serialport.ReadTimeout,
		port: serialPort{
			device: cfg.Device,
			open:   open,
		},
	}
	if l.keepOpen {
		if err := l.port.connect(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Close closes the serial connection if it is open. It is safe to call more than once.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.port.close()
}

// Exchange sends cmd for port and, if expectReply is set, reads and decodes
// the board's reply. Malformed or missing replies yield an error wrapping
// relay.ErrProtocol; any other error comes from the serial device.
func (l *Link) Exchange(ctx context.Context, port byte, cmd relay.Command, expectReply bool) (res Result, err error) {
	request := relay.NewFrame(port, cmd).Encode()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err = l.port.connect(); err != nil {
		return Result{}, err
	}
	if !l.keepOpen {
		defer func() {
			if cerr := l.port.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	slog.Debug("send to relay", "request", hex.EncodeToString(request))
	if _, err = l.port.port.Write(request); err != nil {
		return Result{}, fmt.Errorf("failed to write request: %w", err)
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(l.settle):
	}

	if !expectReply {
		return Result{}, nil
	}

	reply, err := readReply(l.port.port, time.Now().Add(l.readTimeout))
	if err != nil {
		return Result{}, err
	}
	slog.Debug("recv from relay", "response", hex.EncodeToString(reply))

	frame, err := relay.DecodeReply(reply)
	if err != nil {
		return Result{}, err
	}
	if l.verifyChecksum {
		if err := frame.VerifyChecksum(); err != nil {
			return Result{}, err
		}
	}
	return Result{Status: frame.Status(), Replied: true}, nil
}

// readReply reads up to one frame before deadline. A read timeout, EOF or
// the deadline ends the frame early; the short result is left to
// DecodeReply to reject.
func readReply(r io.Reader, deadline time.Time) ([]byte, error) {
	buf := make([]byte, relay.FrameSize)
	n := 0
	for n < len(buf) && time.Now().Before(deadline) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			if errors.Is(err, serialport.ErrTimeout) || errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read reply: %w", err)
		}
		if m == 0 {
			break
		}
	}
	return buf[:n], nil
}

// Do runs cmd on port, asking for a reply when the command has one.
func (l *Link) Do(ctx context.Context, cmd relay.Command, port byte) (Result, error) {
	return l.Exchange(ctx, port, cmd, cmd.ExpectsReply())
}

// CloseQuiet closes the relay on port without waiting for a reply.
func (l *Link) CloseQuiet(ctx context.Context, port byte) error {
	_, err := l.Exchange(ctx, port, relay.CmdCloseQuiet, false)
	return err
}

// OpenQuiet opens the relay on port without waiting for a reply.
func (l *Link) OpenQuiet(ctx context.Context, port byte) error {
	_, err := l.Exchange(ctx, port, relay.CmdOpenQuiet, false)
	return err
}

// CloseRelay closes the relay on port and returns the reported status.
func (l *Link) CloseRelay(ctx context.Context, port byte) (relay.Status, error) {
	return l.status(ctx, port, relay.CmdClose)
}

// OpenRelay opens the relay on port and returns the reported status.
func (l *Link) OpenRelay(ctx context.Context, port byte) (relay.Status, error) {
	return l.status(ctx, port, relay.CmdOpen)
}

// Switch toggles the relay on port and returns the reported status.
func (l *Link) Switch(ctx context.Context, port byte) (relay.Status, error) {
	return l.status(ctx, port, relay.CmdSwitch)
}

// Status queries the current status of the relay on port.
func (l *Link) Status(ctx context.Context, port byte) (relay.Status, error) {
	return l.status(ctx, port, relay.CmdStatus)
}

func (l *Link) status(ctx context.Context, port byte, cmd relay.Command) (relay.Status, error) {
	res, err := l.Exchange(ctx, port, cmd, true)
	if err != nil {
		return 0, err
	}
	return res.Status, nil
}
