// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package serialport opens the relay board's serial device through one of
// several serial drivers and gives their read timeouts a common shape.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// The board only speaks 9600 8-N-1.
const (
	BaudRate    = 9600
	DataBits    = 8
	Parity      = "N"
	StopBits    = 1
	ReadTimeout = 1 * time.Second
)

// ErrTimeout is returned by Read when no byte arrived within ReadTimeout.
var ErrTimeout = errors.New("serial: read timeout")

// Driver selects the serial library used to talk to the device.
type Driver string

const (
	DriverGridX Driver = "gridx"
	DriverBugST Driver = "bugst"
	DriverTarm  Driver = "tarm"

	DefaultDriver = DriverGridX
)

// ParseDriver resolves a driver name. An empty name selects DefaultDriver.
func ParseDriver(name string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(name))); d {
	case "":
		return DefaultDriver, nil
	case DriverGridX, DriverBugST, DriverTarm:
		return d, nil
	default:
		return "", fmt.Errorf("unknown serial driver: %q", name)
	}
}

type openFunc func(device string) (io.ReadWriteCloser, error)

var drivers = map[Driver]openFunc{
	DriverGridX: openGridX,
	DriverBugST: openBugST,
	DriverTarm:  openTarm,
}

// Open opens device with the fixed board settings using driver.
func Open(device string, driver Driver) (io.ReadWriteCloser, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	open, ok := drivers[driver]
	if !ok {
		return nil, fmt.Errorf("unknown serial driver: %q", driver)
	}
	port, err := open(device)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", device, err)
	}
	return port, nil
}

// timeoutPort maps a driver specific "nothing read" result onto ErrTimeout.
type timeoutPort struct {
	io.ReadWriteCloser
	isTimeout func(n int, err error) bool
}

func (p *timeoutPort) Read(b []byte) (int, error) {
	n, err := p.ReadWriteCloser.Read(b)
	if len(b) > 0 && p.isTimeout(n, err) {
		return 0, ErrTimeout
	}
	return n, err
}
