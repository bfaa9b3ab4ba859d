// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package link

import (
	"io"
	"log/slog"
)

// serialPort holds the lazily opened device handle. Callers must hold Link.mu.
type serialPort struct {
	device string
	open   func(device string) (io.ReadWriteCloser, error)

	// port is nil while the device is closed.
	port io.ReadWriteCloser
}

// connect opens the device if it is not open yet.
func (p *serialPort) connect() error {
	if p.port != nil {
		return nil
	}
	port, err := p.open(p.device)
	if err != nil {
		return err
	}
	slog.Debug("relay port opened", "device", p.device)
	p.port = port
	return nil
}

// close closes the device if it is open.
func (p *serialPort) close() (err error) {
	if p.port != nil {
		err = p.port.Close()
		p.port = nil
		slog.Debug("relay port closed", "device", p.device)
	}
	return
}

func (p *serialPort) isOpen() bool {
	return p.port != nil
}
