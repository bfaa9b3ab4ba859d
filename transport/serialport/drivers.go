// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package serialport

import (
	"errors"
	"io"

	gridx "github.com/grid-x/serial"
	tarm "github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

func openGridX(device string) (io.ReadWriteCloser, error) {
	port, err := gridx.Open(&gridx.Config{
		Address:  device,
		BaudRate: BaudRate,
		DataBits: DataBits,
		StopBits: StopBits,
		Parity:   Parity,
		Timeout:  ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &timeoutPort{ReadWriteCloser: port, isTimeout: gridXTimeout}, nil
}

func gridXTimeout(n int, err error) bool {
	return n == 0 && errors.Is(err, gridx.ErrTimeout)
}

func openBugST(device string) (io.ReadWriteCloser, error) {
	port, err := bugst.Open(device, &bugst.Mode{
		BaudRate: BaudRate,
		DataBits: DataBits,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return &timeoutPort{ReadWriteCloser: port, isTimeout: bugSTTimeout}, nil
}

// go.bug.st reports an expired read timeout as 0, nil.
func bugSTTimeout(n int, err error) bool {
	return n == 0 && err == nil
}

func openTarm(device string) (io.ReadWriteCloser, error) {
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        device,
		Baud:        BaudRate,
		ReadTimeout: ReadTimeout,
		Size:        DataBits,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	})
	if err != nil {
		return nil, err
	}
	return &timeoutPort{ReadWriteCloser: port, isTimeout: tarmTimeout}, nil
}

// tarm reads through *os.File, so an expired VTIME surfaces as io.EOF.
func tarmTimeout(n int, err error) bool {
	return n == 0 && (err == nil || errors.Is(err, io.EOF))
}
