// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package relay

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProtocol is wrapped by every error caused by a malformed or missing reply.
	ErrProtocol = errors.New("relay: protocol error")

	ErrShortReply     = fmt.Errorf("%w: short reply", ErrProtocol)
	ErrBadStartSymbol = fmt.Errorf("%w: bad start symbol", ErrProtocol)
	ErrChecksum       = fmt.Errorf("%w: checksum mismatch", ErrProtocol)
)

// Frame is the 4-byte unit exchanged with the board in both directions.
// For replies Cmd carries the port status.
type Frame struct {
	Start    byte
	Port     byte
	Cmd      byte
	Checksum byte
}

// Checksum returns the low 8 bits of StartSymbol + port + cmd.
func Checksum(port byte, cmd Command) byte {
	return byte(StartSymbol + int(port) + int(cmd))
}

// NewFrame builds a request frame for cmd on port.
func NewFrame(port byte, cmd Command) Frame {
	return Frame{
		Start:    StartSymbol,
		Port:     port,
		Cmd:      byte(cmd),
		Checksum: Checksum(port, cmd),
	}
}

// Encode returns the frame as sent on the wire.
func (f Frame) Encode() []byte {
	return []byte{f.Start, f.Port, f.Cmd, f.Checksum}
}

// Status returns the port status carried by a reply frame.
func (f Frame) Status() Status {
	return Status(f.Cmd)
}

// VerifyChecksum checks byte 3 of the frame against the sum of the first three.
func (f Frame) VerifyChecksum() error {
	if want := byte(int(f.Start) + int(f.Port) + int(f.Cmd)); f.Checksum != want {
		return fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksum, f.Checksum, want)
	}
	return nil
}

func (f Frame) String() string {
	return fmt.Sprintf("% X", f.Encode())
}

// DecodeReply parses a reply frame. Only the length and the start symbol are
// checked; checksum verification is left to VerifyChecksum.
func DecodeReply(data []byte) (Frame, error) {
	if len(data) != FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrShortReply, len(data), FrameSize)
	}
	if data[0] != StartSymbol {
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrBadStartSymbol, data[0])
	}
	return Frame{
		Start:    data[0],
		Port:     data[1],
		Cmd:      data[2],
		Checksum: data[3],
	}, nil
}

// ParseCommand maps a command name as printed by Command.String back to its code.
func ParseCommand(name string) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for cmd, n := range commandNames {
		if n == name {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("unknown command: %q", name)
}
