// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package relay

import "strconv"

// StartSymbol opens every request and reply frame.
const StartSymbol = 0xA0

// FrameSize is the length of a request or reply frame.
const FrameSize = 4

// Command is the relay command code carried in byte 2 of a request.
type Command byte

// Command codes
const (
	CmdCloseQuiet Command = 0x00
	CmdOpenQuiet  Command = 0x01
	CmdClose      Command = 0x02
	CmdOpen       Command = 0x03
	CmdSwitch     Command = 0x04
	CmdStatus     Command = 0x05
)

var commandNames = map[Command]string{
	CmdCloseQuiet: "close_q",
	CmdOpenQuiet:  "open_q",
	CmdClose:      "close",
	CmdOpen:       "open",
	CmdSwitch:     "switch",
	CmdStatus:     "status",
}

// ExpectsReply reports whether the board answers the command with a reply frame.
func (c Command) ExpectsReply() bool {
	return c != CmdCloseQuiet && c != CmdOpenQuiet
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "command(" + strconv.Itoa(int(c)) + ")"
}

// Status is the port state reported in byte 2 of a reply.
type Status byte

const (
	StatusClosed Status = 0x00
	StatusOpened Status = 0x01
)

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusOpened:
		return "opened"
	default:
		return strconv.Itoa(int(s))
	}
}
