// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ffutop/usb-relay/relay"
)

// parseArgs splits the positional arguments into a command and its ports.
func parseArgs(args []string) (relay.Command, []byte, error) {
	if len(args) < 2 {
		return 0, nil, errors.New("a command and at least one port are required")
	}
	cmd, err := relay.ParseCommand(args[0])
	if err != nil {
		return 0, nil, err
	}
	ports := make([]byte, 0, len(args)-1)
	for _, arg := range args[1:] {
		p, err := strconv.Atoi(arg)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid port %q: %w", arg, err)
		}
		// Ports start at 1; the upper bound is up to the board.
		if p < 1 || p > 255 {
			return 0, nil, fmt.Errorf("port out of range: %d", p)
		}
		ports = append(ports, byte(p))
	}
	return cmd, ports, nil
}
