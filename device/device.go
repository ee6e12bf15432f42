/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package device

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/picofw/blup/protocol"
)

// Port is the byte-stream transport to the bootloader
type Port interface {
	io.ReadWriter
	Drain() error
	Close() error
}

// Open opens the serial device at the given baud rate in 8N1 mode
func Open(device string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port %s: %w", device, err)
	}

	// a single read returns after at most one poll interval so token
	// waits can observe their deadline
	if err := port.SetReadTimeout(protocol.DefaultPollInterval); err != nil {
		port.Close()
		return nil, fmt.Errorf("cannot set read timeout on %s: %w", device, err)
	}
	return port, nil
}
