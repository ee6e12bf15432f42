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

package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Tokens the bootloader prints to acknowledge each phase of the upload.
// They are matched by substring, one per newline-terminated line.
const (
	TokenBootloaderReady  string = "BOOTLOADER-READY"
	TokenHeaderOK         string = "HEADER-OK"
	TokenChunkOK          string = "CHUNK-OK"
	TokenFirmwareUploaded string = "FIRMWARE-UPLOADED"
	TokenVerifyOK         string = "VERIFY-OK"
	TokenFirmwareSuccess  string = "FIRMWARE-SUCCESS"
	TokenJumpingToApp     string = "JUMPING-TO-APP"

	errorMarker string = "ERROR"
)

// DefaultPollInterval is the poll cadence for token waits. The serial
// read timeout and the scanner sleep share it so they do not stack into
// a longer cycle.
const DefaultPollInterval = 100 * time.Millisecond

// ErrTimeout is returned when the expected token never arrived in time
var ErrTimeout = errors.New("timed out waiting for bootloader")

// ErrDeviceError is returned when the bootloader printed an error line
var ErrDeviceError = errors.New("bootloader reported an error")

// Port is the subset of the serial transport the protocol needs
type Port interface {
	io.ReadWriter
	Drain() error
}

// Scanner reads line-delimited text from the device and matches tokens.
// Bytes left over after a match are kept for the next wait, so back to
// back acknowledgements arriving in one read are not lost.
type Scanner struct {
	Interval time.Duration

	port    io.Reader
	pending bytes.Buffer
}

// NewScanner creates a Scanner polling the given transport
func NewScanner(port io.Reader) *Scanner {
	return &Scanner{
		Interval: DefaultPollInterval,
		port:     port,
	}
}

// WaitFor polls the device until a line containing token arrives, the
// device prints an error line, or timeout elapses. Bytes that are not
// valid text are dropped rather than failing the wait.
func (s *Scanner) WaitFor(token string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 256)

	for {
		for {
			raw, ok := s.nextLine()
			if !ok {
				break
			}
			line := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
			if line == "" {
				continue
			}
			log.Debugf("device: %s", line)
			if strings.Contains(line, token) {
				return nil
			}
			if strings.Contains(line, errorMarker) {
				return fmt.Errorf("%w: %s", ErrDeviceError, line)
			}
		}

		// re-checked on every pass so a chattering device cannot
		// hold the wait open past its deadline
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrTimeout, token)
		}

		start := time.Now()
		n, err := s.port.Read(buf)
		if err != nil {
			return fmt.Errorf("cannot read from device: %w", err)
		}
		if n > 0 {
			s.pending.Write(buf[:n])
			continue
		}

		// a blocking read already consumed part of the poll interval
		if rest := s.Interval - time.Since(start); rest > 0 {
			time.Sleep(rest)
		}
	}
}

func (s *Scanner) nextLine() (string, bool) {
	data := s.pending.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return "", false
	}
	line := string(data[:idx])
	s.pending.Next(idx + 1)
	return line, true
}
