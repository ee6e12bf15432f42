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
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// ChunkSize is the size of one firmware window on the wire. The
// bootloader requests every window with CHUNK-OK before it is sent.
const ChunkSize int = 256

// Transmitter streams the firmware payload in acknowledged windows
type Transmitter struct {
	Port     Port
	Scanner  *Scanner
	Timeout  time.Duration
	Progress func(sent, total int)
}

// NumChunks returns how many windows a payload of size bytes needs
func NumChunks(size int) int {
	return (size + ChunkSize - 1) / ChunkSize
}

// SendAll sends the whole payload in order, one flushed window per
// CHUNK-OK acknowledgement. The first missing or failed acknowledgement
// aborts the remainder of the transfer; there is no retry. A zero-length
// payload produces no windows and no waits.
func (t *Transmitter) SendAll(data []byte) error {
	total := len(data)
	chunks := NumChunks(total)

	for off := 0; off < total; off += ChunkSize {
		chunk := off/ChunkSize + 1
		if err := t.Scanner.WaitFor(TokenChunkOK, t.Timeout); err != nil {
			return fmt.Errorf("chunk %d/%d not acknowledged: %w", chunk, chunks, err)
		}

		end := off + ChunkSize
		if end > total {
			end = total
		}
		if _, err := t.Port.Write(data[off:end]); err != nil {
			return fmt.Errorf("cannot send chunk %d/%d: %w", chunk, chunks, err)
		}
		if err := t.Port.Drain(); err != nil {
			return fmt.Errorf("cannot flush chunk %d/%d: %w", chunk, chunks, err)
		}

		log.Debugf("sent chunk %d/%d, bytes %d/%d", chunk, chunks, end, total)
		if t.Progress != nil {
			t.Progress(end, total)
		}
	}
	return nil
}
