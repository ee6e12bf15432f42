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
	"encoding/binary"
	"fmt"
)

const (
	// Magic identifies a BLUP upload header, "BLUP" in little-endian byte order
	Magic uint32 = 0x50554C42

	// HeaderLen is the wire size of an encoded header
	HeaderLen int = 12
)

// Header describes the firmware payload that follows it on the wire
type Header struct {
	Magic uint32
	Size  uint32
	CRC   uint32
}

// NewHeader builds a header for a payload of the given size and checksum
func NewHeader(size int, crc uint32) Header {
	return Header{
		Magic: Magic,
		Size:  uint32(size),
		CRC:   crc,
	}
}

// Encode packs the header as three little-endian uint32 values
func (h Header) Encode() []byte {
	b := make([]byte, HeaderLen)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Size)
	binary.LittleEndian.PutUint32(b[8:12], h.CRC)
	return b
}

// Send writes the encoded header in one piece and flushes it to the
// device before returning
func (h Header) Send(p Port) error {
	if _, err := p.Write(h.Encode()); err != nil {
		return fmt.Errorf("cannot send header: %w", err)
	}
	return p.Drain()
}
