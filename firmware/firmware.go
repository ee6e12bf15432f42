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

package firmware

import (
	"fmt"
	"hash/crc32"
	"os"
)

// Image represents a firmware image loaded in memory
type Image struct {
	data []byte
	crc  uint32
}

// Load reads the whole firmware file and computes its checksum once
func Load(filename string) (*Image, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read firmware file: %w", err)
	}
	return &Image{
		data: data,
		crc:  crc32.ChecksumIEEE(data),
	}, nil
}

// Bytes returns the raw image contents
func (i *Image) Bytes() []byte {
	return i.data
}

// Size returns the image size in bytes
func (i *Image) Size() int {
	return len(i.data)
}

// Checksum returns the CRC32 of the whole image
func (i *Image) Checksum() uint32 {
	return i.crc
}
