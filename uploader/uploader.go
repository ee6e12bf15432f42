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

package uploader

import (
	log "github.com/sirupsen/logrus"

	"github.com/picofw/blup/device"
	"github.com/picofw/blup/firmware"
	"github.com/picofw/blup/protocol"
)

// finishTokens are awaited after the chunk transfer, in protocol order
var finishTokens = []string{
	protocol.TokenFirmwareUploaded,
	protocol.TokenVerifyOK,
	protocol.TokenFirmwareSuccess,
	protocol.TokenJumpingToApp,
}

// Uploader drives one firmware upload attempt over a serial port.
// The handshake is strictly linear: every phase must be acknowledged
// before the next one starts, and the first failure ends the attempt.
type Uploader struct {
	Config   *Config
	Progress func(sent, total int)

	open func(string, int) (device.Port, error)
}

// New creates an Uploader for the given config
func New(cfg *Config) *Uploader {
	return &Uploader{
		Config: cfg,
		open:   device.Open,
	}
}

// Run loads the firmware image, acquires the serial port and walks the
// upload handshake to completion. The port is closed on every return
// path.
func (u *Uploader) Run() error {
	img, err := firmware.Load(u.Config.Firmware)
	if err != nil {
		return err
	}
	log.Infof("Loaded %s: %d bytes, crc 0x%08X", u.Config.Firmware, img.Size(), img.Checksum())

	port, err := u.open(u.Config.Port, u.Config.Baud)
	if err != nil {
		return err
	}
	defer port.Close()

	return u.upload(port, img)
}

func (u *Uploader) upload(port device.Port, img *firmware.Image) error {
	scanner := protocol.NewScanner(port)

	log.Info("Waiting for bootloader...")
	if err := scanner.WaitFor(protocol.TokenBootloaderReady, u.Config.Timeout); err != nil {
		return err
	}

	h := protocol.NewHeader(img.Size(), img.Checksum())
	log.Infof("Sending header: magic 0x%08X, size %d, crc 0x%08X", h.Magic, h.Size, h.CRC)
	if err := h.Send(port); err != nil {
		return err
	}
	if err := scanner.WaitFor(protocol.TokenHeaderOK, u.Config.Timeout); err != nil {
		return err
	}

	log.Infof("Sending firmware in %d chunks...", protocol.NumChunks(img.Size()))
	tx := &protocol.Transmitter{
		Port:     port,
		Scanner:  scanner,
		Timeout:  u.Config.Timeout,
		Progress: u.Progress,
	}
	if err := tx.SendAll(img.Bytes()); err != nil {
		return err
	}

	for _, token := range finishTokens {
		log.Infof("Waiting for %s...", token)
		if err := scanner.WaitFor(token, u.Config.Timeout); err != nil {
			return err
		}
	}

	log.Info("Firmware uploaded, device is jumping to application")
	return nil
}
