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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/picofw/blup/protocol"
	"github.com/picofw/blup/uploader"
)

var okString = color.GreenString("[OK]")
var failString = color.RedString("[FAIL]")

var (
	configFile string
	serialPort string
	baudRate   int
	fwFile     string
	ackTimeout time.Duration
)

func init() {
	RootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&configFile, "config", "", "yaml config file with upload settings")
	uploadCmd.Flags().StringVar(&serialPort, "serial", "/dev/ttyUSB0", "bootloader serial port device")
	uploadCmd.Flags().IntVar(&baudRate, "baud", 115200, "serial port baud rate")
	uploadCmd.Flags().StringVar(&fwFile, "fw", "", "firmware file path")
	uploadCmd.Flags().DurationVar(&ackTimeout, "timeout", 10*time.Second, "wait budget for each bootloader acknowledgement")
}

func progressLine(sent, total int) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	fmt.Printf("\u001b[1000D")
	fmt.Printf("Sent chunk %d/%d, bytes %d/%d\n", protocol.NumChunks(sent), protocol.NumChunks(total), sent, total)
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "upload a firmware image to the bootloader",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := uploader.DefaultConfig()
		if configFile != "" {
			var err error
			if cfg, err = uploader.ReadConfig(configFile); err != nil {
				log.Fatal(err)
			}
		}
		// explicit flags win over config file values
		if cmd.Flags().Changed("serial") {
			cfg.Port = serialPort
		}
		if cmd.Flags().Changed("baud") {
			cfg.Baud = baudRate
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Timeout = ackTimeout
		}
		if fwFile != "" {
			cfg.Firmware = fwFile
		}
		if cfg.Firmware == "" {
			fmt.Println(failString, "Firmware file name must be provided")
			os.Exit(1)
		}

		u := uploader.New(cfg)
		u.Progress = progressLine
		if err := u.Run(); err != nil {
			fmt.Println(failString, err)
			os.Exit(1)
		}
		fmt.Println(okString, "Firmware upload completed without error")
	},
}
