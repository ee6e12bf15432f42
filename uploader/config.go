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
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config specifies one upload attempt
type Config struct {
	Port     string        `yaml:"port"`     // serial device path
	Baud     int           `yaml:"baud"`     // serial baud rate
	Timeout  time.Duration `yaml:"timeout"`  // per-acknowledgement wait budget
	Firmware string        `yaml:"firmware"` // firmware image path
}

// DefaultConfig returns a Config with protocol defaults filled in
func DefaultConfig() *Config {
	return &Config{
		Port:    "/dev/ttyUSB0",
		Baud:    115200,
		Timeout: 10 * time.Second,
	}
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, c)
	if err != nil {
		return nil, err
	}

	return c, nil
}
