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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scriptReader hands out the scripted reads one by one and then keeps
// returning empty reads, like a serial port with a read timeout
type scriptReader struct {
	reads [][]byte
}

func (r *scriptReader) Read(b []byte) (int, error) {
	if len(r.reads) == 0 {
		return 0, nil
	}
	n := copy(b, r.reads[0])
	if n == len(r.reads[0]) {
		r.reads = r.reads[1:]
	} else {
		r.reads[0] = r.reads[0][n:]
	}
	return n, nil
}

func newTestScanner(reads ...[]byte) *Scanner {
	s := NewScanner(&scriptReader{reads: reads})
	s.Interval = time.Millisecond
	return s
}

func TestWaitForToken(t *testing.T) {
	s := newTestScanner([]byte("BOOT"), []byte("LOADER-READY\r\n"))
	require.NoError(t, s.WaitFor(TokenBootloaderReady, time.Second))
}

func TestWaitForTimeout(t *testing.T) {
	s := newTestScanner([]byte("booting rev 2\r\n"), []byte("clock ok\r\n"))
	err := s.WaitFor(TokenHeaderOK, 20*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestWaitForDeviceError(t *testing.T) {
	s := newTestScanner([]byte("ERROR: flash write failed\r\n"))
	start := time.Now()
	err := s.WaitFor(TokenVerifyOK, 10*time.Second)
	require.ErrorIs(t, err, ErrDeviceError)
	require.ErrorContains(t, err, "flash write failed")
	// the error line must short-circuit the wait
	require.Less(t, time.Since(start), time.Second)
}

func TestWaitForDropsInvalidBytes(t *testing.T) {
	s := newTestScanner([]byte("\xff\xfeVERIFY-OK\xff\r\n"))
	require.NoError(t, s.WaitFor(TokenVerifyOK, time.Second))
}

func TestWaitForSkipsEmptyLines(t *testing.T) {
	s := newTestScanner([]byte("\r\n\r\nCHUNK-OK\r\n"))
	require.NoError(t, s.WaitFor(TokenChunkOK, time.Second))
}

func TestWaitForBufferedAcrossCalls(t *testing.T) {
	// two acknowledgements arriving in a single read must satisfy two waits
	s := newTestScanner([]byte("CHUNK-OK\nCHUNK-OK\n"))
	require.NoError(t, s.WaitFor(TokenChunkOK, time.Second))
	require.NoError(t, s.WaitFor(TokenChunkOK, 20*time.Millisecond))
}

// chatterReader produces an endless stream of unrelated lines
type chatterReader struct{}

func (r *chatterReader) Read(b []byte) (int, error) {
	return copy(b, "debug: heartbeat tick\r\n"), nil
}

func TestWaitForTimeoutWhileDeviceChatters(t *testing.T) {
	// a device that never stops talking must still hit the deadline
	s := NewScanner(&chatterReader{})
	s.Interval = time.Millisecond
	start := time.Now()
	err := s.WaitFor(TokenHeaderOK, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), time.Second)
}

// noNewlineReader streams bytes that never complete a line
type noNewlineReader struct{}

func (r *noNewlineReader) Read(b []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return copy(b, "...."), nil
}

func TestWaitForTimeoutWithoutNewline(t *testing.T) {
	s := NewScanner(&noNewlineReader{})
	s.Interval = time.Millisecond
	start := time.Now()
	err := s.WaitFor(TokenHeaderOK, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), time.Second)
}

// slowReader models a serial port whose read blocks for the read
// timeout before reporting no data
type slowReader struct {
	delay time.Duration
}

func (r *slowReader) Read(b []byte) (int, error) {
	time.Sleep(r.delay)
	return 0, nil
}

func TestWaitForPollCadenceDoesNotStack(t *testing.T) {
	// the sleep must only cover whatever the blocking read left of the
	// interval, keeping the poll cycle at ~Interval instead of doubling
	s := NewScanner(&slowReader{delay: 60 * time.Millisecond})
	s.Interval = 60 * time.Millisecond
	start := time.Now()
	err := s.WaitFor(TokenHeaderOK, 150*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), 220*time.Millisecond)
}

type brokenReader struct{}

func (r *brokenReader) Read(b []byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestWaitForReadError(t *testing.T) {
	s := NewScanner(&brokenReader{})
	err := s.WaitFor(TokenHeaderOK, time.Second)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTimeout)
	require.NotErrorIs(t, err, ErrDeviceError)
}
