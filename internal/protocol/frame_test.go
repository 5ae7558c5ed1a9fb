// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package protocol

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	fc := newFramedConn(client)
	fs := newFramedConn(server)

	done := make(chan error, 1)
	go func() {
		done <- fc.writeFrame([]byte("hello frame"))
	}()

	payload, err := fs.readFrame()
	require.NoError(t, err)
	require.Equal(t, "hello frame", string(payload))
	require.NoError(t, <-done)
}

func TestFrameEmptyPayload(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	fc := newFramedConn(client)
	fs := newFramedConn(server)

	go func() { _ = fc.writeFrame(nil) }()

	payload, err := fs.readFrame()
	require.NoError(t, err)
	require.Empty(t, payload)
}

func TestFrameOversizedRejected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	fc := newFramedConn(client)
	fs := newFramedConn(server)

	// Write a bare length prefix one byte over the cap; the reader must
	// reject based on the length alone, without trying to read a payload
	// that large.
	go func() {
		oversized := make([]byte, 4)
		for i := 0; i < 4; i++ {
			oversized[i] = byte(uint32(maxFramePayload+1) >> (8 * (3 - i)))
		}
		_, _ = fc.conn.Write(oversized)
	}()

	_, err := fs.readFrame()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, KindProtocol, perr.Kind)
}

func TestFrameClosedMidFrame(t *testing.T) {
	client, server := net.Pipe()
	fs := newFramedConn(server)

	go func() {
		// Write a length prefix announcing 10 bytes, then close without
		// sending the payload.
		var lenBuf [4]byte
		lenBuf[3] = 10
		_, _ = client.Write(lenBuf[:])
		client.Close()
	}()

	_, err := fs.readFrame()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, KindIO, perr.Kind)
}
