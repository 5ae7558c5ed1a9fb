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

package cube

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/borodark/adbc-driver-cube/internal/protocol"
)

// fakeServer drives the server side of the wire protocol over a net.Pipe,
// so connection_test.go and statement_test.go can exercise a full session
// without a real socket. It duplicates the minimal framing and message
// encoding already covered by internal/protocol's own tests, rather than
// reaching into that package's unexported codec.
type fakeServer struct {
	t    *testing.T
	conn net.Conn
}

func newFakeSession(t *testing.T) (*protocol.Session, *fakeServer) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	return protocol.NewSessionFromConn(client), &fakeServer{t: t, conn: server}
}

func (f *fakeServer) readFrame() []byte {
	f.t.Helper()
	var lenBuf [4]byte
	_, err := io.ReadFull(f.conn, lenBuf[:])
	require.NoError(f.t, err)
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if n > 0 {
		_, err = io.ReadFull(f.conn, buf)
		require.NoError(f.t, err)
	}
	return buf
}

func (f *fakeServer) writeFrame(payload []byte) {
	f.t.Helper()
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	_, err := f.conn.Write(lenBuf[:])
	require.NoError(f.t, err)
	if len(payload) > 0 {
		_, err = f.conn.Write(payload)
		require.NoError(f.t, err)
	}
}

func putU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putI64(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

func putString(buf []byte, s string) []byte {
	buf = putU32(buf, uint32(len(s)))
	return append(buf, s...)
}

func putBytes(buf []byte, b []byte) []byte {
	buf = putU32(buf, uint32(len(b)))
	return append(buf, b...)
}

// recvHandshakeRequest consumes and discards the client's handshake frame.
func (f *fakeServer) recvHandshakeRequest() {
	f.readFrame()
}

func (f *fakeServer) sendHandshakeResponse(version uint32, serverVersion string) {
	buf := []byte{0x02}
	buf = putU32(buf, version)
	buf = putString(buf, serverVersion)
	f.writeFrame(buf)
}

func (f *fakeServer) recvAuthRequest() {
	f.readFrame()
}

func (f *fakeServer) sendAuthResponse(success bool, sessionID string) {
	buf := []byte{0x04}
	if success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = putString(buf, sessionID)
	f.writeFrame(buf)
}

func (f *fakeServer) recvQueryRequest() {
	f.readFrame()
}

func (f *fakeServer) sendQueryBatch(ipc []byte) {
	buf := []byte{0x12}
	buf = putBytes(buf, ipc)
	f.writeFrame(buf)
}

func (f *fakeServer) sendQueryComplete(rows int64) {
	buf := []byte{0x13}
	buf = putI64(buf, rows)
	f.writeFrame(buf)
}

// newAuthenticatedFakeSession returns a session already past NewSessionFromConn's
// Connected state and drives a single Authenticate round trip against the
// fake server, skipping the handshake exchange covered by
// internal/protocol's own tests.
func newAuthenticatedFakeSession(t *testing.T) (*protocol.Session, *fakeServer) {
	t.Helper()
	sess, srv := newFakeSession(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.recvAuthRequest()
		srv.sendAuthResponse(true, "session-test-1")
	}()

	require.NoError(t, sess.Authenticate("test-token", ""))
	<-done
	return sess, srv
}
