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
	"encoding/binary"
	"errors"
	"io"
	"net"
)

// maxFramePayload is the hard cap on an inbound frame's advertised length,
// a defensive guard against a misbehaving or confused peer.
const maxFramePayload = 100 * 1024 * 1024 // 100 MiB

// framedConn owns a socket and moves whole (u32 big-endian length, payload)
// units across it. It performs no interpretation of the payload; message
// semantics live in messages.go and session.go.
type framedConn struct {
	conn net.Conn
}

func newFramedConn(conn net.Conn) *framedConn {
	return &framedConn{conn: conn}
}

// readFrame blocks until a complete frame has been received, or fails with
// IO (peer went away mid-frame, or any other socket error) or Protocol
// (advertised length exceeds maxFramePayload).
func (f *framedConn) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if err := f.readExact(lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > maxFramePayload {
		return nil, newErr(KindProtocol, "frame length %d exceeds maximum of %d bytes", length, maxFramePayload)
	}
	payload := make([]byte, length)
	if length > 0 {
		if err := f.readExact(payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// writeFrame sends length-prefixed payload as a single logical frame,
// retrying on short writes until the exact byte count is sent.
func (f *framedConn) writeFrame(payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if err := f.writeExact(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return f.writeExact(payload)
}

// readExact reads len(buf) bytes, retrying on short reads. A 0-byte read
// with no error is treated as a remote close.
func (f *framedConn) readExact(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := f.conn.Read(buf[total:])
		if n == 0 && err == nil {
			return newErr(KindIO, "connection closed by peer mid-frame")
		}
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				if total == len(buf) {
					return nil
				}
				return newErr(KindIO, "connection closed by peer mid-frame")
			}
			return wrapErr(KindIO, err, "read failed")
		}
	}
	return nil
}

// writeExact writes len(buf) bytes, retrying on short writes.
func (f *framedConn) writeExact(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := f.conn.Write(buf[total:])
		total += n
		if err != nil {
			return wrapErr(KindIO, err, "write failed")
		}
	}
	return nil
}

func (f *framedConn) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
