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

import "encoding/binary"

// MessageType is the wire tag occupying payload byte 0 of every frame.
// Values are normative (spec §3.2).
type MessageType uint8

const (
	MessageHandshakeRequest  MessageType = 0x01
	MessageHandshakeResponse MessageType = 0x02
	MessageAuthRequest       MessageType = 0x03
	MessageAuthResponse      MessageType = 0x04
	MessageQueryRequest      MessageType = 0x10
	MessageQueryResponseSchema MessageType = 0x11
	MessageQueryResponseBatch  MessageType = 0x12
	MessageQueryComplete       MessageType = 0x13
	MessageError               MessageType = 0xFF
)

// ProtocolVersion is the client's advertised handshake version.
const ProtocolVersion uint32 = 1

// putU32 appends a 4-byte big-endian u32.
func putU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// putI64 appends an 8-byte big-endian i64 (two's complement, as unsigned bytes).
func putI64(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

func putU8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func putString(buf []byte, s string) []byte {
	buf = putU32(buf, uint32(len(s)))
	return append(buf, s...)
}

func putOptionalString(buf []byte, s string) []byte {
	if s == "" {
		return putU8(buf, 0)
	}
	buf = putU8(buf, 1)
	return putString(buf, s)
}

func putBytes(buf []byte, b []byte) []byte {
	buf = putU32(buf, uint32(len(b)))
	return append(buf, b...)
}

// decoder reads primitives sequentially out of a payload with bounds checks,
// mirroring MessageCodec::Get* in the C++ reference.
type decoder struct {
	buf []byte
	pos int
}

func newDecoder(buf []byte) *decoder {
	return &decoder{buf: buf}
}

func (d *decoder) u8() (uint8, error) {
	if d.pos+1 > len(d.buf) {
		return 0, newErr(KindInvalidData, "insufficient data for u8")
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, newErr(KindInvalidData, "insufficient data for u32")
	}
	v := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *decoder) i64() (int64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, newErr(KindInvalidData, "insufficient data for i64")
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return int64(v), nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if d.pos+int(n) > len(d.buf) {
		return "", newErr(KindInvalidData, "insufficient data for string")
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) optionalStr() (string, error) {
	present, err := d.u8()
	if err != nil {
		return "", err
	}
	if present == 0 {
		return "", nil
	}
	return d.str()
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	if d.pos+int(n) > len(d.buf) {
		return nil, newErr(KindInvalidData, "insufficient data for bytes")
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func expectTag(d *decoder, want MessageType) error {
	got, err := d.u8()
	if err != nil {
		return err
	}
	if MessageType(got) != want {
		return newErr(KindInvalidData, "expected message tag 0x%02x, got 0x%02x", want, got)
	}
	return nil
}

// HandshakeRequest is sent client->server to begin a session.
type HandshakeRequest struct {
	Version uint32
}

func (m HandshakeRequest) Encode() []byte {
	buf := putU8(nil, uint8(MessageHandshakeRequest))
	buf = putU32(buf, m.Version)
	return buf
}

// HandshakeResponse is sent server->client in reply to a HandshakeRequest.
type HandshakeResponse struct {
	Version       uint32
	ServerVersion string
}

func decodeHandshakeResponse(payload []byte) (*HandshakeResponse, error) {
	d := newDecoder(payload)
	if err := expectTag(d, MessageHandshakeResponse); err != nil {
		return nil, err
	}
	resp := &HandshakeResponse{}
	var err error
	if resp.Version, err = d.u32(); err != nil {
		return nil, err
	}
	if resp.ServerVersion, err = d.str(); err != nil {
		return nil, err
	}
	return resp, nil
}

// AuthRequest carries the bearer token and optional database name.
type AuthRequest struct {
	Token    string
	Database string
}

func (m AuthRequest) Encode() []byte {
	buf := putU8(nil, uint8(MessageAuthRequest))
	buf = putString(buf, m.Token)
	buf = putOptionalString(buf, m.Database)
	return buf
}

// AuthResponse reports whether authentication succeeded.
type AuthResponse struct {
	Success   bool
	SessionID string
}

func decodeAuthResponse(payload []byte) (*AuthResponse, error) {
	d := newDecoder(payload)
	if err := expectTag(d, MessageAuthResponse); err != nil {
		return nil, err
	}
	resp := &AuthResponse{}
	success, err := d.u8()
	if err != nil {
		return nil, err
	}
	resp.Success = success != 0
	if resp.SessionID, err = d.str(); err != nil {
		return nil, err
	}
	return resp, nil
}

// QueryRequest carries the SQL text to execute.
type QueryRequest struct {
	SQL string
}

func (m QueryRequest) Encode() []byte {
	buf := putU8(nil, uint8(MessageQueryRequest))
	buf = putString(buf, m.SQL)
	return buf
}

// QueryResponseSchema carries a standalone Arrow IPC schema stream. Per
// spec §4.2/§9 note 3, this is observed but not used: the server sends a
// complete schema-only IPC stream and a complete batch IPC stream as two
// independent streams, and only the batch's own embedded schema is used.
type QueryResponseSchema struct {
	ArrowIPCSchema []byte
}

func decodeQueryResponseSchema(payload []byte) (*QueryResponseSchema, error) {
	d := newDecoder(payload)
	if err := expectTag(d, MessageQueryResponseSchema); err != nil {
		return nil, err
	}
	b, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &QueryResponseSchema{ArrowIPCSchema: b}, nil
}

// QueryResponseBatch carries one standalone Arrow IPC stream: Schema
// followed by at most one RecordBatch (plus optional EOS marker).
type QueryResponseBatch struct {
	ArrowIPCBatch []byte
}

func decodeQueryResponseBatch(payload []byte) (*QueryResponseBatch, error) {
	d := newDecoder(payload)
	if err := expectTag(d, MessageQueryResponseBatch); err != nil {
		return nil, err
	}
	b, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &QueryResponseBatch{ArrowIPCBatch: b}, nil
}

// QueryComplete signals the end of a successful query.
type QueryComplete struct {
	RowsAffected int64
}

func decodeQueryComplete(payload []byte) (*QueryComplete, error) {
	d := newDecoder(payload)
	if err := expectTag(d, MessageQueryComplete); err != nil {
		return nil, err
	}
	rows, err := d.i64()
	if err != nil {
		return nil, err
	}
	return &QueryComplete{RowsAffected: rows}, nil
}

// ErrorMessage is a server-reported error, distinct from a transport failure.
type ErrorMessage struct {
	Code    string
	Message string
}

func decodeErrorMessage(payload []byte) (*ErrorMessage, error) {
	d := newDecoder(payload)
	if err := expectTag(d, MessageError); err != nil {
		return nil, err
	}
	em := &ErrorMessage{}
	var err error
	if em.Code, err = d.str(); err != nil {
		return nil, err
	}
	if em.Message, err = d.str(); err != nil {
		return nil, err
	}
	return em, nil
}

// peekTag reads only the first byte of a payload without consuming it,
// used by the receive loop in session.go to dispatch on message type.
func peekTag(payload []byte) (MessageType, error) {
	if len(payload) < 1 {
		return 0, newErr(KindInvalidData, "empty message payload")
	}
	return MessageType(payload[0]), nil
}
