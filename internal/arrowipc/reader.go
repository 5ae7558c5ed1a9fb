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

// Package arrowipc is a from-scratch parser of the Arrow IPC streaming
// format (spec §4.3): continuation-marker framing, FlatBuffer-encoded
// Schema and RecordBatch messages, and body buffers, materialized into
// arrow-go arrays via the typed array.Builder append API.
package arrowipc

import (
	"encoding/binary"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

const (
	continuationMarker = 0xFFFFFFFF

	messageHeaderSchema      = 1
	messageHeaderRecordBatch = 3
)

// FieldNode and Buffer are fixed-size (16-byte) inline structs within a
// RecordBatch's nodes/buffers vectors.
const (
	fieldNodeSize = 16
	bufferSize    = 16
)

// Reader parses one Schema message followed by at most one RecordBatch
// message out of a single concatenated Arrow IPC byte buffer (spec §3.3).
// It is single-shot (spec §4.3.7): after Next has yielded its one batch,
// subsequent calls report end-of-stream.
type Reader struct {
	buf    []byte
	offset int
	mem    memory.Allocator

	schema      *arrow.Schema
	schemaReady bool
	fields      []fieldSpec
	yielded     bool
}

// fieldSpec is the per-field metadata the reader carries from the Schema
// message through to RecordBatch decoding (spec §3.4).
type fieldSpec struct {
	name     string
	nullable bool
	dtype    arrow.DataType
	// bufferCount is how many entries of RecordBatch.buffers this field
	// consumes (spec §4.3.4): 1 (validity) + 1 (fixed-width data) or
	// 1 (validity) + 2 (offsets, data) for variable-length fields.
	bufferCount int
}

// NewReader constructs a reader over buf. mem is the allocator used to
// build the single output record batch.
func NewReader(buf []byte, mem memory.Allocator) *Reader {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Reader{buf: buf, mem: mem}
}

// Init parses the leading Schema message. It must be called before Schema
// or Next.
func (r *Reader) Init() error {
	cont, msgLen, isEOS, err := r.readHeader()
	if err != nil {
		return err
	}
	if isEOS {
		return errInvalidData("Arrow IPC stream ended before a Schema message was read")
	}
	_ = cont

	msgBuf := r.buf[r.offset : r.offset+int(msgLen)]
	r.advance(msgLen)

	msg, err := rootTable(msgBuf)
	if err != nil {
		return err
	}
	headerType := msg.getUint8(1, 0)
	if headerType != messageHeaderSchema {
		return errInvalidData(fmt.Sprintf("expected Schema message, got header_type=%d", headerType))
	}
	headerTable, ok := msg.getTable(2)
	if !ok {
		return errInvalidData("Schema message missing header table")
	}
	schema, fields, err := parseSchema(headerTable)
	if err != nil {
		return err
	}
	r.schema = schema
	r.fields = fields
	r.schemaReady = true
	return nil
}

// Schema returns the parsed schema. Fails if Init has not yet succeeded.
func (r *Reader) Schema() (*arrow.Schema, error) {
	if !r.schemaReady {
		return nil, errInvalidDataKind("get_schema called before schema is available")
	}
	return r.schema, nil
}

// Next yields the single parsed batch on its first call; every subsequent
// call reports end-of-stream (ok=false, err=nil), per spec §4.3.7/§4.4.
func (r *Reader) Next() (rec arrow.Record, ok bool, err error) {
	if r.yielded {
		return nil, false, nil
	}
	r.yielded = true

	_, msgLen, isEOS, err := r.readHeader()
	if err != nil {
		return nil, false, err
	}
	if isEOS {
		// Schema + EOS with no batch: an empty stream (spec §8 boundary
		// behavior, scenario 6).
		return nil, false, nil
	}

	msgBuf := r.buf[r.offset : r.offset+int(msgLen)]
	r.advance(msgLen)

	msg, err := rootTable(msgBuf)
	if err != nil {
		return nil, false, err
	}
	headerType := msg.getUint8(1, 0)
	if headerType != messageHeaderRecordBatch {
		return nil, false, errInvalidData(fmt.Sprintf("expected RecordBatch message, got header_type=%d", headerType))
	}
	bodyLength := msg.getInt64(3, 0)
	if r.offset+int(bodyLength) > len(r.buf) {
		return nil, false, errInvalidData("RecordBatch body extends beyond buffer")
	}
	body := r.buf[r.offset : r.offset+int(bodyLength)]
	r.offset += int(bodyLength)

	headerTable, ok := msg.getTable(2)
	if !ok {
		return nil, false, errInvalidData("RecordBatch message missing header table")
	}
	rec, err = buildRecordBatch(r.mem, r.schema, r.fields, headerTable, body)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// readHeader reads the 8-byte continuation+msg_len header at the current
// offset (spec §4.3.1 steps 1-2) and advances past it. isEOS reports the
// zero-length end-of-stream marker.
func (r *Reader) readHeader() (continuation uint32, msgLen uint32, isEOS bool, err error) {
	if r.offset+8 > len(r.buf) {
		return 0, 0, false, errInvalidData("buffer too short for IPC message header")
	}
	continuation = binary.LittleEndian.Uint32(r.buf[r.offset : r.offset+4])
	if continuation != continuationMarker {
		return 0, 0, false, errProtocol("invalid Arrow IPC continuation marker")
	}
	msgLen = binary.LittleEndian.Uint32(r.buf[r.offset+4 : r.offset+8])
	r.offset += 8
	if msgLen == 0 {
		return continuation, 0, true, nil
	}
	if r.offset+int(msgLen) > len(r.buf) {
		return 0, 0, false, errInvalidData("IPC message body extends beyond buffer")
	}
	return continuation, msgLen, false, nil
}

// advance moves the cursor past a just-read metadata FlatBuffer of length
// n and pads to the next 8-byte boundary (spec §4.3.1 step 4 / §3.3
// alignment invariant).
func (r *Reader) advance(n uint32) {
	r.offset += int(n)
	if rem := r.offset % 8; rem != 0 {
		r.offset += 8 - rem
	}
}

func errProtocol(msg string) error {
	return &DecodeError{Msg: msg}
}

func errInvalidDataKind(msg string) error {
	return &DecodeError{Msg: msg}
}
