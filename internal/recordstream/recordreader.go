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

// Package recordstream adapts the one-shot result of a query (spec §4.4)
// into an array.RecordReader, the shape ExecuteQuery's callers expect.
package recordstream

import (
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/borodark/adbc-driver-cube/internal/arrowipc"
)

// Reader is a single-shot array.RecordReader wrapping the one arrow.Record
// decoded from a query's Arrow IPC payload (spec §3.3: Cube returns exactly
// one Schema message followed by at most one RecordBatch). Next reports a
// record at most once; every subsequent call reports end-of-stream.
type Reader struct {
	schema  *arrow.Schema
	rec     arrow.Record
	current arrow.Record
	yielded bool
	err     error

	refCount int64
}

// NewReader decodes buf (the concatenated Schema+RecordBatch Arrow IPC bytes
// of a QueryResult, spec §4.3.1) and returns an array.RecordReader over its
// single batch. If the stream carries a Schema with no following
// RecordBatch (an empty result, spec §8 boundary behavior), Next never
// yields a record but Schema is still available.
func NewReader(buf []byte, mem memory.Allocator) (*Reader, error) {
	ipcReader := arrowipc.NewReader(buf, mem)
	if err := ipcReader.Init(); err != nil {
		return nil, err
	}
	schema, err := ipcReader.Schema()
	if err != nil {
		return nil, err
	}

	rec, ok, err := ipcReader.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Reader{schema: schema, refCount: 1}, nil
	}
	return &Reader{schema: schema, rec: rec, refCount: 1}, nil
}

// Schema returns the reader's schema.
func (r *Reader) Schema() *arrow.Schema { return r.schema }

// Next advances to the single record on its first call and reports false on
// every call after (spec §4.4 single-shot contract).
func (r *Reader) Next() bool {
	if r.yielded || r.rec == nil {
		if r.current != nil {
			r.current.Release()
			r.current = nil
		}
		return false
	}
	r.yielded = true
	r.current = r.rec
	r.rec = nil
	return true
}

// Record returns the record made current by the last successful Next.
func (r *Reader) Record() arrow.Record { return r.current }

// Err always returns nil: a decode failure surfaces from NewReader, not
// from Next, because the whole batch is materialized up front.
func (r *Reader) Err() error { return r.err }

// Retain increments the reader's reference count.
func (r *Reader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decrements the reference count and, on reaching zero, releases
// the held record. It is safe to call on an already-released reader.
func (r *Reader) Release() {
	if atomic.AddInt64(&r.refCount, -1) != 0 {
		return
	}
	if r.current != nil {
		r.current.Release()
		r.current = nil
	}
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
}

var _ array.RecordReader = (*Reader)(nil)
