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

// Package arrowipctest builds real Arrow IPC streaming byte sequences with
// arrow-go's own ipc.Writer, so internal/arrowipc's hand-rolled reader can
// be tested against the canonical encoder's output rather than hand-crafted
// bytes.
package arrowipctest

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

// BuildInt64Batch returns an Arrow IPC stream with one int64 column named
// name, nullable, with the given values and a validity mask (nil means all
// valid).
func BuildInt64Batch(t *testing.T, name string, values []int64, valid []bool) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{{Name: name, Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)

	mem := memory.DefaultAllocator
	bldr := array.NewInt64Builder(mem)
	defer bldr.Release()
	if valid == nil {
		bldr.AppendValues(values, nil)
	} else {
		mask := make([]bool, len(values))
		for i := range mask {
			mask[i] = valid[i]
		}
		bldr.AppendValues(values, mask)
	}
	arr := bldr.NewInt64Array()
	defer arr.Release()

	rec := array.NewRecord(schema, []arrow.Array{arr}, int64(len(values)))
	defer rec.Release()

	return writeStream(t, schema, rec)
}

// BuildStringBatch returns an Arrow IPC stream with one nullable string
// column. An entry whose flag in valid is false becomes a null (its value
// in values is ignored); a nil valid means all entries are valid.
func BuildStringBatch(t *testing.T, name string, values []string, valid []bool) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}}, nil)

	mem := memory.DefaultAllocator
	bldr := array.NewStringBuilder(mem)
	defer bldr.Release()
	for i, v := range values {
		if valid != nil && !valid[i] {
			bldr.AppendNull()
			continue
		}
		bldr.Append(v)
	}
	arr := bldr.NewStringArray()
	defer arr.Release()

	rec := array.NewRecord(schema, []arrow.Array{arr}, int64(len(values)))
	defer rec.Release()

	return writeStream(t, schema, rec)
}

// BuildSchemaOnlyStream returns an Arrow IPC stream consisting of a Schema
// message immediately followed by end-of-stream, with no RecordBatch.
func BuildSchemaOnlyStream(t *testing.T, name string) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{{Name: name, Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	return writeStream(t, schema)
}

// BuildStringColumnsBatch returns an Arrow IPC stream with one non-nullable
// string column per name, each populated from the corresponding slice in
// columns (all must be the same length).
func BuildStringColumnsBatch(t *testing.T, names []string, columns [][]string) []byte {
	t.Helper()
	require.Equal(t, len(names), len(columns))

	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.DefaultAllocator
	cols := make([]arrow.Array, len(names))
	numRows := 0
	if len(columns) > 0 {
		numRows = len(columns[0])
	}
	for i, values := range columns {
		bldr := array.NewStringBuilder(mem)
		bldr.AppendValues(values, nil)
		cols[i] = bldr.NewStringArray()
		bldr.Release()
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	rec := array.NewRecord(schema, cols, int64(numRows))
	defer rec.Release()

	return writeStream(t, schema, rec)
}

func writeStream(t *testing.T, schema *arrow.Schema, recs ...arrow.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}
