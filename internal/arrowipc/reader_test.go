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

package arrowipc

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/borodark/adbc-driver-cube/internal/arrowipc/arrowipctest"
)

// Scenario 3 (spec §8): single-row SELECT of one int64 column.
func TestReader_SingleRowInt64(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	buf := arrowipctest.BuildInt64Batch(t, "id", []int64{7}, nil)

	r := NewReader(buf, mem)
	require.NoError(t, r.Init())

	schema, err := r.Schema()
	require.NoError(t, err)
	require.Equal(t, 1, schema.NumFields())
	require.Equal(t, "id", schema.Field(0).Name)

	rec, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	defer rec.Release()

	require.Equal(t, int64(1), rec.NumRows())
	require.Equal(t, int64(7), rec.Column(0).(interface{ Value(int) int64 }).Value(0))

	_, ok, err = r.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

// Scenario 4 (spec §8): three-row nullable string column, with a null in
// the middle.
func TestReader_ThreeRowNullableString(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	buf := arrowipctest.BuildStringBatch(t, "label", []string{"a", "", "c"}, []bool{true, false, true})

	r := NewReader(buf, mem)
	require.NoError(t, r.Init())

	rec, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	defer rec.Release()

	require.Equal(t, int64(3), rec.NumRows())
	col := rec.Column(0)
	require.False(t, col.IsNull(0))
	require.True(t, col.IsNull(1))
	require.False(t, col.IsNull(2))
}

// Scenario 6 (spec §8): Schema followed directly by end-of-stream, no
// RecordBatch — an empty result set.
func TestReader_SchemaOnlyNoBatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	buf := arrowipctest.BuildSchemaOnlyStream(t, "id")

	r := NewReader(buf, mem)
	require.NoError(t, r.Init())

	schema, err := r.Schema()
	require.NoError(t, err)
	require.Equal(t, "id", schema.Field(0).Name)

	_, ok, err := r.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReader_SchemaCalledBeforeInit(t *testing.T) {
	r := NewReader([]byte{}, memory.DefaultAllocator)
	_, err := r.Schema()
	require.Error(t, err)
}
