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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Type union tags (spec §4.3.2/§4.3.3), values per the Arrow Flatbuffers
// Type union declaration.
const (
	typeInt           = 2
	typeFloatingPoint = 3
	typeBinary        = 4
	typeUtf8          = 5
	typeBool          = 6
	typeDate          = 8
	typeTime          = 9
	typeTimestamp     = 10
)

const (
	precisionHalf   = 0
	precisionSingle = 1
	precisionDouble = 2
)

// parseSchema reads a Schema FlatBuffer table (spec §4.3.2) and produces an
// arrow.Schema plus the per-field metadata the RecordBatch decoder needs.
func parseSchema(schemaTable table) (*arrow.Schema, []fieldSpec, error) {
	fieldsVec, ok := schemaTable.getVector(1)
	if !ok {
		return arrow.NewSchema(nil, nil), nil, nil
	}
	arrowFields := make([]arrow.Field, 0, fieldsVec.length)
	specs := make([]fieldSpec, 0, fieldsVec.length)
	for i := uint32(0); i < fieldsVec.length; i++ {
		ft := fieldsVec.tableAt(i)
		spec, err := parseField(ft)
		if err != nil {
			return nil, nil, err
		}
		arrowFields = append(arrowFields, arrow.Field{Name: spec.name, Type: spec.dtype, Nullable: spec.nullable})
		specs = append(specs, spec)
	}
	return arrow.NewSchema(arrowFields, nil), specs, nil
}

func parseField(ft table) (fieldSpec, error) {
	name, _ := ft.getString(0)
	nullable := ft.getBool(1, true)
	typeTag := ft.getUint8(2, 0)
	typeTable, _ := ft.getTable(3)

	dtype, bufferCount, err := mapFieldType(typeTag, typeTable)
	if err != nil {
		return fieldSpec{}, fmt.Errorf("field %q: %w", name, err)
	}
	return fieldSpec{name: name, nullable: nullable, dtype: dtype, bufferCount: bufferCount}, nil
}

// mapFieldType maps a FlatBuffer Type union tag + value table to a logical
// Arrow type (spec §4.3.3) and the number of RecordBatch buffers the field
// consumes (spec §4.3.4: 1 validity + 1 data for fixed-width, 1 validity +
// 2 (offsets, data) for variable-length).
//
// This reads bitWidth/is_signed/precision off the relevant subtables
// rather than collapsing every Int to i64 and every FloatingPoint to f64 —
// see DESIGN.md Open Question 1 for why this departs from the reference.
func mapFieldType(typeTag uint8, typeTable table) (arrow.DataType, int, error) {
	switch typeTag {
	case typeInt:
		bitWidth := typeTable.getInt32(0, 64)
		isSigned := typeTable.getBool(1, false)
		dtype, err := intType(bitWidth, isSigned)
		return dtype, 2, err
	case typeFloatingPoint:
		switch typeTable.getInt16(0, precisionHalf) {
		case precisionSingle:
			return arrow.PrimitiveTypes.Float32, 2, nil
		case precisionHalf:
			return nil, 0, fmt.Errorf("half-precision float is unsupported")
		default:
			return arrow.PrimitiveTypes.Float64, 2, nil
		}
	case typeBool:
		return arrow.FixedWidthTypes.Boolean, 2, nil
	case typeUtf8:
		return arrow.BinaryTypes.String, 3, nil
	case typeBinary:
		return arrow.BinaryTypes.Binary, 3, nil
	case typeDate:
		// spec §4.3.3: Date maps to date-as-days regardless of the
		// FlatBuffer DateUnit subfield.
		return arrow.FixedWidthTypes.Date32, 2, nil
	case typeTime:
		return arrow.FixedWidthTypes.Time64us, 2, nil
	case typeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us, 2, nil
	default:
		return nil, 0, fmt.Errorf("unsupported FlatBuffer type tag %d", typeTag)
	}
}

func intType(bitWidth int32, isSigned bool) (arrow.DataType, error) {
	switch bitWidth {
	case 8:
		if isSigned {
			return arrow.PrimitiveTypes.Int8, nil
		}
		return arrow.PrimitiveTypes.Uint8, nil
	case 16:
		if isSigned {
			return arrow.PrimitiveTypes.Int16, nil
		}
		return arrow.PrimitiveTypes.Uint16, nil
	case 32:
		if isSigned {
			return arrow.PrimitiveTypes.Int32, nil
		}
		return arrow.PrimitiveTypes.Uint32, nil
	case 64:
		if isSigned {
			return arrow.PrimitiveTypes.Int64, nil
		}
		return arrow.PrimitiveTypes.Uint64, nil
	default:
		return nil, fmt.Errorf("unsupported Int bitWidth %d", bitWidth)
	}
}

// recordBatchBuffer is one entry of a RecordBatch's `buffers` vector: an
// {offset, length} struct, inline (spec §4.3.2).
type recordBatchBuffer struct {
	offset int64
	length int64
}

// buildRecordBatch decodes a RecordBatch FlatBuffer table (spec §4.3.2) and
// its accompanying body into one arrow.Record (spec §4.3.4-§4.3.6).
func buildRecordBatch(mem memory.Allocator, schema *arrow.Schema, fields []fieldSpec, rbTable table, body []byte) (arrow.Record, error) {
	length := rbTable.getInt64(0, 0)

	buffersVec, ok := rbTable.getVector(2)
	if !ok {
		return nil, errInvalidData("RecordBatch missing buffers vector")
	}
	buffers := make([]recordBatchBuffer, buffersVec.length)
	for i := uint32(0); i < buffersVec.length; i++ {
		pos := buffersVec.structAt(i, bufferSize)
		buffers[i] = recordBatchBuffer{
			offset: int64(binary.LittleEndian.Uint64(buffersVec.buf[pos : pos+8])),
			length: int64(binary.LittleEndian.Uint64(buffersVec.buf[pos+8 : pos+16])),
		}
	}

	cols := make([]arrow.Array, len(fields))
	bufIdx := 0
	for i, spec := range fields {
		nBufs := spec.bufferCount
		if bufIdx+nBufs > len(buffers) {
			return nil, errInvalidData(fmt.Sprintf("field %q needs %d buffers, only %d remain", spec.name, nBufs, len(buffers)-bufIdx))
		}
		fieldBuffers := buffers[bufIdx : bufIdx+nBufs]
		bufIdx += nBufs

		col, err := buildArrayForField(mem, spec, fieldBuffers, body, int(length))
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	return array.NewRecord(schema, cols, length), nil
}

// extractBuffer slices the body by a RecordBatch buffer's {offset, length}
// (spec §4.3.4 "ExtractBuffer").
func extractBuffer(body []byte, b recordBatchBuffer) []byte {
	if b.length == 0 {
		return nil
	}
	return body[b.offset : b.offset+b.length]
}

// getBit reads bit i of a bit-packed buffer (spec §4.3.5 Validity/Boolean).
func getBit(buf []byte, i int) bool {
	return buf[i/8]&(1<<uint(i%8)) != 0
}

func isValid(validity []byte, i int) bool {
	return validity == nil || getBit(validity, i)
}

// buildArrayForField appends length rows into a fresh array.Builder for
// spec's field buffers, in the order of spec §4.3.4 (validity then data for
// fixed-width types; validity, offsets, then data for variable-length
// types), and returns the finished array.
func buildArrayForField(mem memory.Allocator, spec fieldSpec, bufs []recordBatchBuffer, body []byte, length int) (arrow.Array, error) {
	validity := extractBuffer(body, bufs[0])

	bldr := array.NewBuilder(mem, spec.dtype)
	defer bldr.Release()

	switch dt := spec.dtype.(type) {
	case *arrow.Int8Type:
		appendFixedWidth(bldr.(*array.Int8Builder), extractBuffer(body, bufs[1]), validity, length, 1, func(b []byte) int8 { return int8(b[0]) })
	case *arrow.Int16Type:
		appendFixedWidth(bldr.(*array.Int16Builder), extractBuffer(body, bufs[1]), validity, length, 2, func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) })
	case *arrow.Int32Type:
		appendFixedWidth(bldr.(*array.Int32Builder), extractBuffer(body, bufs[1]), validity, length, 4, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
	case *arrow.Int64Type:
		appendFixedWidth(bldr.(*array.Int64Builder), extractBuffer(body, bufs[1]), validity, length, 8, func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })
	case *arrow.Uint8Type:
		appendFixedWidth(bldr.(*array.Uint8Builder), extractBuffer(body, bufs[1]), validity, length, 1, func(b []byte) uint8 { return b[0] })
	case *arrow.Uint16Type:
		appendFixedWidth(bldr.(*array.Uint16Builder), extractBuffer(body, bufs[1]), validity, length, 2, func(b []byte) uint16 { return binary.LittleEndian.Uint16(b) })
	case *arrow.Uint32Type:
		appendFixedWidth(bldr.(*array.Uint32Builder), extractBuffer(body, bufs[1]), validity, length, 4, func(b []byte) uint32 { return binary.LittleEndian.Uint32(b) })
	case *arrow.Uint64Type:
		appendFixedWidth(bldr.(*array.Uint64Builder), extractBuffer(body, bufs[1]), validity, length, 8, func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) })
	case *arrow.Float32Type:
		appendFixedWidth(bldr.(*array.Float32Builder), extractBuffer(body, bufs[1]), validity, length, 4, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })
	case *arrow.Float64Type:
		appendFixedWidth(bldr.(*array.Float64Builder), extractBuffer(body, bufs[1]), validity, length, 8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })
	case *arrow.BooleanType:
		appendBoolean(bldr.(*array.BooleanBuilder), extractBuffer(body, bufs[1]), validity, length)
	case *arrow.Date32Type:
		appendFixedWidth(bldr.(*array.Date32Builder), extractBuffer(body, bufs[1]), validity, length, 4, func(b []byte) arrow.Date32 { return arrow.Date32(int32(binary.LittleEndian.Uint32(b))) })
	case *arrow.Time64Type:
		appendFixedWidth(bldr.(*array.Time64Builder), extractBuffer(body, bufs[1]), validity, length, 8, func(b []byte) arrow.Time64 { return arrow.Time64(int64(binary.LittleEndian.Uint64(b))) })
	case *arrow.TimestampType:
		appendFixedWidth(bldr.(*array.TimestampBuilder), extractBuffer(body, bufs[1]), validity, length, 8, func(b []byte) arrow.Timestamp { return arrow.Timestamp(int64(binary.LittleEndian.Uint64(b))) })
	case *arrow.StringType:
		appendVariableLength(bldr.(*array.StringBuilder), extractBuffer(body, bufs[1]), extractBuffer(body, bufs[2]), validity, length, func(b *array.StringBuilder, s []byte) { b.Append(string(s)) })
	case *arrow.BinaryType:
		appendVariableLength(bldr.(*array.BinaryBuilder), extractBuffer(body, bufs[1]), extractBuffer(body, bufs[2]), validity, length, func(b *array.BinaryBuilder, s []byte) { b.Append(s) })
	default:
		return nil, fmt.Errorf("unsupported builder for Arrow type %s", dt)
	}

	return bldr.NewArray(), nil
}

// appendFixedWidth appends `length` values of a fixed-width scalar type,
// decoding each from its own elemSize-byte slice of the data buffer (spec
// §4.3.5 "Fixed-width").
func appendFixedWidth[T any](bldr interface {
	Append(T)
	AppendNull()
}, data, validity []byte, length, elemSize int, decode func([]byte) T) {
	for i := 0; i < length; i++ {
		if !isValid(validity, i) {
			bldr.AppendNull()
			continue
		}
		start := i * elemSize
		bldr.Append(decode(data[start : start+elemSize]))
	}
}

// appendBoolean appends `length` bit-packed boolean values (spec §4.3.5
// "Boolean").
func appendBoolean(bldr *array.BooleanBuilder, data, validity []byte, length int) {
	for i := 0; i < length; i++ {
		if !isValid(validity, i) {
			bldr.AppendNull()
			continue
		}
		bldr.Append(getBit(data, i))
	}
}

// appendVariableLength appends `length` string/binary values using i32
// offsets into data (spec §4.3.5 "String / Binary").
func appendVariableLength[B interface{ AppendNull() }](bldr B, offsetsBuf, data, validity []byte, length int, appendValue func(B, []byte)) {
	offsets := make([]int32, length+1)
	for i := 0; i <= length; i++ {
		offsets[i] = int32(binary.LittleEndian.Uint32(offsetsBuf[i*4 : i*4+4]))
	}
	for i := 0; i < length; i++ {
		if !isValid(validity, i) {
			bldr.AppendNull()
			continue
		}
		appendValue(bldr, data[offsets[i]:offsets[i+1]])
	}
}
