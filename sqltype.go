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
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// sqlTypeToArrow maps a SQL type name, as reported by information_schema,
// to its Arrow result type (spec §6.5). Matching is case-insensitive and
// ignores surrounding whitespace; an unrecognized name falls back
// permissively to Binary rather than erroring.
func sqlTypeToArrow(name string) arrow.DataType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bigint", "int8":
		return arrow.PrimitiveTypes.Int64
	case "integer", "int", "int4":
		return arrow.PrimitiveTypes.Int32
	case "smallint", "int2":
		return arrow.PrimitiveTypes.Int16
	case "tinyint", "int1":
		return arrow.PrimitiveTypes.Int8
	case "bigint unsigned", "uint8":
		return arrow.PrimitiveTypes.Uint64
	case "integer unsigned", "uint", "uint4":
		return arrow.PrimitiveTypes.Uint32
	case "smallint unsigned", "uint2":
		return arrow.PrimitiveTypes.Uint16
	case "tinyint unsigned", "uint1":
		return arrow.PrimitiveTypes.Uint8
	case "double", "double precision", "float8":
		return arrow.PrimitiveTypes.Float64
	case "real", "float", "float4":
		return arrow.PrimitiveTypes.Float32
	case "boolean", "bool":
		return arrow.FixedWidthTypes.Boolean
	case "varchar", "character varying", "text", "char", "string":
		return arrow.BinaryTypes.String
	case "bytea", "binary", "varbinary":
		return arrow.BinaryTypes.Binary
	case "date":
		return arrow.FixedWidthTypes.Date32
	case "time", "time without time zone", "time with time zone":
		return arrow.FixedWidthTypes.Time64us
	case "timestamp", "timestamp without time zone", "timestamptz", "timestamp with time zone":
		return arrow.FixedWidthTypes.Timestamp_us
	case "numeric", "decimal", "number", "json", "jsonb", "uuid":
		return arrow.BinaryTypes.String
	default:
		return arrow.BinaryTypes.Binary
	}
}
