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
	"encoding/hex"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// paramToText converts an Arrow scalar value to the server's text literal
// form (spec §6.6). It has no null case: for a null value the caller emits
// an empty string marked null instead of calling this.
func paramToText(dtype arrow.DataType, value any) (string, error) {
	switch dtype.ID() {
	case arrow.BOOL:
		if value.(bool) {
			return "true", nil
		}
		return "false", nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return fmt.Sprintf("%d", value), nil
	case arrow.FLOAT32:
		return fmt.Sprintf("%.6f", value.(float32)), nil
	case arrow.FLOAT64:
		return fmt.Sprintf("%.15f", value.(float64)), nil
	case arrow.STRING, arrow.LARGE_STRING:
		return value.(string), nil
	case arrow.BINARY, arrow.LARGE_BINARY:
		return `\x` + hex.EncodeToString(value.([]byte)), nil
	case arrow.DATE32:
		days := int64(value.(arrow.Date32))
		t := time.Unix(days*86400, 0).UTC()
		return t.Format("2006-01-02"), nil
	case arrow.TIMESTAMP:
		ts, ok := dtype.(*arrow.TimestampType)
		if !ok {
			return "", fmt.Errorf("paramToText: timestamp value without TimestampType")
		}
		if ts.Unit != arrow.Microsecond {
			return "", fmt.Errorf("paramToText: unsupported timestamp unit %s", ts.Unit)
		}
		us := int64(value.(arrow.Timestamp))
		t := time.Unix(us/1_000_000, (us%1_000_000)*1_000).UTC()
		return t.Format("2006-01-02T15:04:05.000000"), nil
	default:
		return "", fmt.Errorf("paramToText: unsupported Arrow type %s", dtype)
	}
}
