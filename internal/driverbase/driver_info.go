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

package driverbase

import (
	"fmt"
	"sort"

	"github.com/apache/arrow-adbc/go/adbc"
)

const (
	UnknownVersion               = "(unknown or development build)"
	DefaultInfoDriverADBCVersion = adbc.AdbcVersion1_1_0
)

// DriverInfo tracks the GetInfo key/value pairs a driver reports (spec
// §6.2's driver/vendor info surface), keyed by adbc.InfoCode.
type DriverInfo struct {
	name string
	info map[adbc.InfoCode]any
}

// DefaultDriverInfo seeds the standard info codes with placeholder values,
// mirroring the upstream DefaultDriverInfo.
func DefaultDriverInfo(name string) *DriverInfo {
	return &DriverInfo{
		name: name,
		info: map[adbc.InfoCode]any{
			adbc.InfoVendorName:         name,
			adbc.InfoVendorVersion:      UnknownVersion,
			adbc.InfoVendorArrowVersion: UnknownVersion,
			adbc.InfoDriverName:         fmt.Sprintf("ADBC %s Driver - Go", name),
			adbc.InfoDriverVersion:      UnknownVersion,
			adbc.InfoDriverArrowVersion: UnknownVersion,
			adbc.InfoDriverADBCVersion:  DefaultInfoDriverADBCVersion,
		},
	}
}

func (di *DriverInfo) GetName() string { return di.name }

// InfoSupportedCodes returns the info codes this driver has a value for, in
// a stable sorted order.
func (di *DriverInfo) InfoSupportedCodes() []adbc.InfoCode {
	codes := make([]adbc.InfoCode, 0, len(di.info))
	for code := range di.info {
		codes = append(codes, code)
	}
	sort.SliceStable(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func (di *DriverInfo) RegisterInfoCode(code adbc.InfoCode, value any) {
	di.info[code] = value
}

func (di *DriverInfo) GetInfoForInfoCode(code adbc.InfoCode) (any, bool) {
	val, ok := di.info[code]
	return val, ok
}
