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

// Package driverbase provides the shared scaffolding the root adbc-driver-cube
// package embeds: error formatting, option-key defaults, and driver/vendor
// info bookkeeping, in the shape of the upstream internal/driverbase package
// this module cannot import across a module boundary (see DESIGN.md).
package driverbase

import (
	"fmt"

	"github.com/apache/arrow-adbc/go/adbc"
)

// ErrorHelper formats adbc.Error values with the driver's name prefixed
// onto the message, the way every upstream driver's ErrorHelper does.
type ErrorHelper struct {
	DriverName string
}

// Errorf builds an adbc.Error with the given status and a message of the
// form "<driver name>: <formatted message>".
func (e ErrorHelper) Errorf(status adbc.Status, format string, args ...any) adbc.Error {
	return adbc.Error{
		Code: status,
		Msg:  fmt.Sprintf("%s: %s", e.DriverName, fmt.Sprintf(format, args...)),
	}
}
