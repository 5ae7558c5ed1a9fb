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

// Package cube implements an ADBC driver for the Cube analytics SQL
// server's native wire protocol (spec §3-§6): a length-prefixed binary
// handshake/auth/query protocol whose query results are Arrow IPC
// streaming-format byte sequences.
package cube

import (
	"runtime/debug"
	"strings"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/borodark/adbc-driver-cube/internal/driverbase"
)

const driverName = "Cube"

var infoDriverArrowVersion string

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, dep := range info.Deps {
		if strings.HasPrefix(dep.Path, "github.com/apache/arrow-go/") {
			infoDriverArrowVersion = dep.Version
			return
		}
	}
}

type driverImpl struct {
	driverbase.DriverImplBase
}

// NewDriver constructs a Cube ADBC driver using alloc for all Arrow
// allocations. Passing nil uses memory.DefaultAllocator.
func NewDriver(alloc memory.Allocator) adbc.Driver {
	info := driverbase.DefaultDriverInfo(driverName)
	if infoDriverArrowVersion != "" {
		info.RegisterInfoCode(adbc.InfoDriverArrowVersion, infoDriverArrowVersion)
	}
	return &driverImpl{DriverImplBase: driverbase.NewDriverImplBase(info, alloc)}
}

func (d *driverImpl) NewDatabase(opts map[string]string) (adbc.Database, error) {
	db := &databaseImpl{
		DatabaseImplBase: driverbase.NewDatabaseImplBase(&d.DriverImplBase),
		port:             "4444",
		connectionMode:   connectionModeNative,
	}
	if err := db.SetOptions(opts); err != nil {
		return nil, err
	}
	return db, nil
}
