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
	"context"
	"log/slog"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

const StatementMessageOptionUnknown = "Unknown statement option"

// StatementImplBase supplies not-implemented defaults for every
// adbc.Statement method a concrete statementImpl doesn't override.
type StatementImplBase struct {
	ErrorHelper ErrorHelper
	Logger      *slog.Logger
}

func NewStatementImplBase(conn *ConnectionImplBase) StatementImplBase {
	logger := conn.Logger
	if logger == nil {
		logger = nilLogger()
	}
	return StatementImplBase{ErrorHelper: conn.ErrorHelper, Logger: logger}
}

func (base *StatementImplBase) Base() *StatementImplBase { return base }

func (base *StatementImplBase) Close() error { return nil }

func (base *StatementImplBase) SetOption(key, val string) error {
	return base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "%s '%s'", StatementMessageOptionUnknown, key)
}

func (base *StatementImplBase) SetSqlQuery(query string) error {
	return base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "SetSqlQuery")
}

func (base *StatementImplBase) ExecuteQuery(ctx context.Context) (array.RecordReader, int64, error) {
	return nil, -1, base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "ExecuteQuery")
}

func (base *StatementImplBase) ExecuteUpdate(ctx context.Context) (int64, error) {
	return -1, base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "ExecuteUpdate")
}

func (base *StatementImplBase) Prepare(context.Context) error {
	return base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "Prepare")
}

func (base *StatementImplBase) SetSubstraitPlan(plan []byte) error {
	return base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "SetSubstraitPlan")
}

func (base *StatementImplBase) Bind(ctx context.Context, values arrow.Record) error {
	return base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "Bind")
}

func (base *StatementImplBase) BindStream(ctx context.Context, stream array.RecordReader) error {
	return base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "BindStream")
}

func (base *StatementImplBase) GetParameterSchema() (*arrow.Schema, error) {
	return nil, base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "GetParameterSchema")
}

func (base *StatementImplBase) ExecutePartitions(ctx context.Context) (*arrow.Schema, adbc.Partitions, int64, error) {
	return nil, adbc.Partitions{}, -1, base.ErrorHelper.Errorf(adbc.StatusNotImplemented, "ExecutePartitions")
}
