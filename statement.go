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
	"context"
	"time"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/google/uuid"

	"github.com/borodark/adbc-driver-cube/internal/driverbase"
	"github.com/borodark/adbc-driver-cube/internal/recordstream"
)

// statementImpl runs a single text query at a time over the connection's
// session (spec §6.2: one query in flight per connection). It does not
// implement Bind/BindStream/Prepare/SetSubstraitPlan/GetParameterSchema/
// ExecutePartitions; those fall through to StatementImplBase's
// StatusNotImplemented defaults because the core protocol has no
// parameterized-prepared-statement or partitioning wire messages (spec
// Non-goals).
type statementImpl struct {
	driverbase.StatementImplBase

	conn *connectionImpl
	sql  string
}

func (s *statementImpl) SetSqlQuery(query string) error {
	s.sql = query
	return nil
}

func (s *statementImpl) Close() error {
	return nil
}

// ExecuteQuery runs the statement's SQL and decodes the server's Arrow IPC
// response into a RecordReader. Each call is tagged with a fresh
// correlation id logged around the round trip, so a query slow on the
// server side can be matched to its client-side timing independent of the
// wire protocol, which carries no request id of its own.
func (s *statementImpl) ExecuteQuery(ctx context.Context) (array.RecordReader, int64, error) {
	if s.sql == "" {
		return nil, -1, s.ErrorHelper.Errorf(adbc.StatusInvalidState, "ExecuteQuery called before SetSqlQuery")
	}

	queryID := uuid.New().String()
	start := time.Now()
	s.Logger.DebugContext(ctx, "executing query", "query_id", queryID, "sql", s.sql)

	res, err := s.conn.sess.ExecuteQuery(s.sql)
	if err != nil {
		s.Logger.ErrorContext(ctx, "query failed", "query_id", queryID, "elapsed", time.Since(start), "error", err)
		return nil, -1, toAdbcError(driverName, err)
	}
	s.Logger.DebugContext(ctx, "query completed", "query_id", queryID, "elapsed", time.Since(start), "rows_affected", res.RowsAffected)

	reader, err := recordstream.NewReader(res.ArrowIPC, s.conn.Alloc)
	if err != nil {
		return nil, -1, toAdbcError(driverName, err)
	}
	return reader, res.RowsAffected, nil
}

// ExecuteUpdate runs a statement expected to return no rows (e.g. DDL) and
// reports the affected row count. The core protocol has one request/response
// message pair for all text queries, so this shares ExecuteQuery's path and
// discards the decoded reader.
func (s *statementImpl) ExecuteUpdate(ctx context.Context) (int64, error) {
	reader, rowsAffected, err := s.ExecuteQuery(ctx)
	if err != nil {
		return -1, err
	}
	reader.Release()
	return rowsAffected, nil
}
