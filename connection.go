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
	"fmt"
	"strings"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/borodark/adbc-driver-cube/internal/driverbase"
	"github.com/borodark/adbc-driver-cube/internal/protocol"
	"github.com/borodark/adbc-driver-cube/internal/recordstream"
)

type connectionImpl struct {
	driverbase.ConnectionImplBase

	sess *protocol.Session
}

func (c *connectionImpl) Close() error {
	return toAdbcError(driverName, c.sess.Close())
}

func (c *connectionImpl) NewStatement() (adbc.Statement, error) {
	return &statementImpl{
		StatementImplBase: driverbase.NewStatementImplBase(&c.ConnectionImplBase),
		conn:              c,
	}, nil
}

// SetOption intercepts adbc.OptionKeyAutocommit: Cube has no transactions
// (spec Non-goals), so disabling autocommit is refused rather than silently
// accepted, matching driver/clickhouse's identical refusal.
func (c *connectionImpl) SetOption(key, value string) error {
	if key == adbc.OptionKeyAutoCommit {
		if value == adbc.OptionValueEnabled {
			return nil
		}
		return c.ErrorHelper.Errorf(adbc.StatusNotImplemented, "disabling autocommit is not supported: Cube has no transactions")
	}
	return c.ConnectionImplBase.SetOption(key, value)
}

func (c *connectionImpl) Commit(ctx context.Context) error {
	return c.ErrorHelper.Errorf(adbc.StatusInvalidState, ConnectionMessageCannotCommit)
}

func (c *connectionImpl) Rollback(ctx context.Context) error {
	return c.ErrorHelper.Errorf(adbc.StatusInvalidState, ConnectionMessageCannotRollback)
}

const ConnectionMessageCannotCommit = "cannot commit: autocommit is always enabled"
const ConnectionMessageCannotRollback = "cannot rollback: autocommit is always enabled"

// GetInfo reports the handshake-derived vendor info and static driver info
// requested by infoCodes (spec §6.4 SUPPLEMENTED FEATURES).
func (c *connectionImpl) GetInfo(ctx context.Context, infoCodes []adbc.InfoCode) (array.RecordReader, error) {
	c.DriverInfo.RegisterInfoCode(adbc.InfoVendorVersion, c.sess.ServerVersion())

	if len(infoCodes) == 0 {
		infoCodes = c.DriverInfo.InfoSupportedCodes()
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "info_name", Type: arrow.PrimitiveTypes.Uint32},
		{Name: "info_value", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	nameBldr := array.NewUint32Builder(c.Alloc)
	defer nameBldr.Release()
	valBldr := array.NewStringBuilder(c.Alloc)
	defer valBldr.Release()

	for _, code := range infoCodes {
		val, ok := c.DriverInfo.GetInfoForInfoCode(code)
		if !ok {
			continue
		}
		nameBldr.Append(uint32(code))
		valBldr.Append(fmt.Sprintf("%v", val))
	}

	nameArr := nameBldr.NewUint32Array()
	defer nameArr.Release()
	valArr := valBldr.NewStringArray()
	defer valArr.Release()

	rec := array.NewRecord(schema, []arrow.Array{nameArr, valArr}, int64(nameArr.Len()))
	defer rec.Release()

	return recordBatchReader(rec)
}

// GetTableTypes returns the single table type Cube exposes.
func (c *connectionImpl) GetTableTypes(ctx context.Context) (array.RecordReader, error) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "table_type", Type: arrow.BinaryTypes.String}}, nil)
	bldr := array.NewStringBuilder(c.Alloc)
	defer bldr.Release()
	bldr.Append("TABLE")
	arr := bldr.NewStringArray()
	defer arr.Release()

	rec := array.NewRecord(schema, []arrow.Array{arr}, 1)
	defer rec.Release()

	return recordBatchReader(rec)
}

// GetTableSchema resolves a table's column types by querying
// information_schema.columns (spec §6.4 SUPPLEMENTED FEATURES). Identifiers
// are escaped by doubling embedded single quotes rather than concatenated
// verbatim, unlike the reference's flagged SQL-injection-prone approach.
func (c *connectionImpl) GetTableSchema(ctx context.Context, catalog, dbSchema *string, tableName string) (*arrow.Schema, error) {
	var b strings.Builder
	b.WriteString("SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_name = ")
	b.WriteString(sqlQuote(tableName))
	if dbSchema != nil {
		b.WriteString(" AND table_schema = ")
		b.WriteString(sqlQuote(*dbSchema))
	}
	if catalog != nil {
		b.WriteString(" AND table_catalog = ")
		b.WriteString(sqlQuote(*catalog))
	}
	b.WriteString(" ORDER BY ordinal_position")

	res, err := c.sess.ExecuteQuery(b.String())
	if err != nil {
		return nil, toAdbcError(driverName, err)
	}

	reader, err := recordstream.NewReader(res.ArrowIPC, c.Alloc)
	if err != nil {
		return nil, toAdbcError(driverName, err)
	}
	defer reader.Release()

	fields := make([]arrow.Field, 0)
	for reader.Next() {
		rec := reader.Record()
		nameCol := rec.Column(0).(*array.String)
		typeCol := rec.Column(1).(*array.String)
		nullableCol := rec.Column(2).(*array.String)
		for i := 0; i < int(rec.NumRows()); i++ {
			fields = append(fields, arrow.Field{
				Name:     nameCol.Value(i),
				Type:     sqlTypeToArrow(typeCol.Value(i)),
				Nullable: strings.EqualFold(nullableCol.Value(i), "YES"),
			})
		}
	}
	if len(fields) == 0 {
		return nil, c.ErrorHelper.Errorf(adbc.StatusNotFound, "table %q not found", tableName)
	}
	return arrow.NewSchema(fields, nil), nil
}

func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// recordBatchReader wraps a single already-built record in a minimal
// array.RecordReader for the metadata methods above, which never produce
// more than one batch.
func recordBatchReader(rec arrow.Record) (array.RecordReader, error) {
	return array.NewRecordReader(rec.Schema(), []arrow.Record{rec})
}
