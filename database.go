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
	"os"
	"strings"
	"time"

	"github.com/apache/arrow-adbc/go/adbc"

	"github.com/borodark/adbc-driver-cube/internal/driverbase"
	"github.com/borodark/adbc-driver-cube/internal/protocol"
)

// Option keys recognized by the core session (spec §6.4).
const (
	OptionKeyHost           = "adbc.cube.host"
	OptionKeyPort           = "adbc.cube.port"
	OptionKeyToken          = "adbc.cube.token"
	OptionKeyDatabase       = "adbc.cube.database"
	OptionKeyUser           = "adbc.cube.user"
	OptionKeyPassword       = "adbc.cube.password"
	OptionKeyConnectionMode = "adbc.cube.connection_mode"

	connectionModeNative     = "native"
	connectionModePostgreSQL = "postgresql"

	tokenEnvVar = "CUBESQL_CUBE_TOKEN"

	defaultDialTimeout = 30 * time.Second
)

type databaseImpl struct {
	driverbase.DatabaseImplBase

	host           string
	port           string
	token          string
	database       string
	user           string
	password       string
	connectionMode string
}

func (d *databaseImpl) Open(ctx context.Context) (adbc.Connection, error) {
	if d.connectionMode != connectionModeNative {
		return nil, d.ErrorHelper.Errorf(adbc.StatusNotImplemented,
			"connection_mode %q is not implemented by this driver's core (only %q is)", d.connectionMode, connectionModeNative)
	}

	token := d.token
	if token == "" {
		token = os.Getenv(tokenEnvVar)
	}
	if token == "" {
		return nil, d.ErrorHelper.Errorf(adbc.StatusInvalidArgument,
			"a bearer token is required: set %s or the %s environment variable", OptionKeyToken, tokenEnvVar)
	}

	sess := protocol.NewSession(d.host, d.port)
	if err := sess.Connect(defaultDialTimeout); err != nil {
		return nil, toAdbcError(driverName, err)
	}
	if err := sess.Authenticate(token, d.database); err != nil {
		return nil, toAdbcError(driverName, err)
	}

	conn := &connectionImpl{
		ConnectionImplBase: driverbase.NewConnectionImplBase(&d.DatabaseImplBase),
		sess:               sess,
	}
	return conn, nil
}

func (d *databaseImpl) GetOption(key string) (string, error) {
	switch key {
	case OptionKeyHost:
		return d.host, nil
	case OptionKeyPort:
		return d.port, nil
	case OptionKeyToken:
		return d.token, nil
	case OptionKeyDatabase:
		return d.database, nil
	case OptionKeyUser:
		return d.user, nil
	case OptionKeyPassword:
		return d.password, nil
	case OptionKeyConnectionMode:
		return d.connectionMode, nil
	}
	return d.DatabaseImplBase.GetOption(key)
}

func (d *databaseImpl) SetOptions(options map[string]string) error {
	for k, v := range options {
		if err := d.SetOption(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *databaseImpl) SetOption(key, value string) error {
	switch key {
	case OptionKeyHost:
		d.host = value
	case OptionKeyPort:
		d.port = value
	case OptionKeyToken:
		d.token = value
	case OptionKeyDatabase:
		d.database = value
	case OptionKeyUser:
		d.user = value
	case OptionKeyPassword:
		d.password = value
	case OptionKeyConnectionMode:
		switch strings.ToLower(value) {
		case connectionModeNative, "arrow_native":
			d.connectionMode = connectionModeNative
		case connectionModePostgreSQL, "":
			d.connectionMode = connectionModePostgreSQL
		default:
			return d.ErrorHelper.Errorf(adbc.StatusInvalidArgument, "unrecognized %s %q", OptionKeyConnectionMode, value)
		}
	default:
		return d.DatabaseImplBase.SetOption(key, value)
	}
	return nil
}
