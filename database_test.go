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
	"net"
	"testing"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/stretchr/testify/require"

	"github.com/borodark/adbc-driver-cube/internal/protocol"
)

func newTCPFakeServer(t *testing.T) (host, port string, accept <-chan *fakeServer) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	ch := make(chan *fakeServer, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		ch <- &fakeServer{t: t, conn: conn}
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port, ch
}

func TestDatabaseImpl_Open_HandshakeAndAuth(t *testing.T) {
	host, port, accept := newTCPFakeServer(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := <-accept
		srv.recvHandshakeRequest()
		srv.sendHandshakeResponse(protocol.ProtocolVersion, "cube-sql-v1.2.3")
		srv.recvAuthRequest()
		srv.sendAuthResponse(true, "session-xyz")
	}()

	db := &databaseImpl{
		host:           host,
		port:           port,
		token:          "a-bearer-token",
		connectionMode: connectionModeNative,
	}
	conn, err := db.Open(context.Background())
	require.NoError(t, err)
	require.NotNil(t, conn)
	<-done

	ci, ok := conn.(*connectionImpl)
	require.True(t, ok)
	require.Equal(t, "cube-sql-v1.2.3", ci.sess.ServerVersion())

	require.NoError(t, conn.Close())
}

func TestDatabaseImpl_Open_RejectsPostgreSQLMode(t *testing.T) {
	db := &databaseImpl{
		host:           "127.0.0.1",
		port:           "4444",
		token:          "tok",
		connectionMode: connectionModePostgreSQL,
	}
	_, err := db.Open(context.Background())
	require.Error(t, err)
	var aerr adbc.Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, adbc.StatusNotImplemented, aerr.Code)
}

func TestDatabaseImpl_Open_RequiresToken(t *testing.T) {
	t.Setenv("CUBESQL_CUBE_TOKEN", "")
	db := &databaseImpl{
		host:           "127.0.0.1",
		port:           "4444",
		connectionMode: connectionModeNative,
	}
	_, err := db.Open(context.Background())
	require.Error(t, err)
	var aerr adbc.Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, adbc.StatusInvalidArgument, aerr.Code)
}

func TestDatabaseImpl_SetOption_ConnectionMode(t *testing.T) {
	db := &databaseImpl{}
	require.NoError(t, db.SetOption(OptionKeyConnectionMode, "native"))
	require.Equal(t, connectionModeNative, db.connectionMode)

	require.NoError(t, db.SetOption(OptionKeyConnectionMode, "POSTGRESQL"))
	require.Equal(t, connectionModePostgreSQL, db.connectionMode)

	err := db.SetOption(OptionKeyConnectionMode, "bogus")
	require.Error(t, err)
}

func TestDatabaseImpl_SetOptions_RoundTripsThroughGetOption(t *testing.T) {
	db := &databaseImpl{}
	require.NoError(t, db.SetOptions(map[string]string{
		OptionKeyHost:     "cube.example.com",
		OptionKeyPort:     "5555",
		OptionKeyDatabase: "analytics",
	}))

	host, err := db.GetOption(OptionKeyHost)
	require.NoError(t, err)
	require.Equal(t, "cube.example.com", host)

	port, err := db.GetOption(OptionKeyPort)
	require.NoError(t, err)
	require.Equal(t, "5555", port)
}
