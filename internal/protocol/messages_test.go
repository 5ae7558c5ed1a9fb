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

package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandshakeRoundTrip(t *testing.T) {
	req := HandshakeRequest{Version: 1}
	encoded := req.Encode()
	require.Equal(t, uint8(MessageHandshakeRequest), encoded[0])

	resp := HandshakeResponse{Version: 1, ServerVersion: "cube-0.9"}
	payload := encodeTestHandshakeResponse(resp)
	decoded, err := decodeHandshakeResponse(payload)
	require.NoError(t, err)
	require.Equal(t, resp, *decoded)
}

func TestAuthRoundTrip(t *testing.T) {
	req := AuthRequest{Token: "tok", Database: ""}
	encoded := req.Encode()
	require.Equal(t, uint8(MessageAuthRequest), encoded[0])

	payload := encodeTestAuthResponse(AuthResponse{Success: true, SessionID: "sess-1"})
	decoded, err := decodeAuthResponse(payload)
	require.NoError(t, err)
	require.True(t, decoded.Success)
	require.Equal(t, "sess-1", decoded.SessionID)
}

func TestQueryResponseBatchRoundTrip(t *testing.T) {
	ipc := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	payload := encodeTestQueryResponseBatch(QueryResponseBatch{ArrowIPCBatch: ipc})
	decoded, err := decodeQueryResponseBatch(payload)
	require.NoError(t, err)
	require.Equal(t, ipc, decoded.ArrowIPCBatch)
}

func TestQueryCompleteRoundTrip(t *testing.T) {
	payload := encodeTestQueryComplete(QueryComplete{RowsAffected: -1})
	decoded, err := decodeQueryComplete(payload)
	require.NoError(t, err)
	require.Equal(t, int64(-1), decoded.RowsAffected)
}

func TestErrorMessageRoundTrip(t *testing.T) {
	payload := encodeTestErrorMessage(ErrorMessage{Code: "QUERY_ERROR", Message: "nonexistent_table not found"})
	decoded, err := decodeErrorMessage(payload)
	require.NoError(t, err)
	require.Equal(t, "QUERY_ERROR", decoded.Code)
	require.Contains(t, decoded.Message, "nonexistent_table")
}

func TestDecodeRejectsWrongTag(t *testing.T) {
	payload := encodeTestAuthResponse(AuthResponse{Success: true, SessionID: "x"})
	_, err := decodeHandshakeResponse(payload)
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	payload := encodeTestHandshakeResponse(HandshakeResponse{Version: 1, ServerVersion: "cube"})
	_, err := decodeHandshakeResponse(payload[:len(payload)-2])
	require.Error(t, err)
}

// --- test-only encoders mirroring the server side of the protocol; the
// client (this module) only ever needs to decode these responses, but
// tests need to fabricate them.

func encodeTestHandshakeResponse(m HandshakeResponse) []byte {
	buf := putU8(nil, uint8(MessageHandshakeResponse))
	buf = putU32(buf, m.Version)
	buf = putString(buf, m.ServerVersion)
	return buf
}

func encodeTestAuthResponse(m AuthResponse) []byte {
	buf := putU8(nil, uint8(MessageAuthResponse))
	var success uint8
	if m.Success {
		success = 1
	}
	buf = putU8(buf, success)
	buf = putString(buf, m.SessionID)
	return buf
}

func encodeTestQueryResponseBatch(m QueryResponseBatch) []byte {
	buf := putU8(nil, uint8(MessageQueryResponseBatch))
	buf = putBytes(buf, m.ArrowIPCBatch)
	return buf
}

func encodeTestQueryComplete(m QueryComplete) []byte {
	buf := putU8(nil, uint8(MessageQueryComplete))
	buf = putI64(buf, m.RowsAffected)
	return buf
}

func encodeTestErrorMessage(m ErrorMessage) []byte {
	buf := putU8(nil, uint8(MessageError))
	buf = putString(buf, m.Code)
	buf = putString(buf, m.Message)
	return buf
}
