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
	"fmt"
	"net"
	"time"
)

// State is one of the four session states of spec §3.1/§4.2.
type State int

const (
	StateUnconnected State = iota
	StateConnected
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "Unconnected"
	case StateConnected:
		return "Connected"
	case StateAuthenticated:
		return "Authenticated"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// QueryResult is the outcome of a successful ExecuteQuery: the concatenated
// Arrow IPC byte sequence of the batch response (Schema+RecordBatch, spec
// §3.3) and the server-reported row count.
type QueryResult struct {
	ArrowIPC     []byte
	RowsAffected int64
}

// Session is one logical connection: socket + protocol state + bearer
// identity (spec §3.1). It exclusively owns one stream socket while in
// Connected or Authenticated and is not safe for concurrent use — a
// session is strictly one query in flight at a time, owned by one caller.
type Session struct {
	host string
	port string

	state         State
	conn          *framedConn
	version       uint32
	serverVersion string
	sessionID     string
}

// NewSession constructs an unconnected session for the given host and port.
func NewSession(host, port string) *Session {
	return &Session{host: host, port: port, state: StateUnconnected}
}

// newSessionFromConn wires an already-established connection directly into
// Connected state, skipping the dial step. Used by tests to drive the
// handshake/auth/query state machine over a net.Pipe instead of a real
// socket.
func newSessionFromConn(conn net.Conn) *Session {
	return &Session{conn: newFramedConn(conn), state: StateConnected}
}

// NewSessionFromConn is the exported form of newSessionFromConn, for
// driver-level tests in other packages that fake the server side of the
// wire protocol over a net.Pipe instead of dialing a real socket.
func NewSessionFromConn(conn net.Conn) *Session {
	return newSessionFromConn(conn)
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// ServerVersion returns the server's reported version string, available
// after a successful handshake.
func (s *Session) ServerVersion() string { return s.serverVersion }

// SessionID returns the server-assigned session identifier, available
// after successful authentication.
func (s *Session) SessionID() string { return s.sessionID }

// Connect opens the socket and performs the handshake phase. On any
// failure the session transitions to Closed and the socket is released.
func (s *Session) Connect(dialTimeout time.Duration) error {
	if s.state != StateUnconnected {
		return newErr(KindInvalidState, "Connect called in state %s", s.state)
	}
	addr := net.JoinHostPort(s.host, s.port)
	nc, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		s.state = StateClosed
		return wrapErr(KindIO, err, "failed to connect to %s", addr)
	}
	s.conn = newFramedConn(nc)
	s.state = StateConnected

	if err := s.performHandshake(); err != nil {
		s.closeOnError()
		return err
	}
	return nil
}

func (s *Session) performHandshake() error {
	req := HandshakeRequest{Version: ProtocolVersion}
	if err := s.conn.writeFrame(req.Encode()); err != nil {
		return err
	}
	payload, err := s.conn.readFrame()
	if err != nil {
		return err
	}
	resp, err := decodeHandshakeResponse(payload)
	if err != nil {
		return err
	}
	if resp.Version != ProtocolVersion {
		return newErr(KindProtocol, "protocol version mismatch: client=%d server=%d", ProtocolVersion, resp.Version)
	}
	s.version = resp.Version
	s.serverVersion = resp.ServerVersion
	return nil
}

// Authenticate sends the bearer token and optional database name. Requires
// a non-empty token and a prior successful Connect.
func (s *Session) Authenticate(token, database string) error {
	if s.state != StateConnected {
		return newErr(KindInvalidState, "Authenticate called in state %s", s.state)
	}
	if token == "" {
		return newErr(KindInvalidArgument, "authentication requires a non-empty token")
	}
	req := AuthRequest{Token: token, Database: database}
	if err := s.conn.writeFrame(req.Encode()); err != nil {
		s.closeOnError()
		return err
	}
	payload, err := s.conn.readFrame()
	if err != nil {
		s.closeOnError()
		return err
	}
	resp, err := decodeAuthResponse(payload)
	if err != nil {
		s.closeOnError()
		return err
	}
	if !resp.Success {
		s.closeOnError()
		return newErr(KindUnauthenticated, "authentication failed")
	}
	s.sessionID = resp.SessionID
	s.state = StateAuthenticated
	return nil
}

// ExecuteQuery sends a QueryRequest and drives the receive loop of spec
// §4.2 until QueryComplete or Error. A server-reported Error (Unknown kind)
// does not close the session; any transport-level failure does.
func (s *Session) ExecuteQuery(sql string) (*QueryResult, error) {
	if s.state != StateAuthenticated {
		return nil, newErr(KindInvalidState, "ExecuteQuery called in state %s", s.state)
	}
	req := QueryRequest{SQL: sql}
	if err := s.conn.writeFrame(req.Encode()); err != nil {
		s.closeOnError()
		return nil, err
	}

	var batch []byte
	var schemaSeen bool
	_ = schemaSeen // kept to mirror the reference's explicit discard of the schema-only message, see DESIGN.md

	for {
		payload, err := s.conn.readFrame()
		if err != nil {
			s.closeOnError()
			return nil, err
		}
		tag, err := peekTag(payload)
		if err != nil {
			s.closeOnError()
			return nil, err
		}
		switch tag {
		case MessageQueryResponseSchema:
			if _, err := decodeQueryResponseSchema(payload); err != nil {
				s.closeOnError()
				return nil, err
			}
			schemaSeen = true
		case MessageQueryResponseBatch:
			msg, err := decodeQueryResponseBatch(payload)
			if err != nil {
				s.closeOnError()
				return nil, err
			}
			batch = msg.ArrowIPCBatch
		case MessageQueryComplete:
			msg, err := decodeQueryComplete(payload)
			if err != nil {
				s.closeOnError()
				return nil, err
			}
			if len(batch) == 0 {
				return nil, newErr(KindInvalidData, "query completed with no batch received")
			}
			return &QueryResult{ArrowIPC: batch, RowsAffected: msg.RowsAffected}, nil
		case MessageError:
			msg, err := decodeErrorMessage(payload)
			if err != nil {
				s.closeOnError()
				return nil, err
			}
			return nil, newErr(KindUnknown, "Query error [%s]: %s", msg.Code, msg.Message)
		default:
			s.closeOnError()
			return nil, newErr(KindInvalidData, "unexpected message tag 0x%02x during query", tag)
		}
	}
}

// Close releases the socket and transitions the session to Closed. It is
// safe to call multiple times.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *Session) closeOnError() {
	s.state = StateClosed
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Addr returns the "host:port" the session targets, for diagnostics.
func (s *Session) Addr() string {
	return fmt.Sprintf("%s:%s", s.host, s.port)
}
