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
	"errors"

	"github.com/apache/arrow-adbc/go/adbc"

	"github.com/borodark/adbc-driver-cube/internal/arrowipc"
	"github.com/borodark/adbc-driver-cube/internal/protocol"
)

// toAdbcError maps a protocol.Error's Kind to the adbc.Status table of
// spec §7, and an arrowipc.DecodeError (malformed Arrow IPC data) to
// StatusInvalidData. Any other error passes through as StatusInternal.
func toAdbcError(driverName string, err error) error {
	if err == nil {
		return nil
	}
	var derr *arrowipc.DecodeError
	if errors.As(err, &derr) {
		return adbc.Error{Code: adbc.StatusInvalidData, Msg: driverName + ": " + err.Error()}
	}
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		return adbc.Error{Code: adbc.StatusInternal, Msg: driverName + ": " + err.Error()}
	}
	return adbc.Error{Code: kindToStatus(perr.Kind), Msg: driverName + ": " + perr.Error()}
}

func kindToStatus(kind protocol.Kind) adbc.Status {
	switch kind {
	case protocol.KindInvalidArgument:
		return adbc.StatusInvalidArgument
	case protocol.KindInvalidState:
		return adbc.StatusInvalidState
	case protocol.KindIO:
		return adbc.StatusIO
	case protocol.KindProtocol, protocol.KindInvalidData:
		return adbc.StatusInvalidData
	case protocol.KindUnauthenticated:
		return adbc.StatusUnauthenticated
	case protocol.KindUnsupported:
		return adbc.StatusNotImplemented
	case protocol.KindUnknown:
		return adbc.StatusUnknown
	default:
		return adbc.StatusInternal
	}
}
