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
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

func TestNewDriver_NewDatabase_DefaultsPortAndConnectionMode(t *testing.T) {
	drv := NewDriver(memory.DefaultAllocator)
	db, err := drv.NewDatabase(map[string]string{OptionKeyHost: "cube.example.com"})
	require.NoError(t, err)

	di, ok := db.(*databaseImpl)
	require.True(t, ok)
	require.Equal(t, "4444", di.port)
	require.Equal(t, connectionModeNative, di.connectionMode)
	require.Equal(t, "cube.example.com", di.host)
}

func TestNewDriver_NewDatabase_OptionsOverrideDefaults(t *testing.T) {
	drv := NewDriver(nil)
	db, err := drv.NewDatabase(map[string]string{
		OptionKeyHost: "h",
		OptionKeyPort: "1234",
	})
	require.NoError(t, err)
	di := db.(*databaseImpl)
	require.Equal(t, "1234", di.port)
}

func TestNewDriver_NewDatabase_RejectsUnrecognizedConnectionMode(t *testing.T) {
	drv := NewDriver(memory.DefaultAllocator)
	_, err := drv.NewDatabase(map[string]string{OptionKeyConnectionMode: "nonsense"})
	require.Error(t, err)
}
