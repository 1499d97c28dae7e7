// Copyright (c) 2025-present deep.rent GmbH (https://www.deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/deep-rent/warden/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"  WARN  ", slog.LevelWarn},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range tests {
		t.Run("level "+tc.level, func(t *testing.T) {
			log := logger.New(tc.level, "json")
			require.NotNil(t, log)
			ctx := context.Background()
			assert.True(t, log.Enabled(ctx, tc.want))
			assert.False(t, log.Enabled(ctx, tc.want-1))
		})
	}
}

func TestNewSilent(t *testing.T) {
	log := logger.New("silent", "json")
	require.NotNil(t, log)
	// Must not enable anything up to the highest standard level.
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestSilent(t *testing.T) {
	log := logger.Silent()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
