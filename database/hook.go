/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var sqlEchoSilent bool

// EnableSQLSilent suppresses all query hook output. Useful in tests.
func EnableSQLSilent(b bool) {
	sqlEchoSilent = b
}

// QueryHook echoes executed statements with per-operation coloring. It can
// be toggled at runtime through the environment variable named by EnvName
// ("" or "0" disables, "2" enables verbose output including no-row results).
type QueryHook struct {
	EnvName string
	Enabled bool
	Verbose bool
	Writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if sqlEchoSilent {
		return
	}
	enabled := h.Enabled
	verbose := h.Verbose
	if h.EnvName != "" {
		if env, ok := os.LookupEnv(h.EnvName); ok {
			enabled = env != "" && env != "0"
			verbose = env == "2"
		}
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	writer := h.Writer
	if writer == nil {
		writer = os.Stdout
	}
	duration := time.Since(event.StartTime)

	line := color.New(color.FgCyan).Sprintf("[SQL] %s  %s  ",
		time.Now().Format("2006-01-02 15:04:05.000"),
		duration.Round(time.Microsecond),
	) + queryColor(event.Operation()).Sprint(event.Query)
	if event.Err != nil {
		line += "  " + color.New(color.BgRed, color.FgWhite).Sprintf(" %v ", event.Err)
	}
	_, _ = io.WriteString(writer, line+"\n")
}

func queryColor(operation string) *color.Color {
	switch operation {
	case "SELECT":
		return color.New(color.FgGreen)
	case "INSERT":
		return color.New(color.FgBlue)
	case "UPDATE":
		return color.New(color.FgYellow)
	case "DELETE":
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgRed)
	}
}

// SlowQueryHook warns through the manager's logger when a successful query
// exceeds SlowTime.
type SlowQueryHook struct {
	SlowTime time.Duration
	Logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if sqlEchoSilent || event.Err != nil || h.Logger == nil {
		return
	}
	duration := time.Since(event.StartTime)
	if duration > h.SlowTime {
		h.Logger.Warn(color.New(color.FgYellow).Sprint("Slow query detected"),
			"duration", duration.Round(time.Microsecond),
			"slow_threshold", h.SlowTime,
			"query", event.Query,
		)
	}
}
