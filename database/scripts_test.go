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
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newScriptTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "scripts.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestScriptRunnerExecutesInOrder(t *testing.T) {
	db := newScriptTestDB(t)
	root := t.TempDir()

	writeScript(t, filepath.Join(root, "common"), "001_schema.sql", `
-- schema bootstrap
CREATE TABLE settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	writeScript(t, filepath.Join(root, "common"), "002_seed.sql", `
INSERT INTO settings (key, value) VALUES ('base', 'common');
INSERT INTO settings (key, value) VALUES ('shared', 'common');
`)
	writeScript(t, filepath.Join(root, "environments", "dev"), "001_seed.sql", `
INSERT INTO settings (key, value) VALUES ('env', 'dev');
`)

	runner := NewScriptRunner(db, "dev")
	runner.SetRootPath(root)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	var count int
	if err := db.NewRaw("SELECT count(*) FROM settings").Scan(context.Background(), &count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("settings rows = %d, want 3", count)
	}
}

func TestScriptRunnerSkipsOtherEnvironments(t *testing.T) {
	db := newScriptTestDB(t)
	root := t.TempDir()

	writeScript(t, filepath.Join(root, "common"), "001_schema.sql",
		"CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT);")
	writeScript(t, filepath.Join(root, "environments", "prod"), "001_seed.sql",
		"INSERT INTO settings (key, value) VALUES ('env', 'prod');")

	runner := NewScriptRunner(db, "dev")
	runner.SetRootPath(root)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	var count int
	if err := db.NewRaw("SELECT count(*) FROM settings").Scan(context.Background(), &count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("settings rows = %d, want 0 (prod seed must not run for dev)", count)
	}
}

func TestScriptRunnerStopsOnFailure(t *testing.T) {
	db := newScriptTestDB(t)
	root := t.TempDir()

	writeScript(t, filepath.Join(root, "common"), "001_bad.sql", "SELECT * FROM missing_table;")
	writeScript(t, filepath.Join(root, "common"), "002_good.sql",
		"CREATE TABLE late (id INTEGER PRIMARY KEY);")

	runner := NewScriptRunner(db, "dev")
	runner.SetRootPath(root)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite a failing script")
	}
}

func TestParseScriptOrder(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"001_schema.sql", 1},
		{"042_data.sql", 42},
		{"no_prefix.sql", 999},
	}
	for _, tc := range cases {
		if got := parseScriptOrder(tc.name); got != tc.want {
			t.Fatalf("parseScriptOrder(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestSplitSQLStatements(t *testing.T) {
	content := `
-- a comment
CREATE TABLE t (id INTEGER);

INSERT INTO t (id)
VALUES (1);
INSERT INTO t (id) VALUES (2);
`
	statements := splitSQLStatements(content)
	if len(statements) != 3 {
		t.Fatalf("statements = %d, want 3: %v", len(statements), statements)
	}
	if statements[1] != "INSERT INTO t (id) VALUES (1);" {
		t.Fatalf("multi-line statement joined as %q", statements[1])
	}
}
