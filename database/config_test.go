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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	content := `
connection_config:
  type: postgres
  host: db.internal
  port: 5432
  username: app
  dbname: appdb
  enable_query_log: true
script_config:
  environment: dev
  filepath: testdata/sql
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	cc := cfg.ConnectionConfig
	if cc.Type != "postgres" || cc.Host != "db.internal" || cc.Port != 5432 {
		t.Fatalf("connection = %+v, want values from the file", cc)
	}
	if !cc.EnableQueryLog {
		t.Fatal("enable_query_log not loaded")
	}
	// Fields absent from the file keep their defaults.
	if cc.MaxOpenConns != DefaultConnectionConfig().MaxOpenConns {
		t.Fatalf("max_open_conns = %d, want the default", cc.MaxOpenConns)
	}
	if cfg.ScriptConfig.Environment != "dev" || cfg.ScriptConfig.Filepath != "testdata/sql" {
		t.Fatalf("script config = %+v, want values from the file", cfg.ScriptConfig)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig of a missing file succeeded")
	}
}

func TestCreateFromConfigAppliesEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	cfg.Type = "postgres"
	cfg.Host = "from-file"
	cfg.Port = 5432

	factory := NewDatabaseFactory()
	if _, err := factory.CreateFromConfig(cfg); err != nil {
		t.Fatalf("CreateFromConfig error: %v", err)
	}

	if cfg.Host != "override.internal" || cfg.Port != 15432 {
		t.Fatalf("host/port = %s/%d, want the env overrides", cfg.Host, cfg.Port)
	}
	if cfg.Password != "secret" {
		t.Fatal("password override not applied")
	}
	if cfg.MaxOpenConns != 7 {
		t.Fatalf("max open conns = %d, want 7", cfg.MaxOpenConns)
	}
	if !cfg.EnableQueryLog {
		t.Fatal("query log override not applied")
	}
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "oracle"

	factory := NewDatabaseFactory()
	if _, err := factory.CreateFromConfig(cfg); err == nil {
		t.Fatal("CreateFromConfig accepted an unsupported database type")
	}
}
