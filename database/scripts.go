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
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// ScriptRunner discovers and executes SQL script files to seed or bootstrap
// data. Files named with a numeric prefix ("001_users.sql") run in that
// order; each file runs inside a single transaction.
type ScriptRunner struct {
	db          *bun.DB
	environment string
	rootPath    string
	logger      Logger
}

// ScriptFile describes a SQL file discovered by the runner.
type ScriptFile struct {
	Path        string
	Name        string
	Order       int
	Environment string
	ModTime     time.Time
}

// ScriptResult contains the outcome of executing a single SQL file.
type ScriptResult struct {
	File         string
	Success      bool
	Error        error
	Duration     time.Duration
	RowsAffected int64
}

// NewScriptRunner creates a script runner for the given environment. Scripts
// are read from "<root>/common" and "<root>/environments/<environment>".
func NewScriptRunner(db *bun.DB, environment string) *ScriptRunner {
	return &ScriptRunner{
		db:          db,
		environment: environment,
		rootPath:    "configs/sql",
		logger:      GetLogger(),
	}
}

// SetRootPath sets the root directory from which SQL files are loaded.
func (s *ScriptRunner) SetRootPath(path string) {
	s.rootPath = path
}

// Run executes all discovered SQL files in order, stopping at the first
// failure.
func (s *ScriptRunner) Run(ctx context.Context) error {
	s.logger.Info("Starting SQL script execution",
		"environment", s.environment, "sql_path", s.rootPath)

	files, err := s.ScriptFiles()
	if err != nil {
		return fmt.Errorf("failed to list SQL scripts: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL scripts found to execute")
		return nil
	}

	for _, file := range files {
		result := s.executeFile(ctx, file)
		if !result.Success {
			s.logger.Error("SQL script failed", "file", result.File, "error", result.Error)
			return fmt.Errorf("SQL script failed %s: %w", result.File, result.Error)
		}
		s.logger.Info("SQL script executed",
			"file", result.File,
			"duration", result.Duration.String(),
			"rows_affected", result.RowsAffected)
	}

	s.logger.Info("SQL script execution completed",
		"total_files", len(files), "environment", s.environment)
	return nil
}

// ScriptFiles returns the scripts from the common and environment dirs, the
// common ones first and each group ordered by numeric prefix.
func (s *ScriptRunner) ScriptFiles() ([]ScriptFile, error) {
	var files []ScriptFile

	commonDir := filepath.Join(s.rootPath, "common")
	if _, err := os.Stat(commonDir); err == nil {
		commonFiles, err := s.filesFromDir(commonDir, "common")
		if err != nil {
			return nil, fmt.Errorf("failed to list common SQL scripts: %w", err)
		}
		files = append(files, commonFiles...)
	}

	envDir := filepath.Join(s.rootPath, "environments", s.environment)
	if _, err := os.Stat(envDir); err == nil {
		envFiles, err := s.filesFromDir(envDir, s.environment)
		if err != nil {
			return nil, fmt.Errorf("failed to list environment SQL scripts: %w", err)
		}
		files = append(files, envFiles...)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Environment != files[j].Environment {
			return files[i].Environment == "common"
		}
		return files[i].Order < files[j].Order
	})

	return files, nil
}

func (s *ScriptRunner) filesFromDir(dir, environment string) ([]ScriptFile, error) {
	var files []ScriptFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, ScriptFile{
			Path:        path,
			Name:        d.Name(),
			Order:       parseScriptOrder(d.Name()),
			Environment: environment,
			ModTime:     info.ModTime(),
		})
		return nil
	})

	return files, err
}

var scriptOrderPattern = regexp.MustCompile(`^(\d+)_`)

func parseScriptOrder(filename string) int {
	matches := scriptOrderPattern.FindStringSubmatch(filename)
	if len(matches) > 1 {
		var order int
		_, _ = fmt.Sscanf(matches[1], "%d", &order)
		return order
	}
	return 999
}

func (s *ScriptRunner) executeFile(ctx context.Context, file ScriptFile) ScriptResult {
	start := time.Now()
	result := ScriptResult{File: file.Path}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read file: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	statements := splitSQLStatements(string(content))
	if len(statements) == 0 {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var total int64
		for _, stmt := range statements {
			res, execErr := tx.ExecContext(ctx, stmt)
			if execErr != nil {
				return fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, execErr)
			}
			affected, _ := res.RowsAffected()
			total += affected
		}
		result.RowsAffected = total
		return nil
	})

	if err != nil {
		result.Error = err
	} else {
		result.Success = true
	}
	result.Duration = time.Since(start)
	return result
}

// splitSQLStatements splits a script into semicolon-terminated statements,
// skipping blank lines and line comments.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		current.WriteString(line)
		current.WriteString(" ")

		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if current.Len() > 0 {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}
