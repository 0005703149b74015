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
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// SQLError classifies a backing-store failure. The persistence layer never
// translates errors itself; this helper exists for callers who want to
// inspect a propagated failure after the fact.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

// IsSQLError reports whether err is a recognized SQL failure and its kind.
// MySQL errors are matched by driver error number; PostgreSQL and SQLite
// errors are matched by SQLSTATE code or message text.
func IsSQLError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return true, classifyMySQLNumber(mysqlErr.Number)
	}

	s := strings.ToLower(err.Error())
	for _, m := range textMatchers {
		if m.match(s) {
			return true, m.kind
		}
	}
	return false, UnknownErr
}

func classifyMySQLNumber(number uint16) SQLError {
	switch number {
	case 1091:
		return NoIndexErr
	case 1054:
		return NoColumnErr
	case 1061:
		return ExistIndexErr
	case 1060:
		return ExistColumnErr
	case 1062:
		return DuplicateKeyErr
	case 1048:
		return NotNullViolationErr
	case 1216, 1217:
		return ForeignKeyViolationErr
	case 3819:
		return CheckConstraintViolationErr
	case 1265:
		return DataTruncatedErr
	default:
		return UnknownErr
	}
}

type textMatcher struct {
	kind  SQLError
	match func(string) bool
}

func anyOf(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

func allOf(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if !strings.Contains(s, sub) {
				return false
			}
		}
		return true
	}
}

func either(fns ...func(string) bool) func(string) bool {
	return func(s string) bool {
		for _, fn := range fns {
			if fn(s) {
				return true
			}
		}
		return false
	}
}

// Order matters: more specific matchers come before broader ones.
var textMatchers = []textMatcher{
	{NoColumnErr, anyOf("sqlstate 42703", "undefined column", "no such column")},
	{NoIndexErr, either(anyOf("sqlstate 42704", "no such index"), allOf("does not exist", "index"))},
	{NoTableErr, anyOf("sqlstate 42p01", "undefined table", "no such table")},
	{ExistIndexErr, allOf("already exists", "index")},
	{ExistTableErr, either(allOf("already exists", "table"), allOf("already exists", "relation"))},
	{DuplicateKeyErr, anyOf("duplicate key value", "unique constraint failed", "sqlstate 23505")},
	{NotNullViolationErr, anyOf("not-null constraint", "sqlstate 23502", "not null constraint failed")},
	{ForeignKeyViolationErr, anyOf("foreign key violation", "foreign key constraint failed", "sqlstate 23503")},
	{CheckConstraintViolationErr, anyOf("check constraint", "sqlstate 23514")},
	{DataTruncatedErr, anyOf("string data right truncation", "sqlstate 22001", "data truncated")},
	{InvalidTypeCastErr, anyOf("datatype mismatch", "sqlstate 42804")},
}
