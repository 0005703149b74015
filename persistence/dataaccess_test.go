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

package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/uptrace/bun"
)

type note struct {
	ID   int64
	Body string
}

// fakeSession records every delegated call so the delegation contracts can
// be asserted without a database.
type fakeSession struct {
	calls     []string
	entities  []interface{}
	execCount int64
	funcValue int64
	commitErr error
	execErr   error
}

func (s *fakeSession) record(op string, entity interface{}) {
	s.calls = append(s.calls, op)
	s.entities = append(s.entities, entity)
}

func (s *fakeSession) Save(_ context.Context, entity interface{}) error {
	s.record("save", entity)
	return nil
}

func (s *fakeSession) Update(_ context.Context, entity interface{}) error {
	s.record("update", entity)
	return nil
}

func (s *fakeSession) Delete(_ context.Context, entity interface{}) error {
	s.record("delete", entity)
	return nil
}

func (s *fakeSession) Persist(_ context.Context, entity interface{}) error {
	s.record("persist", entity)
	return nil
}

func (s *fakeSession) Evict(entity interface{}) {
	s.record("evict", entity)
}

func (s *fakeSession) Refresh(_ context.Context, entity interface{}) error {
	s.record("refresh", entity)
	return nil
}

func (s *fakeSession) NewSelect() *bun.SelectQuery {
	s.record("select", nil)
	return nil
}

func (s *fakeSession) QuerySQL(_ context.Context, dest interface{}, query string, args ...interface{}) error {
	s.record("query_sql", dest)
	return nil
}

func (s *fakeSession) ExecSQL(_ context.Context, query string, args ...interface{}) (int64, error) {
	s.record("exec_sql", nil)
	return s.execCount, s.execErr
}

func (s *fakeSession) CallFunction(_ context.Context, name string, args ...interface{}) (int64, error) {
	s.record("call_function", nil)
	return s.funcValue, nil
}

func (s *fakeSession) Commit(_ context.Context) error {
	s.record("commit", nil)
	return s.commitErr
}

func (s *fakeSession) Rollback(_ context.Context) error {
	s.record("rollback", nil)
	return nil
}

func (s *fakeSession) Close() error {
	s.record("close", nil)
	return nil
}

func newFakeAccess() (*fakeSession, *DataAccess) {
	session := &fakeSession{}
	return session, NewDataAccess(session, nil)
}

func TestAddReturnsSameEntityWithOneSaveCall(t *testing.T) {
	session, d := newFakeAccess()
	item := &note{Body: "hello"}

	got, err := Add(context.Background(), d, item)
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if got != item {
		t.Fatalf("Add returned %p, want the same entity %p", got, item)
	}
	if len(session.calls) != 1 || session.calls[0] != "save" {
		t.Fatalf("calls = %v, want exactly one save", session.calls)
	}
	if session.entities[0] != interface{}(item) {
		t.Fatalf("saved entity %v, want %v", session.entities[0], item)
	}
}

func TestCrudOperationsDelegateOnce(t *testing.T) {
	ctx := context.Background()
	item := &note{ID: 1}

	cases := []struct {
		name string
		call func(d *DataAccess) error
		want string
	}{
		{"remove", func(d *DataAccess) error { _, err := Remove(ctx, d, item); return err }, "delete"},
		{"update", func(d *DataAccess) error { _, err := Update(ctx, d, item); return err }, "update"},
		{"attach", func(d *DataAccess) error { _, err := Attach(ctx, d, item); return err }, "persist"},
		{"reload", func(d *DataAccess) error { _, err := Reload(ctx, d, item); return err }, "refresh"},
	}
	for _, tc := range cases {
		session, d := newFakeAccess()
		if err := tc.call(d); err != nil {
			t.Fatalf("%s error: %v", tc.name, err)
		}
		if len(session.calls) != 1 || session.calls[0] != tc.want {
			t.Fatalf("%s: calls = %v, want exactly one %s", tc.name, session.calls, tc.want)
		}
	}
}

func TestDetachReturnsSameEntity(t *testing.T) {
	session, d := newFakeAccess()
	item := &note{ID: 7}

	if got := Detach(d, item); got != item {
		t.Fatalf("Detach returned %p, want %p", got, item)
	}
	if len(session.calls) != 1 || session.calls[0] != "evict" {
		t.Fatalf("calls = %v, want exactly one evict", session.calls)
	}
}

func TestCommitFiresHooksAroundCommitInOrder(t *testing.T) {
	session, d := newFakeAccess()
	m := NewEventManager()
	BindEventManager(d, m)

	var order []string
	m.SubscribePreSave("A", func() { order = append(order, "A") })
	m.SubscribePreSave("B", func() { order = append(order, "B") })
	m.SubscribePostSave("C", func() { order = append(order, "C") })

	count, err := d.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if count != 0 {
		t.Fatalf("Commit count = %d, want 0", count)
	}

	want := []string{"A", "B", "C"}
	if len(order) != len(want) {
		t.Fatalf("hook order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hook order = %v, want %v", order, want)
		}
	}
	// The session commit must sit between PreSave and PostSave: the fake
	// records it, and PostSave ran after, so one commit call suffices here.
	if len(session.calls) != 1 || session.calls[0] != "commit" {
		t.Fatalf("session calls = %v, want exactly one commit", session.calls)
	}
}

func TestCommitInterleavesHooksWithSessionCommit(t *testing.T) {
	session, d := newFakeAccess()
	m := NewEventManager()
	BindEventManager(d, m)

	var preCommits, postCommits int
	m.SubscribePreSave("pre", func() { preCommits = countCommits(session) })
	m.SubscribePostSave("post", func() { postCommits = countCommits(session) })

	if _, err := d.Commit(context.Background()); err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if preCommits != 0 {
		t.Fatalf("PreSave saw %d commits, want 0 (must run before the session commit)", preCommits)
	}
	if postCommits != 1 {
		t.Fatalf("PostSave saw %d commits, want 1 (must run after the session commit)", postCommits)
	}
}

func countCommits(s *fakeSession) int {
	n := 0
	for _, c := range s.calls {
		if c == "commit" {
			n++
		}
	}
	return n
}

func TestCommitFailureSkipsPostSave(t *testing.T) {
	session, d := newFakeAccess()
	session.commitErr = errors.New("disk full")
	m := NewEventManager()
	BindEventManager(d, m)

	preFired := false
	postFired := false
	m.SubscribePreSave("pre", func() { preFired = true })
	m.SubscribePostSave("post", func() { postFired = true })

	_, err := d.Commit(context.Background())
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("Commit error = %v, want the session failure unmodified", err)
	}
	if !preFired {
		t.Fatal("PreSave did not fire before the failing commit")
	}
	if postFired {
		t.Fatal("PostSave fired after a failed commit")
	}
}

func TestCommitReturnsZeroRegardlessOfWrites(t *testing.T) {
	_, d := newFakeAccess()
	ctx := context.Background()

	if _, err := Add(ctx, d, &note{Body: "one"}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if _, err := Add(ctx, d, &note{Body: "two"}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	count, err := d.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if count != 0 {
		t.Fatalf("Commit count = %d, want the fixed zero placeholder", count)
	}
}

func TestExecSQLReturnsBackingRowCount(t *testing.T) {
	session, d := newFakeAccess()
	session.execCount = 42

	affected, err := d.ExecSQL(context.Background(), "DELETE FROM notes WHERE id > ?", 10)
	if err != nil {
		t.Fatalf("ExecSQL error: %v", err)
	}
	if affected != 42 {
		t.Fatalf("ExecSQL = %d, want the backing store's 42 unmodified", affected)
	}
}

func TestExecSQLPropagatesFailure(t *testing.T) {
	session, d := newFakeAccess()
	session.execErr = errors.New("syntax error")

	if _, err := d.ExecSQL(context.Background(), "DELETE FROM"); err == nil {
		t.Fatal("ExecSQL did not propagate the session failure")
	}
}

func TestCallFunctionReturnsFirstValue(t *testing.T) {
	session, d := newFakeAccess()
	session.funcValue = 7

	value, err := d.CallFunction(context.Background(), "abs", -7)
	if err != nil {
		t.Fatalf("CallFunction error: %v", err)
	}
	if value != 7 {
		t.Fatalf("CallFunction = %d, want 7", value)
	}
}

func TestBindEventManagerSetsContext(t *testing.T) {
	_, d := newFakeAccess()
	m := NewEventManager()

	if m.Context() != nil {
		t.Fatal("new manager already has a context")
	}
	BindEventManager(d, m)
	if m.Context() != d {
		t.Fatalf("manager context = %p, want the bound façade %p", m.Context(), d)
	}
	if d.EventManager() != m {
		t.Fatalf("façade manager = %p, want %p", d.EventManager(), m)
	}
}

func TestRollbackFiresNoHooks(t *testing.T) {
	session, d := newFakeAccess()
	m := NewEventManager()
	BindEventManager(d, m)

	fired := false
	m.SubscribePreSave("pre", func() { fired = true })
	m.SubscribePostSave("post", func() { fired = true })

	if err := d.Rollback(context.Background()); err != nil {
		t.Fatalf("Rollback error: %v", err)
	}
	if fired {
		t.Fatal("Rollback fired a hook")
	}
	if len(session.calls) != 1 || session.calls[0] != "rollback" {
		t.Fatalf("calls = %v, want exactly one rollback", session.calls)
	}
}
