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
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newManagerTestConfig(t *testing.T) *ConnectionConfig {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = filepath.Join(t.TempDir(), "manager_test")
	cfg.HealthCheckInterval = 0 // tests drive health checks themselves
	return cfg
}

func TestManagerConnectHealthAndDisconnect(t *testing.T) {
	cfg := newManagerTestConfig(t)
	m := NewDatabaseManager(cfg)
	ctx := context.Background()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if err := m.Ping(ctx); err != nil {
		t.Fatalf("Ping error: %v", err)
	}
	status := m.HealthCheck(ctx)
	if !status.Healthy || !status.Connected {
		t.Fatalf("health = %+v, want healthy and connected", status)
	}

	if err := m.Disconnect(); err != nil {
		t.Fatalf("Disconnect error: %v", err)
	}
	// A second disconnect must be a no-op, not a double close.
	if err := m.Disconnect(); err != nil {
		t.Fatalf("repeated Disconnect error: %v", err)
	}
}

func TestManagerReconnectCounterIsSynchronized(t *testing.T) {
	cfg := newManagerTestConfig(t)
	cfg.MaxReconnectTries = 2
	cfg.ReconnectInterval = 0
	m := NewDatabaseManager(cfg).(*defaultDatabaseManager)
	ctx := context.Background()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	t.Cleanup(func() { _ = m.Disconnect() })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.handleReconnect()
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.HealthCheck(context.Background())
		}()
	}
	wg.Wait()

	if status := m.HealthCheck(ctx); !status.Healthy {
		t.Fatalf("health after concurrent reconnects = %+v, want healthy", status)
	}
}

func TestHealthCheckLoopSurvivesReconnect(t *testing.T) {
	cfg := newManagerTestConfig(t)
	cfg.HealthCheckInterval = 10 * time.Millisecond
	m := NewDatabaseManager(cfg).(*defaultDatabaseManager)
	ctx := context.Background()

	if err := m.Connect(ctx); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	t.Cleanup(func() { _ = m.Disconnect() })

	if err := m.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect error: %v", err)
	}
	mark := time.Now()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.RLock()
		checked := m.lastHealthCheck.After(mark)
		m.mu.RUnlock()
		if checked {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("health check loop did not run after reconnect")
}
