// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/auth"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/cliparse"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/db"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/engine"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/notify"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

// SetupTestDB creates a fresh file-backed SQLite database with the full schema.
// The file lives in t.TempDir() so every test starts empty.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, _, err := db.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "votes.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseType:     "sqlite",
		AdminKeySalt:     "test-admin-salt",
		VoterTokenSalt:   "test-voter-salt",
		MaxSubscriptions: 16,
	}
}

// Env bundles everything a handler test needs
type Env struct {
	DB     *sql.DB
	Store  *store.SQL
	Broker *notify.Broker
	Engine *engine.Engine
	Config cliparse.Config
}

// NewTestEnv wires an engine over a fresh SQLite database. Everything is
// closed when the test ends.
func NewTestEnv(t *testing.T) *Env {
	t.Helper()

	conn := SetupTestDB(t)
	cfg := GetTestConfig()
	st := store.NewSQL(conn, store.SQLite)
	broker := notify.NewBroker(cfg.MaxSubscriptions)

	t.Cleanup(func() {
		broker.Close()
		conn.Close()
	})

	return &Env{
		DB:     conn,
		Store:  st,
		Broker: broker,
		Engine: engine.New(st, st, broker),
		Config: cfg,
	}
}

// CreateTestContext creates an open context and returns its ID and admin key
func CreateTestContext(t *testing.T, catalog store.ContextCatalog, cfg cliparse.Config, kind models.ContextKind) (contextID, adminKey string) {
	t.Helper()

	contextID = uuid.NewString()
	err := catalog.CreateContext(context.Background(), models.VoteContext{
		ID:        contextID,
		Kind:      kind,
		Title:     "Derby Day",
		IsOpen:    true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Failed to create test context: %v", err)
	}

	return contextID, auth.GenerateAdminKey(contextID, cfg.AdminKeySalt)
}

// AddTestCandidate adds a candidate to a context and returns its ID
func AddTestCandidate(t *testing.T, catalog store.ContextCatalog, contextID, displayName string) string {
	t.Helper()

	candidateID := uuid.NewString()
	err := catalog.AddCandidate(context.Background(), models.Candidate{
		ID:          candidateID,
		ContextID:   contextID,
		DisplayName: displayName,
	})
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// VoterToken returns a signed X-Voter-Token for voterID
func VoterToken(cfg cliparse.Config, voterID string) string {
	return auth.IssueVoterToken(voterID, cfg.VoterTokenSalt)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
