package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/agent"
	"github.com/wantokjobs/jean/internal/extract"
	"github.com/wantokjobs/jean/internal/flow"
	"github.com/wantokjobs/jean/internal/models"
	"github.com/wantokjobs/jean/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	exec := actions.New(store, zap.NewNop())
	a := agent.New(store, exec, flow.New(zap.NewNop()), extract.Plaintext{}, zap.NewNop())
	return New(a, zap.NewNop(), nil), store
}

func postChat(t *testing.T, h http.Handler, body map[string]any, userID string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatRoundTrip(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Router()

	if _, err := store.CreateJob(context.Background(), &models.Job{
		EmployerID: 100, Title: "Truck Driver", Location: "Lae", Status: models.JobActive,
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	rec := postChat(t, h, map[string]any{"message": "find driver jobs in Lae"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var reply agent.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.SessionToken == "" {
		t.Error("reply missing session token")
	}
	if !strings.Contains(reply.Text, "Truck Driver") {
		t.Errorf("reply missing seeded job:\n%s", reply.Text)
	}

	// Continue the conversation on the same token; both turns show up
	// in the history.
	rec = postChat(t, h, map[string]any{"message": "hello", "session_token": reply.SessionToken}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second turn status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?session_token="+reply.SessionToken, nil)
	histRec := httptest.NewRecorder()
	h.ServeHTTP(histRec, req)
	if histRec.Code != http.StatusOK {
		t.Fatalf("history status = %d", histRec.Code)
	}
	var hist historyResponse
	if err := json.Unmarshal(histRec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Messages) != 4 {
		t.Errorf("history length = %d, want 4 (two turns)", len(hist.Messages))
	}
	if hist.Messages[0].Role != models.RoleMessageUser {
		t.Errorf("transcript not chronological: first role %q", hist.Messages[0].Role)
	}
}

func TestChatValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	rec := postChat(t, h, map[string]any{"message": ""}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

func TestIdentityHeaderRoutesToUser(t *testing.T) {
	srv, store := newTestServer(t)
	store.AddUser(&models.User{ID: 7, Name: "Peter Kaupa", Email: "peter@example.com", Role: models.RoleJobseeker})
	h := srv.Router()

	rec := postChat(t, h, map[string]any{"message": "hello"}, "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var reply agent.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if !strings.Contains(reply.Text, "Peter") {
		t.Errorf("authenticated greeting should use the first name:\n%s", reply.Text)
	}

	sess, err := store.LatestSessionByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if sess.UserID == nil || *sess.UserID != 7 {
		t.Errorf("session not bound to user: %+v", sess.UserID)
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?session_token=nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}
