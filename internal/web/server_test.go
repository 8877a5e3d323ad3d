package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/chathub/internal/archive"
)

func setupServer(t *testing.T) (http.Handler, *archive.Store) {
	t.Helper()
	store, err := archive.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	return NewHandler(store, nil), store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestIndex_EmptyState(t *testing.T) {
	h, _ := setupServer(t)

	rr := get(t, h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No conversations yet") {
		t.Error("empty archive should render the empty state")
	}
}

func TestIndex_ListsConversations(t *testing.T) {
	h, store := setupServer(t)

	if _, _, err := store.Save(archive.SavedConversation{
		Title:   "Deploy pipeline design",
		Summary: "Rolled out blue-green deploys.",
		Tags:    []string{"infra", "ci", "deploys", "fourth-tag"},
		Messages: []archive.Message{
			{Role: "user", Content: "How do we roll back fast?"},
		},
	}); err != nil {
		t.Fatalf("seeding archive: %v", err)
	}

	rr := get(t, h, "/")
	body := rr.Body.String()

	if !strings.Contains(body, "Deploy pipeline design") {
		t.Error("index missing conversation title")
	}
	if !strings.Contains(body, "1 messages") {
		t.Error("index missing message count")
	}
	if strings.Contains(body, "fourth-tag") {
		t.Error("index should show at most 3 tags")
	}
	if !strings.Contains(body, `class="nav-link active"`) && !strings.Contains(body, `nav-link active`) {
		t.Error("index nav should mark Archive as active")
	}
}

func TestDetail(t *testing.T) {
	h, store := setupServer(t)

	saved, _, err := store.Save(archive.SavedConversation{
		Title:     "Schema migration plan",
		Summary:   "Plan for the zero-downtime migration.",
		Tags:      []string{"db"},
		KeyPoints: []string{"backfill first", "dual-write for a week"},
		Messages: []archive.Message{
			{Role: "user", Content: "What's the rollout order?"},
			{Role: "assistant", Content: "Backfill, dual-write, cut over."},
		},
	})
	if err != nil {
		t.Fatalf("seeding archive: %v", err)
	}

	rr := get(t, h, "/conversation/"+saved.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()

	for _, want := range []string{
		"Schema migration plan",
		"backfill first",
		"Backfill, dual-write, cut over.",
		`class="message user"`,
		`class="message assistant"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("detail page missing %q", want)
		}
	}
}

func TestDetail_NotFound(t *testing.T) {
	h, _ := setupServer(t)

	rr := get(t, h, "/conversation/ghost")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Conversation not found") {
		t.Error("missing not-found page body")
	}
}

func TestDetail_EscapesContent(t *testing.T) {
	h, store := setupServer(t)

	saved, _, err := store.Save(archive.SavedConversation{
		Title: "XSS check",
		Messages: []archive.Message{
			{Role: "user", Content: `<script>alert("boo")</script>`},
		},
	})
	if err != nil {
		t.Fatalf("seeding archive: %v", err)
	}

	rr := get(t, h, "/conversation/"+saved.ID)
	body := rr.Body.String()
	if strings.Contains(body, `<script>alert`) {
		t.Error("message content not HTML-escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("escaped message content missing from page")
	}
}

func TestTrending(t *testing.T) {
	h, _ := setupServer(t)

	rr := get(t, h, "/trending")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Q4 Planning Strategy") {
		t.Error("trending page missing sample data")
	}
	if !strings.Contains(body, "1. ") || !strings.Contains(body, "5. ") {
		t.Error("trending page missing rank numbering")
	}
}

func TestRoadmap(t *testing.T) {
	h, _ := setupServer(t)

	rr := get(t, h, "/roadmap")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Full-text Search") {
		t.Error("roadmap page missing features")
	}
	if !strings.Contains(body, "Coming Soon") {
		t.Error("roadmap status badge not title-cased")
	}
}

func TestAPIConversations(t *testing.T) {
	h, store := setupServer(t)

	rr := get(t, h, "/api/conversations")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("empty archive API = %q, want []", got)
	}

	if _, _, err := store.Save(archive.SavedConversation{
		Title:   "One",
		SavedAt: time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seeding archive: %v", err)
	}

	rr = get(t, h, "/api/conversations")
	var conversations []archive.SavedConversation
	if err := json.NewDecoder(rr.Body).Decode(&conversations); err != nil {
		t.Fatalf("decoding API response: %v", err)
	}
	if len(conversations) != 1 || conversations[0].Title != "One" {
		t.Errorf("API = %+v, want single conversation titled One", conversations)
	}
}

func TestHealth(t *testing.T) {
	h, _ := setupServer(t)

	rr := get(t, h, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"coming-soon", "Coming Soon"},
		{"planned", "Planned"},
		{"exploring", "Exploring"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.in); got != tt.want {
			t.Errorf("statusLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short, 10) = %q", got)
	}
	long := strings.Repeat("é", 250)
	got := truncate(long, 200)
	if len([]rune(got)) != 203 {
		t.Errorf("truncate rune length = %d, want 203", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated string missing ellipsis")
	}
}
