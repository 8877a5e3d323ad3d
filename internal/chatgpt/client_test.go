package chatgpt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

const testToken = "test-access-token"

// newBackend spins up a fake ChatGPT backend that checks cookies on the
// session endpoint and the bearer token on backend-api routes.
func newBackend(t *testing.T, conversationJSON string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("__Secure-next-auth.session-token")
		if err != nil || c.Value != "session-cookie-value" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"accessToken":%q}`, testToken)
	})
	mux.HandleFunc("/backend-api/conversation/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, conversationJSON)
	})
	mux.HandleFunc("/backend-api/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"items":[{"id":"c1","title":"First"}],"total":1,"limit":%s,"offset":%s}`,
			r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(baseURL, map[string]string{
		"__Secure-next-auth.session-token": "session-cookie-value",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestAuthenticate(t *testing.T) {
	srv := newBackend(t, `{}`)
	c := newTestClient(t, srv.URL)

	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if c.accessToken != testToken {
		t.Errorf("accessToken = %q, want %q", c.accessToken, testToken)
	}
}

func TestAuthenticate_BadCookies(t *testing.T) {
	srv := newBackend(t, `{}`)

	c, err := NewClient(srv.URL, map[string]string{"oai-did": "wrong"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	err = c.Authenticate(context.Background())
	if !errors.Is(err, ErrCookiesExpired) {
		t.Errorf("Authenticate error = %v, want ErrCookiesExpired", err)
	}
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	err := c.Authenticate(context.Background())
	if !errors.Is(err, ErrCookiesExpired) {
		t.Errorf("Authenticate error = %v, want ErrCookiesExpired", err)
	}
}

func TestGetConversation_LazyAuth(t *testing.T) {
	srv := newBackend(t, `{"title":"Testing patterns","mapping":{}}`)
	c := newTestClient(t, srv.URL)

	conv, err := c.GetConversation(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if conv.Title != "Testing patterns" {
		t.Errorf("Title = %q, want %q", conv.Title, "Testing patterns")
	}
	if len(conv.Raw) == 0 {
		t.Error("Raw body not retained")
	}
}

func TestListConversations(t *testing.T) {
	srv := newBackend(t, `{}`)
	c := newTestClient(t, srv.URL)

	list, err := c.ListConversations(context.Background(), 20, 5)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("list = %+v, want one item", list)
	}
	if list.Limit != 20 || list.Offset != 5 {
		t.Errorf("limit/offset = %d/%d, want 20/5 (query params not forwarded)", list.Limit, list.Offset)
	}
	if list.Items[0].Title != "First" {
		t.Errorf("Items[0].Title = %q, want First", list.Items[0].Title)
	}
}

func TestLoadCookies(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cookies.json"
	if err := writeFile(path, `{"oai-did":"abc","_account":"def"}`); err != nil {
		t.Fatal(err)
	}

	cookies, err := LoadCookies(path)
	if err != nil {
		t.Fatalf("LoadCookies failed: %v", err)
	}
	if cookies["oai-did"] != "abc" {
		t.Errorf("cookies[oai-did] = %q, want abc", cookies["oai-did"])
	}
}

func TestLoadCookies_Empty(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cookies.json"
	if err := writeFile(path, `{}`); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCookies(path); err == nil {
		t.Error("expected error for empty cookie file")
	}
}

func TestLoadCookies_Missing(t *testing.T) {
	if _, err := LoadCookies(t.TempDir() + "/nope.json"); err == nil {
		t.Error("expected error for missing cookie file")
	}
}
