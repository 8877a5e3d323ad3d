package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout = 30 * time.Second

	// The backend rejects requests that do not look like a browser.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36"
)

// ErrCookiesExpired is returned when the session endpoint yields no
// access token, which usually means the browser cookies went stale.
var ErrCookiesExpired = errors.New("session cookies expired or invalid")

// Client talks to the ChatGPT web backend using browser session cookies.
// It is not safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
}

// NewClient creates a Client for the given base URL, seeding a cookie
// jar with the provided cookie name/value pairs.
func NewClient(baseURL string, cookies map[string]string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	jarCookies := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{Name: name, Value: value})
	}
	jar.SetCookies(u, jarCookies)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
	}, nil
}

// LoadCookies reads a JSON object of cookie name/value pairs from path.
func LoadCookies(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cookie file: %w", err)
	}
	var cookies map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parsing cookie file %s: %w", path, err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("cookie file %s contains no cookies", path)
	}
	return cookies, nil
}

// Authenticate fetches an access token from the session endpoint. The
// token is attached as a bearer header on subsequent requests.
func (c *Client) Authenticate(ctx context.Context) error {
	req, err := c.newRequest(ctx, c.baseURL+"/api/auth/session")
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("session endpoint returned %d: %w", resp.StatusCode, ErrCookiesExpired)
	}

	var session struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("decoding session response: %w", err)
	}
	if session.AccessToken == "" {
		return ErrCookiesExpired
	}

	c.accessToken = session.AccessToken
	return nil
}

// GetConversation fetches a single conversation by ID, authenticating
// first if no access token is held yet. The returned Conversation keeps
// the raw response body alongside the decoded fields.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, c.baseURL+"/backend-api/conversation/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching conversation: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading conversation response: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(body, &conv); err != nil {
		return nil, fmt.Errorf("decoding conversation: %w", err)
	}
	conv.Raw = body
	return &conv, nil
}

// ListConversations fetches the recent-conversation listing.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*ConversationList, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	req, err := c.newRequest(ctx, c.baseURL+"/backend-api/conversations?"+q.Encode())
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var list ConversationList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding conversation list: %w", err)
	}
	return &list, nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.accessToken != "" {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("backend returned %d: %w", resp.StatusCode, ErrCookiesExpired)
	default:
		return fmt.Errorf("backend returned unexpected status %d", resp.StatusCode)
	}
}
