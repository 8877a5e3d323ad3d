package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when a requested conversation does not exist.
var ErrNotFound = errors.New("not found")

// maxConcurrentLoads bounds parallel file reads during List.
const maxConcurrentLoads = 8

// Message is a single message in a saved conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SavedConversation is one archived transcript, stored as a single JSON
// file under a date-bucketed directory.
type SavedConversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Messages     []Message `json:"messages"`
	Tags         []string  `json:"tags"`
	KeyPoints    []string  `json:"key_points"`
	SavedAt      time.Time `json:"saved_at"`
	MessageCount int       `json:"message_count"`
}

// Store is a directory tree of JSON files, one per saved conversation,
// bucketed by save date (root/YYYY-MM-DD/<id>.json).
type Store struct {
	root   string
	logger *slog.Logger
}

// Open creates (if needed) the archive root directory and returns a Store.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &Store{root: root, logger: slog.Default()}, nil
}

// Root returns the archive root directory.
func (s *Store) Root() string {
	return s.root
}

// Save writes a conversation to the archive. A missing ID gets a fresh
// UUID and a zero SavedAt gets the current UTC time; MessageCount is
// always recomputed. Returns the stored record and the file path.
func (s *Store) Save(sc SavedConversation) (SavedConversation, string, error) {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.SavedAt.IsZero() {
		sc.SavedAt = time.Now().UTC()
	}
	if sc.Tags == nil {
		sc.Tags = []string{}
	}
	if sc.KeyPoints == nil {
		sc.KeyPoints = []string{}
	}
	sc.MessageCount = len(sc.Messages)

	dir := filepath.Join(s.root, sc.SavedAt.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SavedConversation{}, "", fmt.Errorf("creating date directory: %w", err)
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return SavedConversation{}, "", fmt.Errorf("marshaling conversation: %w", err)
	}

	path := filepath.Join(dir, sc.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SavedConversation{}, "", fmt.Errorf("writing conversation file: %w", err)
	}

	return sc, path, nil
}

// List loads every conversation in the archive, newest first. Files in
// a date directory are loaded concurrently; unreadable or corrupt files
// are skipped.
func (s *Store) List(ctx context.Context) ([]SavedConversation, error) {
	dates, err := s.dateDirs()
	if err != nil {
		return nil, err
	}

	var (
		mu            sync.Mutex
		conversations []SavedConversation
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for _, date := range dates {
		dir := filepath.Join(s.root, date)
		files, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, path := range files {
			g.Go(func() error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				sc, err := loadFile(path)
				if err != nil {
					s.logger.Debug("skipping unreadable archive file", "path", path, "error", err)
					return nil
				}
				mu.Lock()
				conversations = append(conversations, sc)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].SavedAt.Equal(conversations[j].SavedAt) {
			return conversations[i].ID < conversations[j].ID
		}
		return conversations[i].SavedAt.After(conversations[j].SavedAt)
	})

	return conversations, nil
}

// Get returns the conversation whose filename contains id. Prefixes of
// a full ID resolve as long as the match is unambiguous in practice.
func (s *Store) Get(id string) (SavedConversation, error) {
	path, err := s.find(id)
	if err != nil {
		return SavedConversation{}, err
	}
	return loadFile(path)
}

// Delete removes a conversation file and prunes its date directory if
// that leaves the directory empty.
func (s *Store) Delete(id string) error {
	path, err := s.find(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing conversation file: %w", err)
	}

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		os.Remove(dir)
	}
	return nil
}

func (s *Store) find(id string) (string, error) {
	if id == "" {
		return "", ErrNotFound
	}
	dates, err := s.dateDirs()
	if err != nil {
		return "", err
	}
	for _, date := range dates {
		dir := filepath.Join(s.root, date)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if !e.IsDir() && strings.HasSuffix(name, ".json") && strings.Contains(name, id) {
				return filepath.Join(dir, name), nil
			}
		}
	}
	return "", ErrNotFound
}

// dateDirs returns date directory names under the root, newest first.
func (s *Store) dateDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading archive root: %w", err)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func loadFile(path string) (SavedConversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SavedConversation{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var sc SavedConversation
	if err := json.Unmarshal(data, &sc); err != nil {
		return SavedConversation{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sc, nil
}
