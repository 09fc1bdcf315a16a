// Package history stores previously used remote accounts so later refreshes and transfers
// can recover a password the sidecar never holds.
//
// Records are kept as plain JSON. Production use needs encrypted-at-rest storage.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joe/pane-mirror/internal/clock"
	"github.com/joe/pane-mirror/internal/remote"
	"github.com/joe/pane-mirror/pkg/filesystem"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// Exported variables.
var (
	ErrNotFound = errors.New("connection record not found")
)

// Record is one remembered account.
type Record struct {
	ID       uuid.UUID `json:"id"`
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	Username string    `json:"username"`
	Password string    `json:"password"`
	Path     string    `json:"path"`
	LastUsed time.Time `json:"lastUsed"`
}

// Endpoint returns the record's account with its password.
func (r Record) Endpoint() remote.Endpoint {
	return remote.Endpoint{Host: r.Host, Port: r.Port, Username: r.Username, Password: r.Password}
}

func (r Record) matches(host, username string, port int) bool {
	return strings.EqualFold(r.Host, host) && r.Username == username && r.Port == port
}

// Store is a JSON file of records, loaded lazily and saved after every change.
type Store struct {
	mu      sync.Mutex
	fs      filesystem.FileSystem
	path    string
	clock   clock.TimeProvider
	records []Record
	loaded  bool
}

// NewStore creates a Store backed by the file at path.
func NewStore(fsys filesystem.FileSystem, path string, timeProvider clock.TimeProvider) *Store {
	if timeProvider == nil {
		timeProvider = clock.Real{}
	}

	return &Store{fs: fsys, path: path, clock: timeProvider}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Record upserts the account by (host, username, port), stamping it as just used.
func (s *Store) Record(endpoint remote.Endpoint, basePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.load()
	if err != nil {
		return err
	}

	port := endpoint.PortOrDefault()
	now := s.clock.Now().UTC()

	index := slices.IndexFunc(s.records, func(r Record) bool {
		return r.matches(endpoint.Host, endpoint.Username, port)
	})

	if index < 0 {
		s.records = append(s.records, Record{
			ID:       uuid.New(),
			Host:     endpoint.Host,
			Port:     port,
			Username: endpoint.Username,
		})
		index = len(s.records) - 1
	}

	record := &s.records[index]
	record.Password = endpoint.Password
	record.Path = basePath
	record.LastUsed = now

	return s.save()
}

// LookupPassword returns the stored password for an account. Read errors count as a miss.
func (s *Store) LookupPassword(host, username string, port int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.load() != nil {
		return "", false
	}

	for _, record := range s.records {
		if record.matches(host, username, port) && record.Password != "" {
			return record.Password, true
		}
	}

	return "", false
}

// Recent returns up to limit records, most recently used first. limit <= 0 returns all.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.load()
	if err != nil {
		return nil, err
	}

	records := slices.Clone(s.records)
	slices.SortStableFunc(records, func(a, b Record) int {
		return b.LastUsed.Compare(a.LastUsed)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Find returns the record with the given ID.
func (s *Store) Find(id uuid.UUID) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.load()
	if err != nil {
		return Record{}, err
	}

	for _, record := range s.records {
		if record.ID == id {
			return record, nil
		}
	}

	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Remove deletes the record with the given ID.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.load()
	if err != nil {
		return err
	}

	before := len(s.records)
	s.records = slices.DeleteFunc(s.records, func(r Record) bool { return r.ID == id })

	if len(s.records) == before {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return s.save()
}

func (s *Store) load() error {
	if s.loaded {
		return nil
	}

	data, err := s.fs.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.loaded = true

		return nil
	}

	if err != nil {
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	var records []Record

	err = json.Unmarshal(data, &records)
	if err != nil {
		return fmt.Errorf("failed to parse connection history %s: %w", s.path, err)
	}

	s.records = records
	s.loaded = true

	return nil
}

func (s *Store) save() error {
	err := s.fs.MkdirAll(filepath.Dir(s.path), dirPerm)
	if err != nil {
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode connection history: %w", err)
	}

	tmp := s.path + ".tmp"

	err = s.fs.WriteFile(tmp, data, filePerm)
	if err != nil {
		return err //nolint:wrapcheck // FileSystem already names the path
	}

	return s.fs.Rename(tmp, s.path) //nolint:wrapcheck // FileSystem already names the path
}
