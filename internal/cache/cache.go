// Package cache is the persistent store of resolved network ownership
// records, keyed by normalized address. It is a plain key-value store:
// freshness policy lives with the caller.
package cache

import (
	"encoding/json"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFile is the cache location used when none is configured.
const DefaultFile = "ip_networks_cache.json"

// DefaultTTL is how long an entry counts as fresh.
const DefaultTTL = 14 * 24 * time.Hour

// Entry is one resolved record. FQDN is empty for networks and for hosts
// without a PTR record.
type Entry struct {
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	CIDR        string    `json:"cidr,omitempty"`
	Country     string    `json:"country,omitempty"`
	Registry    string    `json:"registry,omitempty"`
	FQDN        string    `json:"fqdn,omitempty"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Store maps normalized address keys to entries and persists them as an
// indented JSON file so the cache stays inspectable by hand.
type Store struct {
	path    string
	entries map[string]Entry
	nowFn   func() time.Time
}

// Load reads the store from path. A missing file yields an empty store; an
// unreadable or corrupt file is logged and likewise yields an empty store,
// so a damaged cache never blocks a run.
func Load(path string, log zerolog.Logger) *Store {
	s := &Store{
		path:    path,
		entries: make(map[string]Entry),
		nowFn:   time.Now,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("cache unreadable, starting empty")
		}
		return s
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cache corrupt, starting empty")
		s.entries = make(map[string]Entry)
	}
	return s
}

// Get returns the entry for key, if present. Never touches the network.
func (s *Store) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Covering returns a cached entry whose CIDR contains addr. One resolved
// answer for a block thereby serves every other address inside it. Entries
// without a parseable CIDR (range handles) never match.
func (s *Store) Covering(addr string) (Entry, bool) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return Entry{}, false
	}
	for _, e := range s.entries {
		prefix, err := netip.ParsePrefix(e.CIDR)
		if err != nil {
			continue
		}
		if prefix.Contains(ip) {
			return e, true
		}
	}
	return Entry{}, false
}

// Put stores an entry under key with overwrite semantics, stamping the
// resolved-at time.
func (s *Store) Put(key string, e Entry) {
	e.ResolvedAt = s.nowFn()
	s.entries[key] = e
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Save persists the store. The file is written to a temp name in the same
// directory and renamed into place so a partial write cannot corrupt an
// existing cache.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.entries, "", "    ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Fresh reports whether e is still within ttl as of now.
func Fresh(e Entry, now time.Time, ttl time.Duration) bool {
	return now.Sub(e.ResolvedAt) < ttl
}
