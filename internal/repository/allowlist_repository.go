package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// AllowListRepo stores the set of phone numbers permitted to use the
// parking features.  The on-disk format is a flat JSON array of phone
// strings.  Phones are expected to arrive already normalized; the repo
// does exact-string membership only.
type AllowListRepo struct {
	mu     sync.Mutex
	path   string
	phones map[string]bool
}

// NewAllowListRepo loads the allow-list document from dir.  Missing
// file means an empty list; malformed file is an error.
func NewAllowListRepo(dir string) (*AllowListRepo, error) {
	r := &AllowListRepo{
		path:   filepath.Join(dir, "allowed_phones.json"),
		phones: make(map[string]bool),
	}
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}
	var doc []string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse allow-list: %w", err)
	}
	for _, p := range doc {
		r.phones[p] = true
	}
	return r, nil
}

// Contains reports exact-string membership of phone.
func (r *AllowListRepo) Contains(phone string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phones[phone]
}

// Add stores phone and flushes.  Adding a phone already present is
// reported as ErrAlreadyPresent without touching the file.
func (r *AllowListRepo) Add(phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phones[phone] {
		return ErrAlreadyPresent
	}
	r.phones[phone] = true
	if err := r.flushLocked(); err != nil {
		delete(r.phones, phone)
		return err
	}
	return nil
}

// Remove deletes phone and flushes.  Removing an absent phone is
// reported as ErrPhoneNotFound without touching the file.
func (r *AllowListRepo) Remove(phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.phones[phone] {
		return ErrPhoneNotFound
	}
	delete(r.phones, phone)
	if err := r.flushLocked(); err != nil {
		r.phones[phone] = true
		return err
	}
	return nil
}

// All returns the stored phones in sorted order for admin listing.
func (r *AllowListRepo) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.phones))
	for p := range r.phones {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *AllowListRepo) flushLocked() error {
	doc := make([]string, 0, len(r.phones))
	for p := range r.phones {
		doc = append(doc, p)
	}
	sort.Strings(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode allow-list: %w", err)
	}
	return writeFileAtomic(r.path, data)
}
