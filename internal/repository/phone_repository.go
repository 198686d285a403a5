package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// PhoneRepo stores the durable user→phone map.  The on-disk format is a
// flat JSON object keyed by the string-encoded user ID, e.g.
// {"1997945569":"972541234567"}.  All access goes through the repo's
// mutex; the in-memory map is the source of truth and every mutation is
// flushed to disk before it is reported as committed.
type PhoneRepo struct {
	mu     sync.Mutex
	path   string
	phones map[int64]string
}

// NewPhoneRepo loads the phone document from dir.  A missing file is an
// empty map, not an error: the first deployment starts with no phones.
// A malformed file is an error; silently discarding user data on a bad
// parse would be worse than refusing to start.
func NewPhoneRepo(dir string) (*PhoneRepo, error) {
	r := &PhoneRepo{
		path:   filepath.Join(dir, "user_phones.json"),
		phones: make(map[int64]string),
	}
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read phone records: %w", err)
	}
	var doc map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse phone records: %w", err)
	}
	for key, phone := range doc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse phone records: bad user id %q", key)
		}
		r.phones[id] = phone
	}
	return r, nil
}

// Get returns the stored phone for userID, or "" and false.
func (r *PhoneRepo) Get(userID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phones[userID]
	return p, ok
}

// Set stores phone for userID and flushes the document.  Storing the
// value already present is a no-op reported as ErrAlreadyPresent so the
// caller can skip the "saved" confirmation.
func (r *PhoneRepo) Set(userID int64, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phones[userID] == phone {
		return ErrAlreadyPresent
	}
	prev, had := r.phones[userID]
	r.phones[userID] = phone
	if err := r.flushLocked(); err != nil {
		// Roll back the in-memory map so memory and disk stay in step.
		if had {
			r.phones[userID] = prev
		} else {
			delete(r.phones, userID)
		}
		return err
	}
	return nil
}

// All returns a copy of the stored map for admin listing.
func (r *PhoneRepo) All() map[int64]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]string, len(r.phones))
	for id, p := range r.phones {
		out[id] = p
	}
	return out
}

// UserIDs returns the IDs with stored phones in ascending order, for
// deterministic admin listings.
func (r *PhoneRepo) UserIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.phones))
	for id := range r.phones {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clear removes every record and flushes the now-empty document.  Used
// only by the admin clearphones command.
func (r *PhoneRepo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.phones
	r.phones = make(map[int64]string)
	if err := r.flushLocked(); err != nil {
		r.phones = prev
		return err
	}
	return nil
}

// flushLocked serializes the map and writes it atomically.  Callers hold
// the mutex.
func (r *PhoneRepo) flushLocked() error {
	doc := make(map[string]string, len(r.phones))
	for id, phone := range r.phones {
		doc[strconv.FormatInt(id, 10)] = phone
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode phone records: %w", err)
	}
	return writeFileAtomic(r.path, data)
}
