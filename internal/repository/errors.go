// Package repository persists the two durable documents of the system:
// the user→phone map and the phone allow-list.  Both are small flat JSON
// files written with a temp-file-and-rename protocol so a reader can
// never observe a half-written document.  Sentinel errors defined here
// let callers distinguish "nothing to do" outcomes from real failures.
package repository

import "errors"

// ErrPhoneNotFound is returned when a lookup or removal names a phone
// that is not stored.  Callers report it as a no-op, not a failure.
var ErrPhoneNotFound = errors.New("phone not found")

// ErrAlreadyPresent is returned when an add would store a value that is
// already there, so the caller can report "already present" instead of
// rewriting the file.
var ErrAlreadyPresent = errors.New("already present")
