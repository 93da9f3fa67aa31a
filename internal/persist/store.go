// Package persist stores reader state between runs: page and zoom per open
// document and the recent-files list. Both live behind a small JSON
// key-value Store so the file and sqlite backends share one contract.
package persist

import (
	"errors"
	"fmt"
	"regexp"
)

// Store is a durable key-value store of JSON documents.
type Store interface {
	// ReadJSON decodes the value stored under key into v. found is false
	// when nothing is stored under key.
	ReadJSON(key string, v any) (found bool, err error)
	// WriteJSON replaces the value stored under key.
	WriteJSON(key string, v any) error
	Close() error
}

// ErrInvalidKey reports a key that is empty or not a plain file-safe name.
var ErrInvalidKey = errors.New("persist: invalid key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store selected by backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return OpenSQLite(dir)
	default:
		return nil, fmt.Errorf("persist: unknown backend %q", backend)
	}
}
