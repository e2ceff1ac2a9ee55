// Package kv provides the key-value persistence port the workspace state is
// mirrored into. Callers depend only on the Store interface so the state
// layer can be tested against an in-memory fake.
package kv

// Stable keys under which workspace state is persisted. Each key owns one
// JSON document and is rewritten whenever its owning state changes.
const (
	KeyToken       = "token"
	KeyUserEmail   = "user_email"
	KeyLocalMode   = "local_mode"
	KeyLocalAPIKey = "local_api_key"
	KeyResults     = "results"
	KeyCookies     = "cookies"
	KeyFolders     = "folders"
	KeySelection   = "selection"
)

// Store is the persistence port. Load returns (nil, false, nil) for a
// missing key.
type Store interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, value []byte) error
	Delete(key string) error
	Close() error
}
