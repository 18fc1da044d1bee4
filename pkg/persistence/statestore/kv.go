// Package statestore persists the client's local snapshot: the session
// list, the per-session message map, the dark-mode flag, and the API key.
// The four entries live under independent keys with no cross-key
// transaction; a crash between writes can leave them inconsistent, which
// the client tolerates on load.
package statestore

// Snapshot entry keys. Each is independently readable and writable.
const (
	KeySessions        = "sessions"
	KeySessionMessages = "sessionMessages"
	KeyDarkMode        = "darkMode"
	KeyAPIKey          = "apiKey"
)

// KV is the minimal key-value surface the snapshot adapter writes through.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
