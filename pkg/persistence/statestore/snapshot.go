package statestore

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/session"
)

// SnapshotStore reads and writes the typed snapshot entries through a KV.
// Every write is best effort: callers log failures and keep going with the
// in-memory state.
type SnapshotStore struct {
	kv KV
}

func NewSnapshotStore(kv KV) *SnapshotStore {
	return &SnapshotStore{kv: kv}
}

// Open returns a snapshot store backed by SQLite at path, degrading to an
// in-memory store when the database cannot be opened so the client stays
// usable without persistence.
func Open(path string) *SnapshotStore {
	kv, err := OpenSQLiteKV(path)
	if err != nil {
		log.Warn().Err(err).Str("component", "statestore").Str("path", path).Msg("falling back to in-memory state store")
		return NewSnapshotStore(NewInMemoryKV())
	}
	return NewSnapshotStore(kv)
}

func (s *SnapshotStore) Close() error {
	if s == nil || s.kv == nil {
		return nil
	}
	return s.kv.Close()
}

// SaveSessions serializes the session list, dates as RFC 3339 strings.
func (s *SnapshotStore) SaveSessions(sessions []session.Session) error {
	return s.setJSON(KeySessions, sessions)
}

// LoadSessions restores the session list; a missing entry yields nil.
func (s *SnapshotStore) LoadSessions() ([]session.Session, error) {
	var sessions []session.Session
	ok, err := s.getJSON(KeySessions, &sessions)
	if err != nil || !ok {
		return nil, err
	}
	return sessions, nil
}

// SaveMessages serializes the per-session message history map.
func (s *SnapshotStore) SaveMessages(histories map[string][]chat.Message) error {
	return s.setJSON(KeySessionMessages, histories)
}

// LoadMessages restores the message history map; missing yields empty.
func (s *SnapshotStore) LoadMessages() (map[string][]chat.Message, error) {
	histories := map[string][]chat.Message{}
	if _, err := s.getJSON(KeySessionMessages, &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

// SaveDarkMode stores the dark-mode flag.
func (s *SnapshotStore) SaveDarkMode(enabled bool) error {
	if s == nil || s.kv == nil {
		return errors.New("snapshot store: nil store")
	}
	return s.kv.Set(KeyDarkMode, []byte(strconv.FormatBool(enabled)))
}

// LoadDarkMode returns the stored flag; found is false when never saved.
func (s *SnapshotStore) LoadDarkMode() (enabled bool, found bool, err error) {
	if s == nil || s.kv == nil {
		return false, false, errors.New("snapshot store: nil store")
	}
	raw, ok, err := s.kv.Get(KeyDarkMode)
	if err != nil || !ok {
		return false, false, err
	}
	enabled, err = strconv.ParseBool(string(raw))
	if err != nil {
		return false, false, errors.Wrap(err, "snapshot store: parse dark-mode flag")
	}
	return enabled, true, nil
}

// SaveAPIKey stores the opaque API key string.
func (s *SnapshotStore) SaveAPIKey(key string) error {
	if s == nil || s.kv == nil {
		return errors.New("snapshot store: nil store")
	}
	return s.kv.Set(KeyAPIKey, []byte(key))
}

// LoadAPIKey returns the stored key, empty when never saved.
func (s *SnapshotStore) LoadAPIKey() (string, error) {
	if s == nil || s.kv == nil {
		return "", errors.New("snapshot store: nil store")
	}
	raw, ok, err := s.kv.Get(KeyAPIKey)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

// ClearAPIKey removes the stored key.
func (s *SnapshotStore) ClearAPIKey() error {
	if s == nil || s.kv == nil {
		return errors.New("snapshot store: nil store")
	}
	return s.kv.Delete(KeyAPIKey)
}

func (s *SnapshotStore) setJSON(key string, value any) error {
	if s == nil || s.kv == nil {
		return errors.New("snapshot store: nil store")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "snapshot store: encode %q", key)
	}
	return s.kv.Set(key, data)
}

func (s *SnapshotStore) getJSON(key string, out any) (bool, error) {
	if s == nil || s.kv == nil {
		return false, errors.New("snapshot store: nil store")
	}
	data, ok, err := s.kv.Get(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, errors.Wrapf(err, "snapshot store: decode %q", key)
	}
	return true, nil
}
