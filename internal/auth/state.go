package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// sessionFile is the name of the session state file inside the state dir.
const sessionFile = "session.json"

// state is the on-disk session: the CLI analog of the browser's local
// session storage. It is re-read on every credential resolution rather
// than held in memory, so sign-out in one terminal is seen by all.
type state struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

// stateStore reads and writes the session file.
type stateStore struct {
	dir string
}

func newStateStore(dir string) *stateStore {
	return &stateStore{dir: dir}
}

func (s *stateStore) path() string {
	return filepath.Join(s.dir, sessionFile)
}

// load reads the session file. Returns ErrUnauthenticated when the file
// does not exist or fails integrity checks; a corrupt file is treated the
// same as no session at all.
func (s *stateStore) load() (*state, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: corrupt session file", ErrUnauthenticated)
	}
	if st.AccessToken == "" || st.UserID == "" {
		return nil, fmt.Errorf("%w: incomplete session file", ErrUnauthenticated)
	}
	if _, err := uuid.Parse(st.UserID); err != nil {
		return nil, fmt.Errorf("%w: invalid user id in session file", ErrUnauthenticated)
	}

	return &st, nil
}

// save writes the session file with owner-only permissions.
func (s *stateStore) save(st *state) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// clear removes the session file. Missing file is not an error.
func (s *stateStore) clear() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
