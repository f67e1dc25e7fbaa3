package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ---- saved session ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// tokenStore keeps the signed session of the last login in dir.
type tokenStore struct {
	dir string
	now func() time.Time
}

func defaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "ecocycle")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ecocycle")
}

func (s *tokenStore) path() string { return filepath.Join(s.dir, "session.json") }

func (s *tokenStore) save(tok string, exp time.Time) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

// errNoSession means there is nothing to restore.
var errNoSession = errors.New("no saved session")

func (s *tokenStore) load() (string, error) {
	b, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", errNoSession
	}
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || s.now().After(tf.ExpiresAt) {
		return "", errNoSession
	}
	return tf.AccessToken, nil
}

func (s *tokenStore) clear() error {
	err := os.Remove(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
