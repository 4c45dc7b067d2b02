package accountstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"tiktok-autoposter/domain/model"
	"tiktok-autoposter/domain/repository"
	"tiktok-autoposter/infrastructure/logger"
)

var (
	// ErrNoAccountsAvailable is returned when the accounts directory holds no
	// usable account files.
	ErrNoAccountsAvailable = errors.New("no accounts available")
	// ErrAccountNotFound is returned when the named account file is missing.
	ErrAccountNotFound = errors.New("account file not found")
)

// Store keeps one JSON file per account under a single directory. Records are
// rewritten whole on save; concurrent writers race with last-write-wins.
type Store struct {
	dir string
}

func NewStore(dir string) repository.IAccountStore {
	return &Store{dir: dir}
}

// List returns account names: every *.json file except *.example.json
// templates, with the extension stripped.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".example.json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	return names, nil
}

// SelectRandom draws one account uniformly at random. Each call is an
// independent draw; there is no round-robin state.
func (s *Store) SelectRandom() (string, error) {
	names, err := s.List()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ErrNoAccountsAvailable
	}
	return names[rand.Intn(len(names))], nil
}

func (s *Store) Get(name string) (*model.Account, error) {
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, path)
		}
		return nil, fmt.Errorf("failed to read account file %s: %w", path, err)
	}
	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to decode account file %s: %w", path, err)
	}
	return &account, nil
}

func (s *Store) Save(name string, account *model.Account) error {
	path := s.path(name)
	data, err := json.MarshalIndent(account, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode account %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write account file %s: %w", path, err)
	}
	return nil
}

// UpdateRefreshToken rewrites the account record with only the refresh token
// changed.
func (s *Store) UpdateRefreshToken(name, refreshToken string) error {
	account, err := s.Get(name)
	if err != nil {
		return err
	}
	account.RefreshToken = refreshToken
	if err := s.Save(name, account); err != nil {
		return err
	}
	logger.GetLogger().WithField("account", name).Info("Refresh token updated in account file")
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
