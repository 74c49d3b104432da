package main

import (
	"context"
	"crypto/subtle"
)

var _ CredentialStore = (*staticCredentialStore)(nil)

// staticCredentialStore checks credentials against the users
// list loaded from the configuration.
type staticCredentialStore struct {
	users []UserConfig
}

// NewStaticCredentialStore provides a configuration backed CredentialStore.
func NewStaticCredentialStore(users []UserConfig) CredentialStore {
	return &staticCredentialStore{users: users}
}

// Authenticate returns the uid of the user matching both fields.
// All entries are compared so timing does not leak which one matched.
func (s *staticCredentialStore) Authenticate(_ context.Context, username, password string) (string, error) {
	uid := ""
	for _, u := range s.users {
		userOK := subtle.ConstantTimeCompare([]byte(u.Username), []byte(username))
		passOK := subtle.ConstantTimeCompare([]byte(u.Password), []byte(password))
		if userOK&passOK == 1 && uid == "" {
			uid = u.UID
		}
	}
	if uid == "" {
		return "", ErrInvalidCredentials
	}
	return uid, nil
}
