// Package identity checks logins against a small configured user directory.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"arena-quiz-service/internal/domain"
)

// User is one directory entry. PasswordHash is a bcrypt hash; an empty hash
// means the account cannot log in.
type User struct {
	Username     string
	DisplayName  string
	PasswordHash string
}

// Directory authenticates usernames against bcrypt password hashes.
type Directory struct {
	users map[string]User
}

// NewDirectory indexes the entries by lowercased username. Later duplicates
// win, matching how the config file is read top to bottom.
func NewDirectory(users []User) *Directory {
	index := make(map[string]User, len(users))
	for _, u := range users {
		index[strings.ToLower(u.Username)] = u
	}
	return &Directory{users: index}
}

// Authenticate resolves the username and checks the password. Unknown users
// and wrong passwords return the same error so the login form cannot be
// used to probe for accounts.
func (d *Directory) Authenticate(username, password string) (domain.Identity, error) {
	user, ok := d.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok || user.PasswordHash == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, fmt.Errorf("check password for %s: %w", username, err)
	}
	return domain.Identity{UserKey: user.Username, DisplayName: user.DisplayName}, nil
}

// HashPassword produces a bcrypt hash for seeding directory entries.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
