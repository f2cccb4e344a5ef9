// Package users is the account lookup the tracker authenticates against.
// Accounts are read from a name,role,password file; there is no account
// management here.
package users

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/signalsfoundry/rso-tracker/core"
	"github.com/signalsfoundry/rso-tracker/model"
)

var (
	// ErrLoginFailed indicates an unknown name or a wrong password.
	ErrLoginFailed = errors.New("invalid user name or password")
	// ErrForbidden indicates the user's role may not run an action.
	ErrForbidden = errors.New("action not permitted for role")
	// ErrUnknownRole indicates a users file row with an unrecognised role.
	ErrUnknownRole = errors.New("unknown role")
)

// Directory holds the known accounts keyed by name.
type Directory struct {
	users map[string]model.User
}

// NewDirectory builds a directory from users; later duplicates replace
// earlier ones.
func NewDirectory(users ...model.User) *Directory {
	d := &Directory{users: make(map[string]model.User, len(users))}
	for _, u := range users {
		d.users[u.Name] = u
	}
	return d
}

// LoadFile reads a users file. Its header row is skipped; rows with fewer
// than three fields are ignored. Names, roles and passwords are trimmed.
func LoadFile(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load users %s: %w", path, err)
	}

	var list []model.User
	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		parts := core.ParseRow(line)
		if len(parts) < 3 {
			continue
		}
		role, err := model.ParseRole(parts[1])
		if err != nil {
			return nil, fmt.Errorf("load users %s line %d: %w: %v", path, i+1, ErrUnknownRole, err)
		}
		list = append(list, model.User{
			Name:     strings.TrimSpace(parts[0]),
			Role:     role,
			Password: strings.TrimSpace(parts[2]),
		})
	}
	return NewDirectory(list...), nil
}

// ValidateLogin reports whether name exists and password matches.
func (d *Directory) ValidateLogin(name, password string) bool {
	u, ok := d.users[name]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
}

// Authenticate returns the user for valid credentials, or ErrLoginFailed.
func (d *Directory) Authenticate(name, password string) (model.User, error) {
	if !d.ValidateLogin(name, password) {
		return model.User{}, ErrLoginFailed
	}
	return d.users[name], nil
}

// Len returns the number of accounts.
func (d *Directory) Len() int { return len(d.users) }

// Authorize fails with ErrForbidden unless u holds one of roles.
// Administrators are always permitted; an empty roles list permits anyone.
func Authorize(u model.User, roles ...model.Role) error {
	if u.Role == model.RoleAdministrator || len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrForbidden, model.Describe(u))
}
