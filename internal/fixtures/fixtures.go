// Package fixtures holds the users, resources and groups the test dataset is
// seeded with. Fixtures are immutable values looked up by alias.
package fixtures

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFixture is returned for an alias the catalogue does not hold.
var ErrUnknownFixture = errors.New("unknown fixture")

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultTokenColor     = "#ff3a3a"
	DefaultTokenTextColor = "#ffffff"
)

// User is a person account from the dataset.
type User struct {
	Alias          string `yaml:"alias"`
	ID             string `yaml:"id"`
	FirstName      string `yaml:"first_name"`
	LastName       string `yaml:"last_name"`
	Username       string `yaml:"username"`
	MasterPassword string `yaml:"master_password"`
	TokenCode      string `yaml:"token_code"`
	TokenColor     string `yaml:"token_color"`
	TokenTextColor string `yaml:"token_text_color"`
	PrivateKey     string `yaml:"private_key"`
	PublicKey      string `yaml:"public_key,omitempty"`
	Role           string `yaml:"role"`
	// PasswordStrength is set on users that do not exist yet and get created by
	// the setup scenarios.
	PasswordStrength string `yaml:"password_strength,omitempty"`
}

// FullName is how the application lists the user.
func (u User) FullName() string { return u.FirstName + " " + u.LastName }

// PrivateKeyPath joins the key file name onto keysDir.
func (u User) PrivateKeyPath(keysDir string) string { return filepath.Join(keysDir, u.PrivateKey) }

// ReadPrivateKey returns the armored private key of u.
func (u User) ReadPrivateKey(fsys afero.Fs, keysDir string) (string, error) {
	b, err := afero.ReadFile(fsys, u.PrivateKeyPath(keysDir))
	if err != nil {
		return "", fmt.Errorf("reading key of %s: %w", u.Alias, err)
	}
	return string(b), nil
}

// PermissionType is a resource access level, numbered as the application does.
type PermissionType int

const (
	Read   PermissionType = 1
	Update PermissionType = 7
	Owner  PermissionType = 15
)

// Label is the text the share dialog shows for t.
func (t PermissionType) Label() string {
	switch t {
	case Read:
		return "can read"
	case Update:
		return "can update"
	case Owner:
		return "is owner"
	}
	return fmt.Sprintf("permission(%d)", int(t))
}

func (t PermissionType) String() string {
	switch t {
	case Read:
		return "read"
	case Update:
		return "update"
	case Owner:
		return "owner"
	}
	return t.Label()
}

// ParsePermissionType accepts a name ("owner") or a label ("is owner").
func ParsePermissionType(s string) (PermissionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read", "can read":
		return Read, nil
	case "update", "can update":
		return Update, nil
	case "owner", "is owner":
		return Owner, nil
	}
	return 0, fmt.Errorf("unknown permission type %q", s)
}

func (t *PermissionType) UnmarshalYAML(value *yaml.Node) error {
	p, err := ParsePermissionType(value.Value)
	if err != nil {
		return err
	}
	*t = p
	return nil
}

func (t PermissionType) MarshalYAML() (any, error) { return t.String(), nil }

// Permission grants an aro (a user or group alias) access to a resource.
type Permission struct {
	Aro  string         `yaml:"aro"`
	Type PermissionType `yaml:"type"`
}

// Resource is a stored password entry.
type Resource struct {
	Alias       string       `yaml:"alias"`
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Username    string       `yaml:"username"`
	URI         string       `yaml:"uri"`
	Secret      string       `yaml:"secret"`
	Description string       `yaml:"description"`
	Permissions []Permission `yaml:"permissions"`
}

// PermissionFor reports the access level aro holds on r.
func (r Resource) PermissionFor(aro string) (PermissionType, bool) {
	for _, p := range r.Permissions {
		if p.Aro == aro {
			return p.Type, true
		}
	}
	return 0, false
}

// Member is one user in a group.
type Member struct {
	User  string `yaml:"user"`
	Admin bool   `yaml:"admin"`
}

// Group is a named set of users.
type Group struct {
	Alias   string   `yaml:"alias"`
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Members []Member `yaml:"members"`
}

// MemberFor returns the membership of user in g.
func (g Group) MemberFor(user string) (Member, bool) {
	for _, m := range g.Members {
		if m.User == user {
			return m, true
		}
	}
	return Member{}, false
}
