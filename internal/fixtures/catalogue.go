package fixtures

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Catalogue indexes fixtures by alias and keeps their declaration order.
type Catalogue struct {
	users     map[string]User
	resources map[string]Resource
	groups    map[string]Group
	order     struct{ users, resources, groups []string }
}

func newCatalogue() *Catalogue {
	return &Catalogue{
		users:     make(map[string]User),
		resources: make(map[string]Resource),
		groups:    make(map[string]Group),
	}
}

// AddUser inserts or replaces u. Missing derived fields are filled in.
func (c *Catalogue) AddUser(u User) {
	if u.ID == "" {
		u.ID = UserID(u.Alias)
	}
	if u.Username == "" {
		u.Username = u.Alias + "@passbolt.com"
	}
	if u.MasterPassword == "" {
		u.MasterPassword = u.Username
	}
	if u.TokenColor == "" {
		u.TokenColor = DefaultTokenColor
	}
	if u.TokenTextColor == "" {
		u.TokenTextColor = DefaultTokenTextColor
	}
	if u.PrivateKey == "" {
		u.PrivateKey = u.Alias + "_private.key"
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if _, ok := c.users[u.Alias]; !ok {
		c.order.users = append(c.order.users, u.Alias)
	}
	c.users[u.Alias] = u
}

// AddResource inserts or replaces r.
func (c *Catalogue) AddResource(r Resource) {
	if r.ID == "" {
		r.ID = ResourceID(r.Alias)
	}
	if r.Name == "" {
		r.Name = r.Alias
	}
	if _, ok := c.resources[r.Alias]; !ok {
		c.order.resources = append(c.order.resources, r.Alias)
	}
	c.resources[r.Alias] = r
}

// AddGroup inserts or replaces g.
func (c *Catalogue) AddGroup(g Group) {
	if g.Alias == "" {
		g.Alias = strings.ToLower(g.Name)
	}
	if g.ID == "" {
		g.ID = GroupID(g.Alias)
	}
	if _, ok := c.groups[g.Alias]; !ok {
		c.order.groups = append(c.order.groups, g.Alias)
	}
	c.groups[g.Alias] = g
}

// User returns the user fixture for alias.
func (c *Catalogue) User(alias string) (User, error) {
	u, ok := c.users[alias]
	if !ok {
		return User{}, fmt.Errorf("%w: user %q", ErrUnknownFixture, alias)
	}
	return u, nil
}

// MustUser is User for aliases known at compile time.
func (c *Catalogue) MustUser(alias string) User {
	u, err := c.User(alias)
	if err != nil {
		panic(err)
	}
	return u
}

// UserByUsername finds a user by login name.
func (c *Catalogue) UserByUsername(username string) (User, error) {
	for _, alias := range c.order.users {
		if u := c.users[alias]; u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: username %q", ErrUnknownFixture, username)
}

// Users returns every user in declaration order.
func (c *Catalogue) Users() []User {
	out := make([]User, 0, len(c.order.users))
	for _, alias := range c.order.users {
		out = append(out, c.users[alias])
	}
	return out
}

// Resource returns the resource fixture for alias.
func (c *Catalogue) Resource(alias string) (Resource, error) {
	r, ok := c.resources[alias]
	if !ok {
		return Resource{}, fmt.Errorf("%w: resource %q", ErrUnknownFixture, alias)
	}
	return r, nil
}

// ResourceFor returns the first resource on which user holds exactly perm.
func (c *Catalogue) ResourceFor(user string, perm PermissionType) (Resource, error) {
	for _, alias := range c.order.resources {
		r := c.resources[alias]
		if t, ok := r.PermissionFor(user); ok && t == perm {
			return r, nil
		}
	}
	return Resource{}, fmt.Errorf("%w: no resource where %s %s", ErrUnknownFixture, user, perm.Label())
}

// Resources returns every resource in declaration order.
func (c *Catalogue) Resources() []Resource {
	out := make([]Resource, 0, len(c.order.resources))
	for _, alias := range c.order.resources {
		out = append(out, c.resources[alias])
	}
	return out
}

// Group returns the group fixture for alias.
func (c *Catalogue) Group(alias string) (Group, error) {
	g, ok := c.groups[strings.ToLower(alias)]
	if !ok {
		return Group{}, fmt.Errorf("%w: group %q", ErrUnknownFixture, alias)
	}
	return g, nil
}

// Groups returns every group in declaration order.
func (c *Catalogue) Groups() []Group {
	out := make([]Group, 0, len(c.order.groups))
	for _, alias := range c.order.groups {
		out = append(out, c.groups[alias])
	}
	return out
}

// overrideFile is the on-disk shape of a fixture override.
type overrideFile struct {
	Users     []User     `yaml:"users"`
	Resources []Resource `yaml:"resources"`
	Groups    []Group    `yaml:"groups"`
}

// Load returns the built-in catalogue with the entries of the YAML file at path
// added or replaced by alias. An empty path yields the built-in catalogue.
func Load(fsys afero.Fs, path string) (*Catalogue, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	var f overrideFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures %s: %w", path, err)
	}
	for _, u := range f.Users {
		if u.Alias == "" {
			return nil, fmt.Errorf("parsing fixtures %s: user without alias", path)
		}
		c.AddUser(u)
	}
	for _, r := range f.Resources {
		if r.Alias == "" {
			return nil, fmt.Errorf("parsing fixtures %s: resource without alias", path)
		}
		c.AddResource(r)
	}
	for _, g := range f.Groups {
		if g.Alias == "" && g.Name == "" {
			return nil, fmt.Errorf("parsing fixtures %s: group without alias", path)
		}
		c.AddGroup(g)
	}
	return c, nil
}

// Default returns a fresh copy of the built-in catalogue.
func Default() *Catalogue {
	c := newCatalogue()
	for _, u := range builtinUsers {
		c.AddUser(u)
	}
	for _, r := range builtinResources {
		c.AddResource(r)
	}
	for _, g := range builtinGroups {
		c.AddGroup(g)
	}
	return c
}

var builtinUsers = []User{
	{Alias: "ada", FirstName: "Ada", LastName: "Lovelace", TokenCode: "ADA", PublicKey: "ada_public.key"},
	{Alias: "betty", FirstName: "Betty", LastName: "Holberton", TokenCode: "BET"},
	{Alias: "carol", FirstName: "Carol", LastName: "Shaw", TokenCode: "CAR"},
	{Alias: "frances", FirstName: "Frances", LastName: "Allen", TokenCode: "FRA"},
	{Alias: "edith", FirstName: "Edith", LastName: "Clarke", TokenCode: "EDI"},
	{Alias: "grace", FirstName: "Grace", LastName: "Hopper", TokenCode: "GRA"},
	{Alias: "irene", FirstName: "Irene", LastName: "Greif", TokenCode: "IRN"},
	{Alias: "jean", FirstName: "Jean", LastName: "Bartik", TokenCode: "JEA"},
	{Alias: "orna", FirstName: "Orna", LastName: "Berry", TokenCode: "ORA"},
	{Alias: "ping", FirstName: "Ping", LastName: "Fu", TokenCode: "PNG"},
	{Alias: "ruth", FirstName: "Ruth", LastName: "Teitelbaum", TokenCode: "RUT"},
	{Alias: "thelma", FirstName: "Thelma", LastName: "Estrin", TokenCode: "THL"},
	{Alias: "ursula", FirstName: "Ursula", LastName: "Martin", TokenCode: "USL"},
	{Alias: "wang", FirstName: "Wang", LastName: "Xiaoyun", TokenCode: "WNG"},
	{Alias: "kathleen", FirstName: "Kathleen", LastName: "Antonelli", TokenCode: "KAT", PublicKey: "kathleen_public.key"},
	{Alias: "admin", FirstName: "Admin", LastName: "User", TokenCode: "ADM", Role: RoleAdmin},

	// Not in the dataset; created by the setup scenarios.
	{Alias: "john", ID: UUID("johndoe@passbolt.com"), FirstName: "John", LastName: "Doe",
		Username: "johndoe@passbolt.com", TokenCode: "JON", PrivateKey: "johndoe_private.key", PasswordStrength: "strong"},
	{Alias: "curtis", ID: UUID("curtismayfield@passbolt.com"), FirstName: "Curtis", LastName: "Mayfield",
		Username: "curtis@passbolt.com", MasterPassword: "curtismayfield@passbolt.com", TokenCode: "CUR",
		PrivateKey: "johndoe_private.key", PasswordStrength: "very strong"},
	{Alias: "chien-shiung", ID: UUID("chien-shiung@passbolt.com"), FirstName: "Chien-Shiung", LastName: "Wu",
		TokenCode: "CHN", PasswordStrength: "very strong"},
	{Alias: "margaret", ID: UUID("margaret@passbolt.com"), FirstName: "Margaret", LastName: "Hamilton",
		TokenCode: "MHH", PasswordStrength: "very strong"},
}

var builtinResources = []Resource{
	{
		Alias: "apache", Username: "www-data", URI: "http://www.apache.org/",
		Secret: "_upjvh-p@wAHP18D}OmY05M", Description: "Apache is the world's most used web server software.",
		Permissions: []Permission{{"ada", Owner}, {"betty", Update}, {"carol", Read}, {"edith", Read}},
	},
	{
		Alias: "bower", Username: "bower", URI: "bower.io",
		Secret: "CL]m]x(o{sA#QW", Description: "A package manager for the web!",
		Permissions: []Permission{{"ada", Owner}, {"betty", Read}},
	},
	{
		Alias: "centos", Username: "root", URI: "centos.org",
		Secret: "this-is-not-the-root-password", Description: "The CentOS Linux distribution.",
		Permissions: []Permission{{"ada", Owner}},
	},
	{
		Alias: "gnupg", Username: "gpg", URI: "gnupg.org",
		Secret: "iabrKgJ0&2Q!w", Description: "GnuPG is a complete and free implementation of the OpenPGP standard.",
		Permissions: []Permission{{"carol", Owner}, {"ada", Owner}},
	},
	{
		Alias: "cakephp", Username: "cake", URI: "cakephp.org",
		Secret: "M0rHGe2HZz", Description: "The rapid and tasty php development framework.",
		Permissions: []Permission{{"betty", Owner}, {"ada", Read}},
	},
	{
		Alias: "docker", Username: "docker", URI: "https://www.docker.com/",
		Secret: "DZ3MgW5%mj", Description: "An open platform for distributed applications.",
		Permissions: []Permission{{"frances", Owner}, {"ada", Update}},
	},
}

var builtinGroups = []Group{
	{Name: "Accounting", Members: []Member{{User: "frances", Admin: true}, {User: "grace"}}},
	{Name: "Creative", Members: []Member{{User: "irene", Admin: true}}},
	{Name: "Developer", Members: []Member{{User: "ping", Admin: true}, {User: "thelma"}, {User: "ursula"}}},
	{Name: "Freelancer", Members: []Member{{User: "jean", Admin: true}, {User: "kathleen"}}},
	{Name: "Ergonom", Members: nil},
	{Name: "Management", Members: []Member{{User: "admin", Admin: true}, {User: "ada"}}},
}
