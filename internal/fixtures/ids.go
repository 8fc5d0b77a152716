package fixtures

import "github.com/google/uuid"

// Namespace seeds every deterministic id the application and the harness share.
var Namespace = uuid.MustParse("d5447ca1-950f-459d-8b20-86ddfdd0f922")

// UUID returns the name-based (v5) id for seed.
func UUID(seed string) string {
	return uuid.NewSHA1(Namespace, []byte(seed)).String()
}

func UserID(alias string) string     { return UUID("user.id." + alias) }
func ResourceID(alias string) string { return UUID("resource.id." + alias) }
func GroupID(alias string) string    { return UUID("group.id." + alias) }

// PermissionID identifies the permission an aro holds on a resource. Both
// arguments are ids, not aliases.
func PermissionID(resourceID, aroID string) string {
	return UUID("permission.id." + resourceID + "-" + aroID)
}
