package access

import (
	"context"
	"sort"
)

// Profile is a named set of permissions.
type Profile interface {
	Name() string
	Allows(p Permission) bool
	Permissions() []Permission
}

// Resolver finds the profile of a user. A nil profile with a nil error
// means the user has none.
type Resolver[U comparable] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// StaticProfile keeps its permissions in memory.
type StaticProfile struct {
	name  string
	perms map[Permission]struct{}
}

func NewStaticProfile(name string, perms ...Permission) *StaticProfile {
	p := &StaticProfile{name: name, perms: make(map[Permission]struct{}, len(perms))}
	for _, perm := range perms {
		p.perms[perm] = struct{}{}
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }

func (p *StaticProfile) Allows(requested Permission) bool {
	for perm := range p.perms {
		if perm.Grants(requested) {
			return true
		}
	}
	return false
}

// Permissions returns the grants in lexical order.
func (p *StaticProfile) Permissions() []Permission {
	out := make([]Permission, 0, len(p.perms))
	for perm := range p.perms {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StaticResolver maps users to profiles in memory.
type StaticResolver[U comparable] struct {
	profiles map[U]Profile
}

func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

func (r *StaticResolver[U]) Set(user U, p Profile) { r.profiles[user] = p }

func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	return r.profiles[user], nil
}
