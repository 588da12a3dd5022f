package engine

import (
	"fmt"
	"strings"

	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apiserver/pkg/authentication/user"
)

// IdentityKind mirrors the rbac subject kinds.
type IdentityKind string

const (
	KindServiceAccount IdentityKind = rbacv1.ServiceAccountKind
	KindUser           IdentityKind = rbacv1.UserKind
	KindGroup          IdentityKind = rbacv1.GroupKind
)

const serviceAccountPrefix = "system:serviceaccount:"

// Identity is an already-authenticated principal presented to the engine.
// Group membership is supplied by the caller; the engine never resolves it.
type Identity struct {
	Kind IdentityKind `json:"kind"`

	// Name is "namespace:name" for service accounts, the plain principal
	// name otherwise.
	Name string `json:"name"`

	Groups []string `json:"groups,omitempty"`
}

// ServiceAccountIdentity builds the identity for a service account principal.
func ServiceAccountIdentity(namespace, name string, groups ...string) Identity {
	return Identity{
		Kind:   KindServiceAccount,
		Name:   fmt.Sprintf("%s:%s", namespace, name),
		Groups: groups,
	}
}

// IdentityFromUser maps an authenticated user.Info onto an Identity,
// recognising the apiserver's service-account username convention.
func IdentityFromUser(u user.Info) Identity {
	return IdentityFromUsername(u.GetName(), u.GetGroups())
}

// IdentityFromUsername is IdentityFromUser for callers that only carry the
// raw username and group list (for example a SubjectAccessReview spec).
func IdentityFromUsername(username string, groups []string) Identity {
	if rest, ok := strings.CutPrefix(username, serviceAccountPrefix); ok {
		if ns, name, ok := strings.Cut(rest, ":"); ok {
			return ServiceAccountIdentity(ns, name, groups...)
		}
	}
	return Identity{Kind: KindUser, Name: username, Groups: groups}
}

// subjectKeys returns every index key this identity resolves under: its
// direct principal key plus one key per claimed group.
func (id Identity) subjectKeys() []subjectKey {
	keys := make([]subjectKey, 0, len(id.Groups)+1)

	switch id.Kind {
	case KindServiceAccount:
		ns, name, _ := strings.Cut(id.Name, ":")
		keys = append(keys, subjectKey{kind: rbacv1.ServiceAccountKind, namespace: ns, name: name})
	case KindGroup:
		keys = append(keys, subjectKey{kind: rbacv1.GroupKind, name: id.Name})
	default:
		keys = append(keys, subjectKey{kind: rbacv1.UserKind, name: id.Name})
	}

	for _, group := range id.Groups {
		keys = append(keys, subjectKey{kind: rbacv1.GroupKind, name: group})
	}

	return keys
}
