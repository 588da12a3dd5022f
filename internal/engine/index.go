package engine

import (
	rbacv1 "k8s.io/api/rbac/v1"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/common"
)

type subjectKey struct {
	kind      string
	namespace string
	name      string
}

type setKey struct {
	scope     authzv1alpha1.Scope
	namespace string
	name      string
}

// boundRules is the index's denormalized view of one binding with the
// referenced permission set's rules resolved up front.
type boundRules struct {
	name      string
	namespace string // empty for cluster bindings
	scope     authzv1alpha1.Scope

	// rules is nil when the referent was deleted after the binding was
	// accepted. Such a binding contributes nothing to any decision.
	rules []authzv1alpha1.Rule
}

// Snapshot is one immutable build of the binding index. A query reads a
// single snapshot end to end; rebuilds swap in a fresh one and never touch a
// snapshot already handed out.
type Snapshot struct {
	cluster    map[subjectKey][]*boundRules
	namespaced map[string]map[subjectKey][]*boundRules
}

func EmptySnapshot() *Snapshot {
	return &Snapshot{
		cluster:    map[subjectKey][]*boundRules{},
		namespaced: map[string]map[subjectKey][]*boundRules{},
	}
}

// BuildSnapshot indexes the given bindings by (scope, namespace, subject).
// Bindings with unresolvable references are indexed without rules; dangling
// references are a write-time concern, never a decision-time failure.
func BuildSnapshot(permissionSets []common.PermissionSetObject, bindings []common.BindingObject) *Snapshot {
	rulesByRef := make(map[setKey][]authzv1alpha1.Rule, len(permissionSets))
	for _, ps := range permissionSets {
		key := setKey{scope: ps.GetScope(), name: ps.GetName()}
		if ps.GetScope() == authzv1alpha1.ScopeNamespaced {
			key.namespace = ps.GetNamespace()
		}
		rulesByRef[key] = ps.GetRules()
	}

	snap := EmptySnapshot()
	for _, b := range bindings {
		bound := &boundRules{
			name:  b.GetName(),
			scope: b.GetScope(),
			rules: rulesByRef[refKey(b)],
		}
		if bound.scope == authzv1alpha1.ScopeNamespaced {
			bound.namespace = b.GetNamespace()
		}

		for _, subject := range b.GetSubjects() {
			key, ok := keyForSubject(subject, bound.namespace)
			if !ok {
				continue
			}
			if bound.scope == authzv1alpha1.ScopeCluster {
				snap.cluster[key] = append(snap.cluster[key], bound)
				continue
			}
			bysubject := snap.namespaced[bound.namespace]
			if bysubject == nil {
				bysubject = map[subjectKey][]*boundRules{}
				snap.namespaced[bound.namespace] = bysubject
			}
			bysubject[key] = append(bysubject[key], bound)
		}
	}
	return snap
}

func refKey(b common.BindingObject) setKey {
	ref := b.GetPermissionSetRef()
	if ref.Kind == authzv1alpha1.RefKindClusterPermissionSet {
		return setKey{scope: authzv1alpha1.ScopeCluster, name: ref.Name}
	}
	namespace := ref.Namespace
	if namespace == "" {
		namespace = b.GetNamespace()
	}
	return setKey{scope: authzv1alpha1.ScopeNamespaced, namespace: namespace, name: ref.Name}
}

func keyForSubject(subject rbacv1.Subject, bindingNamespace string) (subjectKey, bool) {
	switch subject.Kind {
	case rbacv1.ServiceAccountKind:
		namespace := subject.Namespace
		if namespace == "" {
			namespace = bindingNamespace
		}
		if namespace == "" {
			return subjectKey{}, false
		}
		return subjectKey{kind: rbacv1.ServiceAccountKind, namespace: namespace, name: subject.Name}, true
	case rbacv1.UserKind, rbacv1.GroupKind:
		return subjectKey{kind: subject.Kind, name: subject.Name}, true
	default:
		return subjectKey{}, false
	}
}

// lookup returns the bindings applicable to the identity within the given
// namespace: every cluster binding naming it or one of its groups plus, when
// namespace is set, every binding in that namespace doing so. An empty result
// is the default-deny state, not a fault.
func (s *Snapshot) lookup(id Identity, namespace string) []*boundRules {
	keys := id.subjectKeys()

	var out []*boundRules
	seen := map[*boundRules]struct{}{}
	collect := func(found []*boundRules) {
		for _, b := range found {
			if _, dup := seen[b]; dup {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, b)
		}
	}

	for _, key := range keys {
		collect(s.cluster[key])
	}
	if namespace != "" {
		if bySubject := s.namespaced[namespace]; bySubject != nil {
			for _, key := range keys {
				collect(bySubject[key])
			}
		}
	}
	return out
}

// applicable returns every binding naming the identity, cluster-wide and
// across all indexed namespaces. Used for permission enumeration.
func (s *Snapshot) applicable(id Identity) []*boundRules {
	keys := id.subjectKeys()

	var out []*boundRules
	seen := map[*boundRules]struct{}{}
	collect := func(found []*boundRules) {
		for _, b := range found {
			if _, dup := seen[b]; dup {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, b)
		}
	}

	for _, key := range keys {
		collect(s.cluster[key])
	}
	for _, bySubject := range s.namespaced {
		for _, key := range keys {
			collect(bySubject[key])
		}
	}
	return out
}
