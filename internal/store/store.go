package store

import (
	"fmt"
	"sort"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/common"
	"antware.xyz/authgate/internal/engine"
	"antware.xyz/authgate/internal/metrics"
)

// Op is the kind of administrative change.
type Op string

const (
	OpCreate  Op = "Create"
	OpReplace Op = "Replace"
	OpDelete  Op = "Delete"
)

// Change is one administrative mutation of a PermissionSet or binding.
type Change struct {
	Op     Op
	Object client.Object
}

// Store owns the PermissionSet/binding state and the engine's index. Writes
// are serialized behind a single lock; validation runs fully before any
// mutation becomes visible, and a rejected change leaves prior state
// untouched. The engine keeps serving the previous snapshot while a rebuild
// is in progress.
type Store struct {
	mu sync.Mutex

	namespacedSets     map[types.NamespacedName]*authzv1alpha1.PermissionSet
	clusterSets        map[string]*authzv1alpha1.ClusterPermissionSet
	namespacedBindings map[types.NamespacedName]*authzv1alpha1.PermissionBinding
	clusterBindings    map[string]*authzv1alpha1.ClusterPermissionBinding

	engine *engine.Engine
}

func New(eng *engine.Engine) *Store {
	return &Store{
		namespacedSets:     map[types.NamespacedName]*authzv1alpha1.PermissionSet{},
		clusterSets:        map[string]*authzv1alpha1.ClusterPermissionSet{},
		namespacedBindings: map[types.NamespacedName]*authzv1alpha1.PermissionBinding{},
		clusterBindings:    map[string]*authzv1alpha1.ClusterPermissionBinding{},
		engine:             eng,
	}
}

// Apply validates and applies one change, then rebuilds the engine's index
// snapshot. All-or-nothing: a validation failure mutates nothing.
func (s *Store) Apply(change Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch obj := change.Object.(type) {
	case *authzv1alpha1.PermissionSet:
		err = s.applyNamespacedSet(change.Op, obj)
	case *authzv1alpha1.ClusterPermissionSet:
		err = s.applyClusterSet(change.Op, obj)
	case *authzv1alpha1.PermissionBinding:
		err = s.applyNamespacedBinding(change.Op, obj)
	case *authzv1alpha1.ClusterPermissionBinding:
		err = s.applyClusterBinding(change.Op, obj)
	default:
		err = fmt.Errorf("unsupported object type %T", change.Object)
	}
	if err != nil {
		metrics.ChangesRejected.WithLabelValues(fmt.Sprintf("%T", change.Object)).Inc()
		return err
	}

	s.rebuildLocked()
	return nil
}

// Load replaces the whole state wholesale and rebuilds once. Used by the
// reconcilers, which mirror objects a validating webhook already admitted;
// references that went dangling in the meantime are tolerated here and
// simply contribute no rules.
func (s *Store) Load(sets []common.PermissionSetObject, bindings []common.BindingObject) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.namespacedSets = map[types.NamespacedName]*authzv1alpha1.PermissionSet{}
	s.clusterSets = map[string]*authzv1alpha1.ClusterPermissionSet{}
	s.namespacedBindings = map[types.NamespacedName]*authzv1alpha1.PermissionBinding{}
	s.clusterBindings = map[string]*authzv1alpha1.ClusterPermissionBinding{}

	for _, ps := range sets {
		switch obj := ps.(type) {
		case *authzv1alpha1.PermissionSet:
			s.namespacedSets[keyOf(obj)] = obj.DeepCopy()
		case *authzv1alpha1.ClusterPermissionSet:
			s.clusterSets[obj.Name] = obj.DeepCopy()
		}
	}
	for _, b := range bindings {
		switch obj := b.(type) {
		case *authzv1alpha1.PermissionBinding:
			s.namespacedBindings[keyOf(obj)] = obj.DeepCopy()
		case *authzv1alpha1.ClusterPermissionBinding:
			s.clusterBindings[obj.Name] = obj.DeepCopy()
		}
	}

	s.rebuildLocked()
}

func (s *Store) applyNamespacedSet(op Op, obj *authzv1alpha1.PermissionSet) error {
	key := keyOf(obj)
	switch op {
	case OpCreate:
		if _, exists := s.namespacedSets[key]; exists {
			return integrityErrorf(DuplicateName, "PermissionSet %q already exists in namespace %q", obj.Name, obj.Namespace)
		}
	case OpReplace:
		if _, exists := s.namespacedSets[key]; !exists {
			return notFound("permissionsets", obj.Name)
		}
	case OpDelete:
		if _, exists := s.namespacedSets[key]; !exists {
			return notFound("permissionsets", obj.Name)
		}
		delete(s.namespacedSets, key)
		return nil
	}
	s.namespacedSets[key] = obj.DeepCopy()
	return nil
}

func (s *Store) applyClusterSet(op Op, obj *authzv1alpha1.ClusterPermissionSet) error {
	switch op {
	case OpCreate:
		if _, exists := s.clusterSets[obj.Name]; exists {
			return integrityErrorf(DuplicateName, "ClusterPermissionSet %q already exists", obj.Name)
		}
	case OpReplace:
		if _, exists := s.clusterSets[obj.Name]; !exists {
			return notFound("clusterpermissionsets", obj.Name)
		}
	case OpDelete:
		if _, exists := s.clusterSets[obj.Name]; !exists {
			return notFound("clusterpermissionsets", obj.Name)
		}
		delete(s.clusterSets, obj.Name)
		return nil
	}
	s.clusterSets[obj.Name] = obj.DeepCopy()
	return nil
}

func (s *Store) applyNamespacedBinding(op Op, obj *authzv1alpha1.PermissionBinding) error {
	key := keyOf(obj)
	switch op {
	case OpCreate:
		if _, exists := s.namespacedBindings[key]; exists {
			return integrityErrorf(DuplicateName, "PermissionBinding %q already exists in namespace %q", obj.Name, obj.Namespace)
		}
	case OpReplace:
		if _, exists := s.namespacedBindings[key]; !exists {
			return notFound("permissionbindings", obj.Name)
		}
	case OpDelete:
		if _, exists := s.namespacedBindings[key]; !exists {
			return notFound("permissionbindings", obj.Name)
		}
		delete(s.namespacedBindings, key)
		return nil
	}

	if err := s.checkNamespacedRef(obj); err != nil {
		return err
	}
	s.namespacedBindings[key] = obj.DeepCopy()
	return nil
}

func (s *Store) applyClusterBinding(op Op, obj *authzv1alpha1.ClusterPermissionBinding) error {
	switch op {
	case OpCreate:
		if _, exists := s.clusterBindings[obj.Name]; exists {
			return integrityErrorf(DuplicateName, "ClusterPermissionBinding %q already exists", obj.Name)
		}
	case OpReplace:
		if _, exists := s.clusterBindings[obj.Name]; !exists {
			return notFound("clusterpermissionbindings", obj.Name)
		}
	case OpDelete:
		if _, exists := s.clusterBindings[obj.Name]; !exists {
			return notFound("clusterpermissionbindings", obj.Name)
		}
		delete(s.clusterBindings, obj.Name)
		return nil
	}

	if err := s.checkClusterRef(obj); err != nil {
		return err
	}
	s.clusterBindings[obj.Name] = obj.DeepCopy()
	return nil
}

// checkNamespacedRef enforces the reference invariants of a namespaced
// binding: a same-namespace PermissionSet or any ClusterPermissionSet.
func (s *Store) checkNamespacedRef(obj *authzv1alpha1.PermissionBinding) error {
	ref := obj.Spec.PermissionSetRef
	switch ref.Kind {
	case authzv1alpha1.RefKindPermissionSet:
		if ref.Namespace != "" && ref.Namespace != obj.Namespace {
			return integrityErrorf(ScopeMismatch,
				"PermissionBinding %s/%s references PermissionSet %q in namespace %q",
				obj.Namespace, obj.Name, ref.Name, ref.Namespace)
		}
		if _, exists := s.namespacedSets[types.NamespacedName{Namespace: obj.Namespace, Name: ref.Name}]; !exists {
			return integrityErrorf(DanglingReference,
				"PermissionBinding %s/%s references nonexistent PermissionSet %q",
				obj.Namespace, obj.Name, ref.Name)
		}
	case authzv1alpha1.RefKindClusterPermissionSet:
		if _, exists := s.clusterSets[ref.Name]; !exists {
			return integrityErrorf(DanglingReference,
				"PermissionBinding %s/%s references nonexistent ClusterPermissionSet %q",
				obj.Namespace, obj.Name, ref.Name)
		}
	default:
		return integrityErrorf(ScopeMismatch,
			"PermissionBinding %s/%s references unknown kind %q",
			obj.Namespace, obj.Name, ref.Kind)
	}
	return nil
}

// checkClusterRef enforces that a cluster binding references only a
// ClusterPermissionSet.
func (s *Store) checkClusterRef(obj *authzv1alpha1.ClusterPermissionBinding) error {
	ref := obj.Spec.PermissionSetRef
	if ref.Kind != authzv1alpha1.RefKindClusterPermissionSet {
		return integrityErrorf(ScopeMismatch,
			"ClusterPermissionBinding %q may only reference a ClusterPermissionSet, got %q",
			obj.Name, ref.Kind)
	}
	if _, exists := s.clusterSets[ref.Name]; !exists {
		return integrityErrorf(DanglingReference,
			"ClusterPermissionBinding %q references nonexistent ClusterPermissionSet %q",
			obj.Name, ref.Name)
	}
	return nil
}

func (s *Store) rebuildLocked() {
	sets := make([]common.PermissionSetObject, 0, len(s.namespacedSets)+len(s.clusterSets))
	for _, ps := range s.namespacedSets {
		sets = append(sets, ps)
	}
	for _, ps := range s.clusterSets {
		sets = append(sets, ps)
	}

	bindings := make([]common.BindingObject, 0, len(s.namespacedBindings)+len(s.clusterBindings))
	for _, b := range s.namespacedBindings {
		bindings = append(bindings, b)
	}
	for _, b := range s.clusterBindings {
		bindings = append(bindings, b)
	}

	s.engine.Update(engine.BuildSnapshot(sets, bindings))
	metrics.IndexRebuilds.Inc()
}

// GetPermissionSet returns a copy of the named namespaced set.
func (s *Store) GetPermissionSet(namespace, name string) (*authzv1alpha1.PermissionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, exists := s.namespacedSets[types.NamespacedName{Namespace: namespace, Name: name}]
	if !exists {
		return nil, notFound("permissionsets", name)
	}
	return ps.DeepCopy(), nil
}

// GetClusterPermissionSet returns a copy of the named cluster set.
func (s *Store) GetClusterPermissionSet(name string) (*authzv1alpha1.ClusterPermissionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, exists := s.clusterSets[name]
	if !exists {
		return nil, notFound("clusterpermissionsets", name)
	}
	return ps.DeepCopy(), nil
}

// GetPermissionBinding returns a copy of the named namespaced binding.
func (s *Store) GetPermissionBinding(namespace, name string) (*authzv1alpha1.PermissionBinding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.namespacedBindings[types.NamespacedName{Namespace: namespace, Name: name}]
	if !exists {
		return nil, notFound("permissionbindings", name)
	}
	return b.DeepCopy(), nil
}

// GetClusterPermissionBinding returns a copy of the named cluster binding.
func (s *Store) GetClusterPermissionBinding(name string) (*authzv1alpha1.ClusterPermissionBinding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.clusterBindings[name]
	if !exists {
		return nil, notFound("clusterpermissionbindings", name)
	}
	return b.DeepCopy(), nil
}

// ListPermissionSets lists sets in one namespace, or everywhere when
// namespace is empty, sorted by namespace then name.
func (s *Store) ListPermissionSets(namespace string) []*authzv1alpha1.PermissionSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*authzv1alpha1.PermissionSet, 0, len(s.namespacedSets))
	for key, ps := range s.namespacedSets {
		if namespace != "" && key.Namespace != namespace {
			continue
		}
		out = append(out, ps.DeepCopy())
	}
	sortObjects(out)
	return out
}

// ListClusterPermissionSets lists all cluster sets sorted by name.
func (s *Store) ListClusterPermissionSets() []*authzv1alpha1.ClusterPermissionSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*authzv1alpha1.ClusterPermissionSet, 0, len(s.clusterSets))
	for _, ps := range s.clusterSets {
		out = append(out, ps.DeepCopy())
	}
	sortObjects(out)
	return out
}

// ListPermissionBindings lists bindings in one namespace, or everywhere when
// namespace is empty, sorted by namespace then name.
func (s *Store) ListPermissionBindings(namespace string) []*authzv1alpha1.PermissionBinding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*authzv1alpha1.PermissionBinding, 0, len(s.namespacedBindings))
	for key, b := range s.namespacedBindings {
		if namespace != "" && key.Namespace != namespace {
			continue
		}
		out = append(out, b.DeepCopy())
	}
	sortObjects(out)
	return out
}

// ListClusterPermissionBindings lists all cluster bindings sorted by name.
func (s *Store) ListClusterPermissionBindings() []*authzv1alpha1.ClusterPermissionBinding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*authzv1alpha1.ClusterPermissionBinding, 0, len(s.clusterBindings))
	for _, b := range s.clusterBindings {
		out = append(out, b.DeepCopy())
	}
	sortObjects(out)
	return out
}

func keyOf(obj client.Object) types.NamespacedName {
	return types.NamespacedName{Namespace: obj.GetNamespace(), Name: obj.GetName()}
}

func notFound(resource, name string) error {
	return apierrors.NewNotFound(
		schema.GroupResource{Group: authzv1alpha1.GroupVersion.Group, Resource: resource}, name)
}

func sortObjects[T client.Object](objs []T) {
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].GetNamespace() != objs[j].GetNamespace() {
			return objs[i].GetNamespace() < objs[j].GetNamespace()
		}
		return objs[i].GetName() < objs[j].GetName()
	})
}
