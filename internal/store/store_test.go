package store

import (
	"testing"

	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/common"
	"antware.xyz/authgate/internal/engine"
)

var podReaderRule = authzv1alpha1.Rule{
	APIGroups: []string{""},
	Resources: []string{"pods"},
	Verbs:     []string{"get", "list"},
}

func podReaderSet(namespace, name string) *authzv1alpha1.PermissionSet {
	return &authzv1alpha1.PermissionSet{
		ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name},
		Spec:       authzv1alpha1.PermissionSetSpec{Rules: []authzv1alpha1.Rule{podReaderRule}},
	}
}

func aliceBinding(namespace, name string, ref authzv1alpha1.PermissionSetRef) *authzv1alpha1.PermissionBinding {
	return &authzv1alpha1.PermissionBinding{
		ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name},
		Spec: authzv1alpha1.PermissionBindingSpec{
			Subjects:         []rbacv1.Subject{{Kind: rbacv1.UserKind, Name: "alice"}},
			PermissionSetRef: ref,
		},
	}
}

func TestApplyCreateThenDecide(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	if err := s.Apply(Change{Op: OpCreate, Object: podReaderSet("default", "pod-reader")}); err != nil {
		t.Fatalf("unexpected error creating set: %v", err)
	}
	if err := s.Apply(Change{Op: OpCreate, Object: aliceBinding("default", "alice-pods",
		authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "pod-reader"})}); err != nil {
		t.Fatalf("unexpected error creating binding: %v", err)
	}

	alice := engine.Identity{Kind: engine.KindUser, Name: "alice"}
	allowed, err := eng.CanI(alice, "get", engine.ResourceDescriptor{Resource: "pods", Namespace: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("expected the applied grant to take effect")
	}
}

func TestApplyDuplicateName(t *testing.T) {
	s := New(engine.New())

	if err := s.Apply(Change{Op: OpCreate, Object: podReaderSet("default", "pod-reader")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.Apply(Change{Op: OpCreate, Object: podReaderSet("default", "pod-reader")})
	if !IsIntegrityError(err, DuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}

	// Same name in another namespace is a different object.
	if err := s.Apply(Change{Op: OpCreate, Object: podReaderSet("staging", "pod-reader")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDanglingReference(t *testing.T) {
	s := New(engine.New())

	err := s.Apply(Change{Op: OpCreate, Object: aliceBinding("default", "orphan",
		authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "missing"})})
	if !IsIntegrityError(err, DanglingReference) {
		t.Fatalf("expected DanglingReference, got %v", err)
	}
	if _, err := s.GetPermissionBinding("default", "orphan"); !apierrors.IsNotFound(err) {
		t.Errorf("rejected binding must not be stored, got %v", err)
	}
}

// A namespaced binding cannot reach a PermissionSet in another namespace,
// and the rejected change must leave prior state untouched.
func TestApplyScopeMismatch(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	if err := s.Apply(Change{Op: OpCreate, Object: podReaderSet("other", "pod-reader")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.Apply(Change{Op: OpCreate, Object: aliceBinding("default", "cross-ns",
		authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "pod-reader", Namespace: "other"})})
	if !IsIntegrityError(err, ScopeMismatch) {
		t.Fatalf("expected ScopeMismatch, got %v", err)
	}

	if _, err := s.GetPermissionBinding("default", "cross-ns"); !apierrors.IsNotFound(err) {
		t.Errorf("rejected binding must not be stored, got %v", err)
	}
	alice := engine.Identity{Kind: engine.KindUser, Name: "alice"}
	allowed, err := eng.CanI(alice, "get", engine.ResourceDescriptor{Resource: "pods", Namespace: "other"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("rejected binding must not grant anything")
	}
}

func TestApplyClusterBindingScopeMismatch(t *testing.T) {
	s := New(engine.New())

	err := s.Apply(Change{Op: OpCreate, Object: &authzv1alpha1.ClusterPermissionBinding{
		ObjectMeta: metav1.ObjectMeta{Name: "bad-ref"},
		Spec: authzv1alpha1.ClusterPermissionBindingSpec{
			Subjects: []rbacv1.Subject{{Kind: rbacv1.UserKind, Name: "alice"}},
			PermissionSetRef: authzv1alpha1.PermissionSetRef{
				Kind: authzv1alpha1.RefKindPermissionSet, Name: "pod-reader",
			},
		},
	}})
	if !IsIntegrityError(err, ScopeMismatch) {
		t.Fatalf("expected ScopeMismatch, got %v", err)
	}
}

func TestApplyDeleteRevokes(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	if err := s.Apply(Change{Op: OpCreate, Object: podReaderSet("default", "pod-reader")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	binding := aliceBinding("default", "alice-pods",
		authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "pod-reader"})
	if err := s.Apply(Change{Op: OpCreate, Object: binding}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Apply(Change{Op: OpDelete, Object: binding}); err != nil {
		t.Fatalf("unexpected error deleting binding: %v", err)
	}

	alice := engine.Identity{Kind: engine.KindUser, Name: "alice"}
	allowed, err := eng.CanI(alice, "get", engine.ResourceDescriptor{Resource: "pods", Namespace: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("deleting the binding must revoke the grant")
	}
}

// Deleting a set out from under a binding is allowed; the binding goes
// dangling and stops contributing until the set comes back.
func TestApplyDeleteReferencedSet(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	set := podReaderSet("default", "pod-reader")
	if err := s.Apply(Change{Op: OpCreate, Object: set}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Apply(Change{Op: OpCreate, Object: aliceBinding("default", "alice-pods",
		authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "pod-reader"})}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Apply(Change{Op: OpDelete, Object: set}); err != nil {
		t.Fatalf("unexpected error deleting set: %v", err)
	}

	alice := engine.Identity{Kind: engine.KindUser, Name: "alice"}
	allowed, err := eng.CanI(alice, "get", engine.ResourceDescriptor{Resource: "pods", Namespace: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("dangling binding must stop contributing")
	}

	// Recreating the set restores the grant on the next rebuild.
	if err := s.Apply(Change{Op: OpCreate, Object: set}); err != nil {
		t.Fatalf("unexpected error recreating set: %v", err)
	}
	allowed, err = eng.CanI(alice, "get", engine.ResourceDescriptor{Resource: "pods", Namespace: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("recreated set must restore the grant")
	}
}

func TestApplyReplace(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	err := s.Apply(Change{Op: OpReplace, Object: podReaderSet("default", "pod-reader")})
	if !apierrors.IsNotFound(err) {
		t.Fatalf("replace of a missing object must be NotFound, got %v", err)
	}

	if err := s.Apply(Change{Op: OpCreate, Object: podReaderSet("default", "pod-reader")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Apply(Change{Op: OpCreate, Object: aliceBinding("default", "alice-pods",
		authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "pod-reader"})}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Replace the set wholesale with a narrower rule list.
	narrowed := &authzv1alpha1.PermissionSet{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "pod-reader"},
		Spec: authzv1alpha1.PermissionSetSpec{Rules: []authzv1alpha1.Rule{{
			APIGroups: []string{""},
			Resources: []string{"pods"},
			Verbs:     []string{"get"},
		}}},
	}
	if err := s.Apply(Change{Op: OpReplace, Object: narrowed}); err != nil {
		t.Fatalf("unexpected error replacing set: %v", err)
	}

	alice := engine.Identity{Kind: engine.KindUser, Name: "alice"}
	allowed, err := eng.CanI(alice, "list", engine.ResourceDescriptor{Resource: "pods", Namespace: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("replaced set must drop the old grants")
	}
}

func TestLoadToleratesDangling(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	s.Load(
		[]common.PermissionSetObject{podReaderSet("default", "pod-reader")},
		[]common.BindingObject{
			aliceBinding("default", "alice-pods",
				authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "pod-reader"}),
			aliceBinding("default", "orphan",
				authzv1alpha1.PermissionSetRef{Kind: authzv1alpha1.RefKindPermissionSet, Name: "gone"}),
		},
	)

	alice := engine.Identity{Kind: engine.KindUser, Name: "alice"}
	allowed, err := eng.CanI(alice, "get", engine.ResourceDescriptor{Resource: "pods", Namespace: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("resolved binding must survive a load with a dangling sibling")
	}

	if _, err := s.GetPermissionBinding("default", "orphan"); err != nil {
		t.Errorf("load keeps dangling bindings, got %v", err)
	}
}

func TestListPermissionSetsSorted(t *testing.T) {
	s := New(engine.New())

	for _, set := range []*authzv1alpha1.PermissionSet{
		podReaderSet("b-ns", "zeta"),
		podReaderSet("a-ns", "beta"),
		podReaderSet("a-ns", "alpha"),
	} {
		if err := s.Apply(Change{Op: OpCreate, Object: set}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	listed := s.ListPermissionSets("")
	var got []string
	for _, ps := range listed {
		got = append(got, ps.Namespace+"/"+ps.Name)
	}
	expected := []string{"a-ns/alpha", "a-ns/beta", "b-ns/zeta"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("got order %v, want %v", got, expected)
		}
	}

	if scoped := s.ListPermissionSets("a-ns"); len(scoped) != 2 {
		t.Errorf("expected 2 sets in a-ns, got %d", len(scoped))
	}
}
