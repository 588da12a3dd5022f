package v1alpha1

// Scope says where a PermissionSet or binding is effective.
type Scope string

const (
	ScopeNamespaced Scope = "Namespaced"
	ScopeCluster    Scope = "Cluster"
)

// RefKind identifies the kind a PermissionSetRef points at.
type RefKind string

const (
	RefKindPermissionSet        RefKind = "PermissionSet"
	RefKindClusterPermissionSet RefKind = "ClusterPermissionSet"
)

// Wildcard matches any concrete value in a rule field.
const Wildcard = "*"

// Rule is an atomic grant: the listed verbs over the listed resource types
// in the listed API groups. An empty verbs, resources or apiGroups list
// matches nothing; denial by omission, never implicit allow.
type Rule struct {
	// APIGroups is the set of API groups this rule covers. "" is the core group.
	APIGroups []string `json:"apiGroups,omitempty"`

	// Resources is the set of resource types this rule covers.
	Resources []string `json:"resources,omitempty"`

	// Subresources this rule covers. A rule granting a base resource never
	// implicitly grants its subresources; they must be listed here.
	// +optional
	Subresources []string `json:"subresources,omitempty"`

	// ResourceNames restricts the grant to named resources. Empty means all names.
	// +optional
	ResourceNames []string `json:"resourceNames,omitempty"`

	// Verbs is the set of verbs this rule allows.
	Verbs []string `json:"verbs,omitempty"`
}

// PermissionSetRef points a binding at exactly one PermissionSet or
// ClusterPermissionSet.
type PermissionSetRef struct {
	// Kind of the referent.
	// +kubebuilder:validation:Enum=PermissionSet;ClusterPermissionSet
	Kind RefKind `json:"kind"`

	// Name of the referent.
	Name string `json:"name"`

	// Namespace of a referenced PermissionSet. Defaults to the binding's own
	// namespace; a differing value is rejected at admission.
	// +optional
	Namespace string `json:"namespace,omitempty"`
}
