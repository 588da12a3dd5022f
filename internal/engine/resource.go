package engine

// ResourceDescriptor identifies the object of one authorization query.
type ResourceDescriptor struct {
	// APIGroup of the resource type. "" is the core group.
	APIGroup string `json:"apiGroup"`

	// Resource is the resource type, e.g. "pods".
	Resource string `json:"resource"`

	// Subresource, if the query targets one, e.g. "log". Access to a
	// subresource is never inferred from a grant on the base resource.
	Subresource string `json:"subresource,omitempty"`

	// Namespace the query applies to. Empty for cluster-scoped resource types.
	Namespace string `json:"namespace,omitempty"`

	// Name of a specific object, for named-resource checks. Optional.
	Name string `json:"name,omitempty"`
}
