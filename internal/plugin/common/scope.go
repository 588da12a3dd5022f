package common

const (
	ScopeNamespace = "namespace"
	ScopeCluster   = "cluster"
)
