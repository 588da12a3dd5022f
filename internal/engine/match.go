package engine

import (
	"k8s.io/apimachinery/pkg/util/sets"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
)

func hasWildcard(slice []string) bool {
	for _, s := range slice {
		if s == authzv1alpha1.Wildcard {
			return true
		}
	}
	return false
}

// fieldMatches reports whether value is covered by the allowed set. An empty
// allowed set matches nothing, including the empty value.
func fieldMatches(value string, allowed []string) bool {
	if hasWildcard(allowed) {
		return true
	}
	return sets.NewString(allowed...).Has(value)
}

// ruleMatches tests containment of a single (verb, resource) query in a rule.
func ruleMatches(rule authzv1alpha1.Rule, verb string, res ResourceDescriptor) bool {
	if !fieldMatches(res.APIGroup, rule.APIGroups) {
		return false
	}
	if !fieldMatches(res.Resource, rule.Resources) {
		return false
	}
	// Subresource access must be granted explicitly.
	if res.Subresource != "" && !fieldMatches(res.Subresource, rule.Subresources) {
		return false
	}
	// A rule listing resource names covers only those names.
	if len(rule.ResourceNames) > 0 {
		if res.Name == "" || !fieldMatches(res.Name, rule.ResourceNames) {
			return false
		}
	}
	return fieldMatches(verb, rule.Verbs)
}
