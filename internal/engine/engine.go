package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/metrics"
)

// ErrIndexCorruption marks an internal invariant violation discovered during
// a decision. It is never coerced into a deny; a deny is a policy outcome,
// a corrupted index is a broken engine, and audits must tell them apart.
var ErrIndexCorruption = errors.New("binding index corrupted")

// Engine answers authorization queries against the current index snapshot.
// Decisions are pure reads; any number may run concurrently. Updates swap
// the snapshot pointer, so an in-flight decision keeps the build it started
// with.
type Engine struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func New() *Engine {
	return &Engine{snap: EmptySnapshot()}
}

// Update atomically replaces the index snapshot.
func (e *Engine) Update(snap *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snap = snap
}

func (e *Engine) snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.snap
}

// Decide answers whether the identity may perform verb on the described
// resource. Grants are purely additive: the first matching rule in any
// applicable binding allows, and with no match anywhere the decision is deny.
// There is no deny-rule concept.
func (e *Engine) Decide(id Identity, verb string, res ResourceDescriptor) (Decision, error) {
	snap := e.snapshot()

	for _, bound := range snap.lookup(id, res.Namespace) {
		switch bound.scope {
		case authzv1alpha1.ScopeNamespaced:
			// Re-validated here rather than trusted from the index: a
			// namespaced grant never applies outside its own namespace.
			if res.Namespace == "" || bound.namespace != res.Namespace {
				continue
			}
		case authzv1alpha1.ScopeCluster:
		default:
			return Decision{}, fmt.Errorf("%w: binding %q has scope %q", ErrIndexCorruption, bound.name, bound.scope)
		}

		for i, rule := range bound.rules {
			if ruleMatches(rule, verb, res) {
				metrics.Decisions.WithLabelValues("allow", string(bound.scope)).Inc()
				return Decision{
					Allowed: true,
					Matched: &RuleRef{
						Binding:   bound.name,
						Namespace: bound.namespace,
						RuleIndex: i,
					},
					EvaluatedAt: time.Now(),
				}, nil
			}
		}
	}

	metrics.Decisions.WithLabelValues("deny", "").Inc()
	return Decision{EvaluatedAt: time.Now()}, nil
}

// CanI is the boolean form of Decide.
func (e *Engine) CanI(id Identity, verb string, res ResourceDescriptor) (bool, error) {
	decision, err := e.Decide(id, verb, res)
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

// PermissionEntry is one line of an identity's effective allow-set.
// Wildcards are preserved, not expanded.
type PermissionEntry struct {
	// Namespace the grant is confined to. Empty for cluster-wide grants.
	Namespace string

	APIGroup    string
	Resource    string
	Subresource string
	Verbs       []string
}

// ListPermissions enumerates the effective allow-set reachable from the
// identity's applicable bindings, deduplicated and deterministically ordered.
func (e *Engine) ListPermissions(id Identity) []PermissionEntry {
	type entryKey struct {
		namespace   string
		apiGroup    string
		resource    string
		subresource string
	}

	verbsByEntry := map[entryKey]sets.String{}
	for _, bound := range e.snapshot().applicable(id) {
		for _, rule := range bound.rules {
			subresources := rule.Subresources
			if len(subresources) == 0 {
				subresources = []string{""}
			}
			for _, group := range rule.APIGroups {
				for _, resource := range rule.Resources {
					for _, subresource := range subresources {
						key := entryKey{
							namespace:   bound.namespace,
							apiGroup:    group,
							resource:    resource,
							subresource: subresource,
						}
						if verbsByEntry[key] == nil {
							verbsByEntry[key] = sets.NewString()
						}
						verbsByEntry[key].Insert(rule.Verbs...)
					}
				}
			}
		}
	}

	entries := make([]PermissionEntry, 0, len(verbsByEntry))
	for key, verbs := range verbsByEntry {
		entries = append(entries, PermissionEntry{
			Namespace:   key.namespace,
			APIGroup:    key.apiGroup,
			Resource:    key.resource,
			Subresource: key.subresource,
			Verbs:       verbs.List(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.APIGroup != b.APIGroup {
			return a.APIGroup < b.APIGroup
		}
		if a.Resource != b.Resource {
			return a.Resource < b.Resource
		}
		return a.Subresource < b.Subresource
	})
	return entries
}
