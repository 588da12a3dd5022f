/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PermissionSetSpec defines the desired state of PermissionSet
type PermissionSetSpec struct {
	// Rules is the ordered list of grants this set carries. A set is replaced
	// wholesale; there are no partial patch semantics at this layer.
	Rules []Rule `json:"rules"`
}

func (r PermissionSet) GetScope() Scope {
	return ScopeNamespaced
}

func (r PermissionSet) GetRules() []Rule {
	return r.Spec.Rules
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// PermissionSet is the Schema for the permissionsets API
type PermissionSet struct {
	metav1.TypeMeta `json:",inline"`

	// metadata is a standard object metadata
	// +optional
	metav1.ObjectMeta `json:"metadata,omitempty,omitzero"`

	// spec defines the desired state of PermissionSet
	// +required
	Spec PermissionSetSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// PermissionSetList contains a list of PermissionSet
type PermissionSetList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []PermissionSet `json:"items"`
}

func init() {
	SchemeBuilder.Register(&PermissionSet{}, &PermissionSetList{})
}
