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
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PermissionBindingSpec defines the desired state of PermissionBinding
type PermissionBindingSpec struct {
	// Subjects are the identities this binding grants to.
	Subjects []rbacv1.Subject `json:"subjects"`

	// PermissionSetRef is the single referenced set. A namespaced binding may
	// reference a PermissionSet in its own namespace or a ClusterPermissionSet;
	// either way its grants apply only within the binding's namespace.
	PermissionSetRef PermissionSetRef `json:"permissionSetRef"`
}

func (r PermissionBinding) GetScope() Scope {
	return ScopeNamespaced
}

func (r PermissionBinding) GetSubjects() []rbacv1.Subject {
	return r.Spec.Subjects
}

func (r PermissionBinding) GetPermissionSetRef() PermissionSetRef {
	return r.Spec.PermissionSetRef
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// PermissionBinding is the Schema for the permissionbindings API
type PermissionBinding struct {
	metav1.TypeMeta `json:",inline"`

	// metadata is a standard object metadata
	// +optional
	metav1.ObjectMeta `json:"metadata,omitempty,omitzero"`

	// spec defines the desired state of PermissionBinding
	// +required
	Spec PermissionBindingSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// PermissionBindingList contains a list of PermissionBinding
type PermissionBindingList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []PermissionBinding `json:"items"`
}

func init() {
	SchemeBuilder.Register(&PermissionBinding{}, &PermissionBindingList{})
}
