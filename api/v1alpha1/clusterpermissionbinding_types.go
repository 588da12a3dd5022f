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

// ClusterPermissionBindingSpec defines the desired state of ClusterPermissionBinding
type ClusterPermissionBindingSpec struct {
	// Subjects are the identities this binding grants to.
	Subjects []rbacv1.Subject `json:"subjects"`

	// PermissionSetRef must reference a ClusterPermissionSet; the grants apply
	// in every namespace and to cluster-scoped resources.
	PermissionSetRef PermissionSetRef `json:"permissionSetRef"`
}

func (r ClusterPermissionBinding) GetScope() Scope {
	return ScopeCluster
}

func (r ClusterPermissionBinding) GetSubjects() []rbacv1.Subject {
	return r.Spec.Subjects
}

func (r ClusterPermissionBinding) GetPermissionSetRef() PermissionSetRef {
	return r.Spec.PermissionSetRef
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster

// ClusterPermissionBinding is the Schema for the clusterpermissionbindings API
type ClusterPermissionBinding struct {
	metav1.TypeMeta `json:",inline"`

	// metadata is a standard object metadata
	// +optional
	metav1.ObjectMeta `json:"metadata,omitempty,omitzero"`

	// spec defines the desired state of ClusterPermissionBinding
	// +required
	Spec ClusterPermissionBindingSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// ClusterPermissionBindingList contains a list of ClusterPermissionBinding
type ClusterPermissionBindingList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ClusterPermissionBinding `json:"items"`
}

func init() {
	SchemeBuilder.Register(&ClusterPermissionBinding{}, &ClusterPermissionBindingList{})
}
