package common

import (
	rbacv1 "k8s.io/api/rbac/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
)

// PermissionSetObject is either a PermissionSet or a ClusterPermissionSet.
type PermissionSetObject interface {
	client.Object
	GetScope() authzv1alpha1.Scope
	GetRules() []authzv1alpha1.Rule
	GetNamespace() string
	GetName() string
}

// BindingObject is either a PermissionBinding or a ClusterPermissionBinding.
type BindingObject interface {
	client.Object
	GetScope() authzv1alpha1.Scope
	GetSubjects() []rbacv1.Subject
	GetPermissionSetRef() authzv1alpha1.PermissionSetRef
	GetNamespace() string
	GetName() string
}
