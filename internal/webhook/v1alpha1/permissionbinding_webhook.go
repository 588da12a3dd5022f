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
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
)

// nolint:unused
// log is for logging in this package.
var permissionbindinglog = logf.Log.WithName("permissionbinding-resource")

// SetupPermissionBindingWebhookWithManager registers the webhook for PermissionBinding in the manager.
func SetupPermissionBindingWebhookWithManager(mgr ctrl.Manager) error {
	validator := &PermissionBindingCustomValidator{
		client: mgr.GetClient(),
	}
	return ctrl.NewWebhookManagedBy(mgr).For(&authzv1alpha1.PermissionBinding{}).
		WithValidator(validator).
		Complete()
}

// +kubebuilder:webhook:path=/validate-authz-antware-xyz-v1alpha1-permissionbinding,mutating=false,failurePolicy=fail,sideEffects=None,groups=authz.antware.xyz,resources=permissionbindings,verbs=create;update,versions=v1alpha1,name=vpermissionbinding-v1alpha1.kb.io,admissionReviewVersions=v1

// PermissionBindingCustomValidator enforces the reference invariants of a
// namespaced binding before it becomes visible to any index rebuild: the
// referent must exist, and a referenced PermissionSet must live in the
// binding's own namespace.
type PermissionBindingCustomValidator struct {
	client client.Client
}

var _ webhook.CustomValidator = &PermissionBindingCustomValidator{}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type PermissionBinding.
func (v *PermissionBindingCustomValidator) ValidateCreate(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	binding, ok := obj.(*authzv1alpha1.PermissionBinding)
	if !ok {
		return nil, fmt.Errorf("expected a PermissionBinding object but got %T", obj)
	}

	return nil, v.checkReference(ctx, binding)
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type PermissionBinding.
func (v *PermissionBindingCustomValidator) ValidateUpdate(ctx context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	binding, ok := newObj.(*authzv1alpha1.PermissionBinding)
	if !ok {
		return nil, fmt.Errorf("expected a PermissionBinding object for the newObj but got %T", newObj)
	}

	return nil, v.checkReference(ctx, binding)
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type PermissionBinding.
func (v *PermissionBindingCustomValidator) ValidateDelete(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

func (v *PermissionBindingCustomValidator) checkReference(ctx context.Context, binding *authzv1alpha1.PermissionBinding) error {
	if len(binding.Spec.Subjects) == 0 {
		return fmt.Errorf("at least one subject is required")
	}

	ref := binding.Spec.PermissionSetRef
	switch ref.Kind {
	case authzv1alpha1.RefKindPermissionSet:
		if ref.Namespace != "" && ref.Namespace != binding.Namespace {
			return fmt.Errorf("a PermissionBinding may only reference a PermissionSet in its own namespace, got %q", ref.Namespace)
		}

		var referent authzv1alpha1.PermissionSet
		key := types.NamespacedName{Namespace: binding.Namespace, Name: ref.Name}
		if err := v.client.Get(ctx, key, &referent); err != nil {
			if apierrors.IsNotFound(err) {
				return fmt.Errorf("referenced PermissionSet %q does not exist in namespace %q", ref.Name, binding.Namespace)
			}
			return err
		}
	case authzv1alpha1.RefKindClusterPermissionSet:
		var referent authzv1alpha1.ClusterPermissionSet
		if err := v.client.Get(ctx, types.NamespacedName{Name: ref.Name}, &referent); err != nil {
			if apierrors.IsNotFound(err) {
				return fmt.Errorf("referenced ClusterPermissionSet %q does not exist", ref.Name)
			}
			return err
		}
	default:
		return fmt.Errorf("permissionSetRef.kind must be PermissionSet or ClusterPermissionSet, got %q", ref.Kind)
	}

	return nil
}
