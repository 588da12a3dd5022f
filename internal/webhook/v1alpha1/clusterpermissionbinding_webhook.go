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
var clusterpermissionbindinglog = logf.Log.WithName("clusterpermissionbinding-resource")

// SetupClusterPermissionBindingWebhookWithManager registers the webhook for ClusterPermissionBinding in the manager.
func SetupClusterPermissionBindingWebhookWithManager(mgr ctrl.Manager) error {
	validator := &ClusterPermissionBindingCustomValidator{
		client: mgr.GetClient(),
	}
	return ctrl.NewWebhookManagedBy(mgr).For(&authzv1alpha1.ClusterPermissionBinding{}).
		WithValidator(validator).
		Complete()
}

// +kubebuilder:webhook:path=/validate-authz-antware-xyz-v1alpha1-clusterpermissionbinding,mutating=false,failurePolicy=fail,sideEffects=None,groups=authz.antware.xyz,resources=clusterpermissionbindings,verbs=create;update,versions=v1alpha1,name=vclusterpermissionbinding-v1alpha1.kb.io,admissionReviewVersions=v1

// ClusterPermissionBindingCustomValidator enforces that a cluster binding
// references an existing ClusterPermissionSet and nothing else.
type ClusterPermissionBindingCustomValidator struct {
	client client.Client
}

var _ webhook.CustomValidator = &ClusterPermissionBindingCustomValidator{}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type ClusterPermissionBinding.
func (v *ClusterPermissionBindingCustomValidator) ValidateCreate(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	binding, ok := obj.(*authzv1alpha1.ClusterPermissionBinding)
	if !ok {
		return nil, fmt.Errorf("expected a ClusterPermissionBinding object but got %T", obj)
	}

	return nil, v.checkReference(ctx, binding)
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type ClusterPermissionBinding.
func (v *ClusterPermissionBindingCustomValidator) ValidateUpdate(ctx context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	binding, ok := newObj.(*authzv1alpha1.ClusterPermissionBinding)
	if !ok {
		return nil, fmt.Errorf("expected a ClusterPermissionBinding object for the newObj but got %T", newObj)
	}

	return nil, v.checkReference(ctx, binding)
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type ClusterPermissionBinding.
func (v *ClusterPermissionBindingCustomValidator) ValidateDelete(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

func (v *ClusterPermissionBindingCustomValidator) checkReference(ctx context.Context, binding *authzv1alpha1.ClusterPermissionBinding) error {
	if len(binding.Spec.Subjects) == 0 {
		return fmt.Errorf("at least one subject is required")
	}

	ref := binding.Spec.PermissionSetRef
	if ref.Kind != authzv1alpha1.RefKindClusterPermissionSet {
		return fmt.Errorf("a ClusterPermissionBinding may only reference a ClusterPermissionSet, got %q", ref.Kind)
	}

	var referent authzv1alpha1.ClusterPermissionSet
	if err := v.client.Get(ctx, types.NamespacedName{Name: ref.Name}, &referent); err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("referenced ClusterPermissionSet %q does not exist", ref.Name)
		}
		return err
	}

	return nil
}
