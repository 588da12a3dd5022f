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

	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
)

// nolint:unused
// log is for logging in this package.
var permissionsetlog = logf.Log.WithName("permissionset-resource")

// SetupPermissionSetWebhookWithManager registers the webhooks for PermissionSet
// and ClusterPermissionSet in the manager.
func SetupPermissionSetWebhookWithManager(mgr ctrl.Manager) error {
	if err := ctrl.NewWebhookManagedBy(mgr).For(&authzv1alpha1.PermissionSet{}).
		WithValidator(&PermissionSetCustomValidator{}).
		Complete(); err != nil {
		return err
	}
	return ctrl.NewWebhookManagedBy(mgr).For(&authzv1alpha1.ClusterPermissionSet{}).
		WithValidator(&ClusterPermissionSetCustomValidator{}).
		Complete()
}

// +kubebuilder:webhook:path=/validate-authz-antware-xyz-v1alpha1-permissionset,mutating=false,failurePolicy=fail,sideEffects=None,groups=authz.antware.xyz,resources=permissionsets,verbs=create;update,versions=v1alpha1,name=vpermissionset-v1alpha1.kb.io,admissionReviewVersions=v1
// +kubebuilder:webhook:path=/validate-authz-antware-xyz-v1alpha1-clusterpermissionset,mutating=false,failurePolicy=fail,sideEffects=None,groups=authz.antware.xyz,resources=clusterpermissionsets,verbs=create;update,versions=v1alpha1,name=vclusterpermissionset-v1alpha1.kb.io,admissionReviewVersions=v1

// PermissionSetCustomValidator rejects sets whose rules can never match
// anything. An empty verbs, resources or apiGroups list is denial by
// omission at decision time, but as stored configuration it is a mistake.
type PermissionSetCustomValidator struct{}

var _ webhook.CustomValidator = &PermissionSetCustomValidator{}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type PermissionSet.
func (v *PermissionSetCustomValidator) ValidateCreate(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	set, ok := obj.(*authzv1alpha1.PermissionSet)
	if !ok {
		return nil, fmt.Errorf("expected a PermissionSet object but got %T", obj)
	}

	return nil, checkRules(set.Spec.Rules)
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type PermissionSet.
func (v *PermissionSetCustomValidator) ValidateUpdate(_ context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	set, ok := newObj.(*authzv1alpha1.PermissionSet)
	if !ok {
		return nil, fmt.Errorf("expected a PermissionSet object for the newObj but got %T", newObj)
	}

	return nil, checkRules(set.Spec.Rules)
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type PermissionSet.
func (v *PermissionSetCustomValidator) ValidateDelete(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

// ClusterPermissionSetCustomValidator applies the same rule checks to the
// cluster-scoped kind.
type ClusterPermissionSetCustomValidator struct{}

var _ webhook.CustomValidator = &ClusterPermissionSetCustomValidator{}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type ClusterPermissionSet.
func (v *ClusterPermissionSetCustomValidator) ValidateCreate(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	set, ok := obj.(*authzv1alpha1.ClusterPermissionSet)
	if !ok {
		return nil, fmt.Errorf("expected a ClusterPermissionSet object but got %T", obj)
	}

	return nil, checkRules(set.Spec.Rules)
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type ClusterPermissionSet.
func (v *ClusterPermissionSetCustomValidator) ValidateUpdate(_ context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	set, ok := newObj.(*authzv1alpha1.ClusterPermissionSet)
	if !ok {
		return nil, fmt.Errorf("expected a ClusterPermissionSet object for the newObj but got %T", newObj)
	}

	return nil, checkRules(set.Spec.Rules)
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type ClusterPermissionSet.
func (v *ClusterPermissionSetCustomValidator) ValidateDelete(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

func checkRules(rules []authzv1alpha1.Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("at least one rule is required")
	}
	for i, rule := range rules {
		if len(rule.Verbs) == 0 {
			return fmt.Errorf("rule %d: verbs must not be empty", i)
		}
		if len(rule.Resources) == 0 {
			return fmt.Errorf("rule %d: resources must not be empty", i)
		}
		if len(rule.APIGroups) == 0 {
			return fmt.Errorf("rule %d: apiGroups must not be empty (use \"\" for the core group)", i)
		}
	}
	return nil
}
