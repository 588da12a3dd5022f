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

package controller

import (
	"context"

	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/store"
)

// ClusterPermissionBindingReconciler keeps the store in sync with ClusterPermissionBinding objects
type ClusterPermissionBindingReconciler struct {
	client.Client
	Scheme *runtime.Scheme
	Store  *store.Store
}

// +kubebuilder:rbac:groups=authz.antware.xyz,resources=clusterpermissionbindings,verbs=get;list;watch
// +kubebuilder:rbac:groups=authz.antware.xyz,resources=clusterpermissionbindings/status,verbs=get;update;patch

func (r *ClusterPermissionBindingReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := logf.FromContext(ctx)

	if err := ReloadAll(ctx, r.Client, r.Store); err != nil {
		log.Error(err, "failed to reload clusterpermissionbinding state", "trigger", req.NamespacedName)
		return ctrl.Result{}, err
	}

	return ctrl.Result{}, nil
}

// SetupWithManager sets up the controller with the Manager.
func (r *ClusterPermissionBindingReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&authzv1alpha1.ClusterPermissionBinding{}).
		Named("clusterpermissionbinding").
		Complete(r)
}
