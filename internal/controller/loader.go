package controller

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/client"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/common"
	"antware.xyz/authgate/internal/store"
)

// ReloadAll mirrors every PermissionSet and binding in the cluster into the
// store, wholesale. The reconcilers call this on any change event; the store
// rebuilds the index once per call.
func ReloadAll(ctx context.Context, c client.Client, s *store.Store) error {
	var sets []common.PermissionSetObject
	var bindings []common.BindingObject

	var nsSets authzv1alpha1.PermissionSetList
	if err := c.List(ctx, &nsSets); err != nil {
		return err
	}
	for i := range nsSets.Items {
		sets = append(sets, &nsSets.Items[i])
	}

	var clusterSets authzv1alpha1.ClusterPermissionSetList
	if err := c.List(ctx, &clusterSets); err != nil {
		return err
	}
	for i := range clusterSets.Items {
		sets = append(sets, &clusterSets.Items[i])
	}

	var nsBindings authzv1alpha1.PermissionBindingList
	if err := c.List(ctx, &nsBindings); err != nil {
		return err
	}
	for i := range nsBindings.Items {
		bindings = append(bindings, &nsBindings.Items[i])
	}

	var clusterBindings authzv1alpha1.ClusterPermissionBindingList
	if err := c.List(ctx, &clusterBindings); err != nil {
		return err
	}
	for i := range clusterBindings.Items {
		bindings = append(bindings, &clusterBindings.Items[i])
	}

	s.Load(sets, bindings)
	return nil
}
