package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/plugin/common"
)

var getScope string
var getNamespace string

func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "get sets|bindings",
		Short:     "List PermissionSets or bindings from the cluster",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"sets", "bindings"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := common.GetRuntimeClient()
			if err != nil {
				return err
			}
			ctx := context.Background()

			switch {
			case args[0] == "sets" && getScope == common.ScopeCluster:
				setList := &v1alpha1.ClusterPermissionSetList{}
				if err := cli.List(ctx, setList); err != nil {
					return err
				}
				fmt.Printf("ClusterPermissionSets:\n")
				for _, s := range setList.Items {
					fmt.Printf("- %s (%d rules)\n", s.Name, len(s.Spec.Rules))
				}
			case args[0] == "sets":
				setList := &v1alpha1.PermissionSetList{}
				listOpts := &client.ListOptions{Namespace: getNamespace}
				if err := cli.List(ctx, setList, listOpts); err != nil {
					return err
				}
				fmt.Printf("PermissionSets in namespace %s:\n", getNamespace)
				for _, s := range setList.Items {
					fmt.Printf("- %s (%d rules)\n", s.Name, len(s.Spec.Rules))
				}
			case getScope == common.ScopeCluster:
				bindingList := &v1alpha1.ClusterPermissionBindingList{}
				if err := cli.List(ctx, bindingList); err != nil {
					return err
				}
				fmt.Printf("ClusterPermissionBindings:\n")
				for _, b := range bindingList.Items {
					fmt.Printf("  - Name: %s\n", b.Name)
					fmt.Printf("    Ref: %s/%s\n", b.Spec.PermissionSetRef.Kind, b.Spec.PermissionSetRef.Name)
					fmt.Printf("    Subjects: %d\n", len(b.Spec.Subjects))
				}
			default:
				bindingList := &v1alpha1.PermissionBindingList{}
				listOpts := &client.ListOptions{Namespace: getNamespace}
				if err := cli.List(ctx, bindingList, listOpts); err != nil {
					return err
				}
				fmt.Printf("PermissionBindings in namespace %s:\n", getNamespace)
				for _, b := range bindingList.Items {
					fmt.Printf("  - Name: %s\n", b.Name)
					fmt.Printf("    Ref: %s/%s\n", b.Spec.PermissionSetRef.Kind, b.Spec.PermissionSetRef.Name)
					fmt.Printf("    Subjects: %d\n", len(b.Spec.Subjects))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&getScope, "scope", "namespace", "Scope to list (namespace|cluster)")
	cmd.Flags().StringVarP(&getNamespace, "namespace", "n", "default", "Namespace for listing")

	return cmd
}
