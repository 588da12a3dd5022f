package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"antware.xyz/authgate/internal/engine"
	"antware.xyz/authgate/internal/plugin/common"
)

var permUser string
var permGroups []string
var permFiles []string

func NewPermissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "List the effective allow-set of an identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, bindings, err := common.LoadObjects(permFiles)
			if err != nil {
				return err
			}

			eng := common.BuildEngine(sets, bindings)
			id := engine.IdentityFromUsername(permUser, permGroups)

			entries := eng.ListPermissions(id)
			if len(entries) == 0 {
				fmt.Println("no permissions")
				return nil
			}

			fmt.Printf("Permissions for %s:\n", permUser)
			for _, entry := range entries {
				scope := "cluster-wide"
				if entry.Namespace != "" {
					scope = "namespace " + entry.Namespace
				}

				resource := entry.Resource
				if entry.APIGroup != "" {
					resource = resource + "." + entry.APIGroup
				}
				if entry.Subresource != "" {
					resource = resource + "/" + entry.Subresource
				}

				fmt.Printf("  - %s: %s [%s]\n", scope, resource, strings.Join(entry.Verbs, ","))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&permUser, "as", "", "Identity to enumerate (username or system:serviceaccount:NS:NAME)")
	cmd.Flags().StringSliceVar(&permGroups, "as-group", nil, "Group the identity claims membership in (repeatable)")
	cmd.Flags().StringSliceVarP(&permFiles, "filename", "f", nil, "PermissionSet/binding manifest files (repeatable)")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}
