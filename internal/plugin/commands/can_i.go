package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"antware.xyz/authgate/internal/engine"
	"antware.xyz/authgate/internal/plugin/common"
)

var canIUser string
var canIGroups []string
var canINamespace string
var canIName string
var canIFiles []string

func NewCanICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "can-i VERB RESOURCE[.GROUP][/SUBRESOURCE]",
		Short: "Check whether an identity may perform a verb on a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := common.ParseResource(args[1])
			if err != nil {
				return err
			}
			res.Namespace = canINamespace
			res.Name = canIName

			sets, bindings, err := common.LoadObjects(canIFiles)
			if err != nil {
				return err
			}

			eng := common.BuildEngine(sets, bindings)
			id := engine.IdentityFromUsername(canIUser, canIGroups)

			allowed, err := eng.CanI(id, args[0], res)
			if err != nil {
				return err
			}

			if allowed {
				fmt.Println("yes")
			} else {
				fmt.Println("no")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&canIUser, "as", "", "Identity to check (username or system:serviceaccount:NS:NAME)")
	cmd.Flags().StringSliceVar(&canIGroups, "as-group", nil, "Group the identity claims membership in (repeatable)")
	cmd.Flags().StringVarP(&canINamespace, "namespace", "n", "", "Namespace of the resource (empty for cluster-scoped)")
	cmd.Flags().StringVar(&canIName, "name", "", "Name of a specific object, for named-resource checks")
	cmd.Flags().StringSliceVarP(&canIFiles, "filename", "f", nil, "PermissionSet/binding manifest files (repeatable)")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}
