package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"antware.xyz/authgate/internal/engine"
	"antware.xyz/authgate/internal/plugin/common"
	"antware.xyz/authgate/internal/store"
)

var validateFiles []string

func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check manifests for referential-integrity errors without a cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, bindings, err := common.LoadObjects(validateFiles)
			if err != nil {
				return err
			}

			// Replay the manifests through the administrative write path,
			// sets first so binding references can resolve.
			st := store.New(engine.New())
			failures := 0
			for _, ps := range sets {
				if err := st.Apply(store.Change{Op: store.OpCreate, Object: ps}); err != nil {
					failures++
					fmt.Printf("INVALID %s %s: %v\n", ps.GetObjectKind().GroupVersionKind().Kind, ps.GetName(), err)
				}
			}
			for _, b := range bindings {
				if err := st.Apply(store.Change{Op: store.OpCreate, Object: b}); err != nil {
					failures++
					fmt.Printf("INVALID %s %s: %v\n", b.GetObjectKind().GroupVersionKind().Kind, b.GetName(), err)
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d invalid object(s)", failures)
			}
			fmt.Println("all objects valid")
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&validateFiles, "filename", "f", nil, "PermissionSet/binding manifest files (repeatable)")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}
