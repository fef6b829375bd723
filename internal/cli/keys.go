package cli

import (
	"github.com/spf13/cobra"

	"github.com/simonwood/canmon/internal/keyset"
)

// keysResult is the JSON payload of the keys command.
type keysResult struct {
	IDs        []uint32 `json:"ids"`
	Normalized string   `json:"normalized"`
}

// NewKeysCommand creates the keys command: parse a filter expression and
// print the normalized ID set.
//
// Useful for checking what a filter box entry actually matches; malformed
// tokens are dropped the same way the web filter drops them.
func NewKeysCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys <filter>",
		Short: "Normalize a CAN ID filter expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := keyset.Parse(args[0])
			normalized := keyset.Format(set)

			f := &OutputFormatter{Format: root.Format, Writer: cmd.OutOrStdout()}
			return f.Emit(keysResult{
				IDs:        set.IDs(),
				Normalized: normalized,
			}, normalized)
		},
	}
	return cmd
}
