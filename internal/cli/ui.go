package cli

import (
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/tui"
)

var runTUI = tui.Run

func newUICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive list",
		Long: `Open the interactive list.

Keys: space toggle, a add, e edit, d delete, f cycle filter,
c clear completed, q quit. Changes are saved as you make them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.tui(cmd)
		},
	}
}

func (e *env) tui(cmd *cobra.Command) error {
	if err := e.requireAuth(); err != nil {
		return err
	}
	if err := e.runTUI(cmd.Context(), e.app); err != nil {
		return failErr("ui: %v", err)
	}
	return nil
}
