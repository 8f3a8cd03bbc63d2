package cli

import (
	"github.com/spf13/cobra"

	"github.com/vmakaev/rslph/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a .rslph/config.yaml in the current directory",
	Long: `Write a .rslph/config.yaml seeded with every tunable at its default
value: the agent CLI binary and flag template, build loop limits, and
per-model context-window sizes.

The config directory is optional; rslph plan and rslph build work without
it by falling back to built-in defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return workspace.Init(initForce)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .rslph directory")
	rootCmd.AddCommand(initCmd)
}
