package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmakaev/rslph/internal/config"
)

var (
	// Version is set by goreleaser via ldflags.
	Version = "dev"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "rslph",
	Short: "Autonomous agent engine driven by a markdown progress document",
	Long: `rslph drives an external agent CLI through a disciplined iteration
loop, persisting all state to a single human-readable progress document so
each iteration can run with a fresh context yet remain coherent across
restarts.

Workflow:
  1. rslph init                         # scaffold .rslph/config.yaml
  2. rslph plan idea.md --adaptive      # produce progress.md, answering
                                         # clarifying questions if asked
  3. rslph build progress.md            # drive the document to completion
  4. rslph status progress.md           # check on progress at any time`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .rslph/config.yaml)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("rslph version %s\n", Version))
}

// loadConfig loads configuration for wsDir, honoring an explicit --config
// path when one was given instead of the workspace's default location.
func loadConfig(wsDir string) (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load(wsDir)
}
