package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vmakaev/rslph/internal/logs"
)

// verbatimAgentName returns the configured agent CLI's binary basename, for
// locating and labeling its session logs (spec §4.F agent identity).
func verbatimAgentName(wsDir string) string {
	cfg, err := loadConfig(wsDir)
	if err != nil {
		return ""
	}
	return filepath.Base(cfg.Agent.Binary)
}

var logsListAll bool

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Manage verbatim conversation logs",
	Long: `Extract and manage agent CLI conversation logs.

rslph can extract conversations from the agent CLI's internal session
logs and save them as readable markdown files under .rslph/verbatim/.

Subcommands:
  sync     Extract the latest session to .rslph/verbatim/
  list     Show available sessions`,
}

var logsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Extract the latest conversation log",
	Long: `Extract the agent CLI's latest session log to .rslph/verbatim/.

Finds the agent CLI's project folder for the current workspace and
extracts the latest session as a readable markdown file. The output
includes user messages and the agent's text responses; tool calls are
excluded for readability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		outDir := filepath.Join(cwd, ".rslph", "verbatim")

		extractor, err := logs.NewVerbatimExtractor(cwd, outDir, verbatimAgentName(cwd))
		if err != nil {
			return fmt.Errorf("cannot initialize log extractor: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Agent CLI project folder: %s\n\n", cyan(extractor.ClaudeProjectPath()))

		outPath, err := extractor.ExtractLatest()
		if err != nil {
			return fmt.Errorf("cannot extract session: %w", err)
		}

		fmt.Printf("%s Extracted to: %s\n", green("✓"), outPath)
		return nil
	},
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available agent CLI sessions",
	Long:  `List all available agent CLI sessions for this project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		outDir := filepath.Join(cwd, ".rslph", "verbatim")

		extractor, err := logs.NewVerbatimExtractor(cwd, outDir, verbatimAgentName(cwd))
		if err != nil {
			return fmt.Errorf("cannot initialize log extractor: %w", err)
		}

		sessions, err := extractor.GetSessions()
		if err != nil {
			return fmt.Errorf("cannot get sessions: %w", err)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		dim := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("Agent CLI project folder: %s\n\n", cyan(extractor.ClaudeProjectPath()))

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Printf("Found %d session(s):\n\n", len(sessions))

		showCount := 10
		if logsListAll {
			showCount = len(sessions)
		}

		startIdx := len(sessions) - showCount
		if startIdx < 0 {
			startIdx = 0
		}

		for i := startIdx; i < len(sessions); i++ {
			s := sessions[i]
			shortID := s.ID
			if len(shortID) > 8 {
				shortID = shortID[:8] + "..."
			}
			fmt.Printf("  %s  %s  %s\n",
				s.EndTime.Format("2006-01-02 15:04"),
				cyan(shortID),
				dim(s.Path))
		}

		if !logsListAll && len(sessions) > showCount {
			fmt.Printf("\n  ... and %d more (use --all to show all)\n", len(sessions)-showCount)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsSyncCmd)
	logsCmd.AddCommand(logsListCmd)

	logsListCmd.Flags().BoolVarP(&logsListAll, "all", "a", false, "show all sessions")
}
