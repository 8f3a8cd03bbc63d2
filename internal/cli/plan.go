package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vmakaev/rslph/internal/cancel"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/display"
	"github.com/vmakaev/rslph/internal/planning"
	"github.com/vmakaev/rslph/internal/tui"
	"github.com/vmakaev/rslph/internal/workspace"
)

var (
	planAdaptive bool
	planNoTUI    bool
)

var planCmd = &cobra.Command{
	Use:   "plan <idea-file>",
	Short: "Produce a progress document from an idea",
	Long: `Invoke the planning flow on the contents of idea-file, writing the
resulting progress document next to it (conventional name progress.md).

In basic mode, clarifying questions from the agent are printed and the
command suggests re-running with --adaptive. In adaptive mode, the command
prompts for an answer (terminated by two blank lines) and resumes the same
agent session, up to five rounds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ideaPath := args[0]
		idea, err := os.ReadFile(ideaPath)
		if err != nil {
			return fmt.Errorf("read idea file: %w", err)
		}

		wsDir, err := workspace.Find()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(wsDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := config.ResolveAgentBinary(cfg); err != nil {
			return fmt.Errorf("resolve agent binary: %w", err)
		}

		mode := planning.Basic
		if planAdaptive {
			mode = planning.Adaptive
		}

		targetPath := filepath.Join(filepath.Dir(ideaPath), "progress.md")

		opts := planning.Options{
			WorkspaceDir: wsDir,
			Config:       cfg,
			Persona:      "planner",
			Mode:         mode,
			TargetPath:   targetPath,
			DebugDir:     wsDir,
		}

		var result planning.Result
		if planNoTUI || !planAdaptive {
			dsp := display.New()
			token := cancel.New()
			stop := token.NotifyOnInterrupt()
			defer stop()
			opts.CancelToken = token
			opts.AnswerFunc = func(questions []string) (string, error) {
				return promptForAnswer(dsp, questions)
			}
			result, err = planning.Run(string(idea), opts)
		} else {
			result, err = tui.RunPlan(string(idea), opts)
		}

		if len(result.Questions) > 0 {
			fmt.Println("Clarifying questions from the agent:")
			for i, q := range result.Questions {
				fmt.Printf("  %d. %s\n", i+1, q)
			}
			fmt.Println("Re-run with --adaptive to answer these and continue planning.")
		}
		if result.Degraded {
			fmt.Printf("Warning: resume failed after %d round(s): %v\n", result.Rounds, result.DegradeErr)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %s after %d Q&A round(s)\n", targetPath, result.Rounds)
		return nil
	},
}

func promptForAnswer(dsp *display.Display, questions []string) (string, error) {
	dsp.Box("AGENT QUESTIONS", questions...)
	fmt.Println("Answer below, then two blank lines to submit:")
	return planning.ReadAnswerFromStdin(os.Stdin)
}

func init() {
	planCmd.Flags().BoolVar(&planAdaptive, "adaptive", false, "allow a Q&A loop when the agent asks clarifying questions")
	planCmd.Flags().BoolVar(&planNoTUI, "no-tui", false, "use plain console prompts instead of the TUI for adaptive Q&A")
	rootCmd.AddCommand(planCmd)
}
