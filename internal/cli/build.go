package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmakaev/rslph/internal/buildloop"
	"github.com/vmakaev/rslph/internal/cancel"
	"github.com/vmakaev/rslph/internal/config"
	"github.com/vmakaev/rslph/internal/display"
	"github.com/vmakaev/rslph/internal/runner"
	"github.com/vmakaev/rslph/internal/tui"
	"github.com/vmakaev/rslph/internal/workspace"
)

var (
	buildOnce   bool
	buildDryRun bool
	buildNoTUI  bool
)

var buildCmd = &cobra.Command{
	Use:   "build <progress-file>",
	Short: "Drive a progress document to completion",
	Long: `Invoke the build loop on the given progress document: reload,
check for completion, spawn the agent CLI for the next task, parse its
output back into the document, and repeat until done, cancelled, or
max_iterations is reached.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docPath := args[0]

		wsDir, err := workspace.Find()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(wsDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if buildDryRun {
			return buildloop.PreviewDryRun(docPath, os.Stdout)
		}

		if err := config.ResolveAgentBinary(cfg); err != nil {
			return fmt.Errorf("resolve agent binary: %w", err)
		}

		var final buildloop.State
		if buildNoTUI {
			dsp := display.New()
			token := cancel.New()
			stop := token.NotifyOnInterrupt()
			defer stop()

			final = buildloop.Run(buildloop.Options{
				DocumentPath: docPath,
				WorkspaceDir: wsDir,
				Config:       cfg,
				CancelToken:  token,
				Once:         buildOnce,
				OnLine: func(l runner.OutputLine) {
					if l.Stream == runner.Stdout {
						dsp.Agent(l.Text, 0)
					}
				},
				OnState: func(s buildloop.State) {
					switch s.Kind {
					case buildloop.Running:
						dsp.IterationHeader(int(s.Iteration), cfg.Build.MaxIterations, s.CompletedTasks, s.TotalTasks)
					case buildloop.IterationComplete:
						dsp.Success(fmt.Sprintf("iteration %d complete, %d task(s) completed", s.Iteration, s.TasksCompleted))
						total := s.Usage.InputTokens + s.Usage.CacheCreationTokens + s.Usage.CacheReadTokens
						dsp.Tokens(total, s.Usage.InputTokens, s.Usage.OutputTokens)
					}
				},
			})
		} else {
			final = tui.RunBuild(docPath, wsDir, cfg, buildOnce)
		}

		switch final.Kind {
		case buildloop.Done:
			fmt.Printf("Done: %s\n", final.DoneReason)
			if final.DoneReason == buildloop.UserCancelled {
				os.Exit(130)
			}
			return nil
		case buildloop.Failed:
			fmt.Fprintf(os.Stderr, "Failed: %v\n", final.Err)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildOnce, "once", false, "run exactly one iteration and stop")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "preview the next iteration without spawning the agent CLI")
	buildCmd.Flags().BoolVar(&buildNoTUI, "no-tui", false, "use plain console output instead of the TUI")
	rootCmd.AddCommand(buildCmd)
}
