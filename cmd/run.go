// File: cmd/run.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/adb"
	"github.com/droidpilot/droidpilot/internal/config"
	"github.com/droidpilot/droidpilot/internal/executor"
	"github.com/droidpilot/droidpilot/internal/llmclient"
	"github.com/droidpilot/droidpilot/internal/observability"
	"github.com/droidpilot/droidpilot/internal/planner"
	"github.com/droidpilot/droidpilot/internal/screen"
	"github.com/droidpilot/droidpilot/internal/taskloop"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var interactive bool

	runCmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Runs a natural-language task against a connected Android device",
		Args:  cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line values override
			// the config file and environment with the right precedence.
			if err := viper.BindPFlag("device.serial", cmd.Flags().Lookup("device")); err != nil {
				return err
			}
			if err := viper.BindPFlag("agent.max_iterations", cmd.Flags().Lookup("max-iterations")); err != nil {
				return err
			}
			if err := viper.BindPFlag("agent.repetition_threshold", cmd.Flags().Lookup("repetition-threshold")); err != nil {
				return err
			}
			return viper.BindPFlag("agent.inter_action_delay", cmd.Flags().Lookup("delay"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive && len(args) == 0 {
				return fmt.Errorf("provide a task, or use --interactive")
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			ctrl, err := buildController(ctx, cfg, logger)
			if err != nil {
				return err
			}

			if interactive {
				return interactiveSession(ctx, cmd, ctrl)
			}
			return runOnce(ctx, cmd, ctrl, strings.Join(args, " "))
		},
	}

	runCmd.Flags().StringP("device", "d", "", "device serial to target (default: first connected device)")
	runCmd.Flags().Int("max-iterations", 0, "maximum decide/act cycles per task")
	runCmd.Flags().Int("repetition-threshold", 0, "consecutive identical proposals before a break action is substituted")
	runCmd.Flags().Duration("delay", 0, "fixed delay between actions (ignored when adaptive delays are on)")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read tasks from stdin until exit")

	return runCmd
}

// buildController wires the loop's ports from the resolved config.
func buildController(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*taskloop.Controller, error) {
	device := adb.NewClient(cfg.Device, logger)
	if err := resolveSerial(ctx, device, cfg, logger); err != nil {
		return nil, err
	}

	llm, err := llmclient.NewClient(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	provider := screen.NewHierarchyProvider(device, cfg.Device.CaptureInterval, logger)
	plnr := planner.NewLLMPlanner(llm, logger)
	exec := executor.NewADBExecutor(device, logger)

	return taskloop.NewController(provider, plnr, exec, cfg.Agent, logger), nil
}

// resolveSerial fills in the device serial from the connected-device list
// when none is configured.
func resolveSerial(ctx context.Context, client *adb.Client, cfg *config.Config, logger *zap.Logger) error {
	devices, err := client.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices (is adb on PATH?): %w", err)
	}

	if cfg.Device.Serial != "" {
		for _, d := range devices {
			if d.Serial == cfg.Device.Serial && d.State == "device" {
				return nil
			}
		}
		return fmt.Errorf("device %q is not connected", cfg.Device.Serial)
	}

	for _, d := range devices {
		if d.State == "device" {
			cfg.Device.Serial = d.Serial
			logger.Info("Using first connected device", zap.String("serial", d.Serial))
			client.SetSerial(d.Serial)
			return nil
		}
	}
	return fmt.Errorf("no connected devices found")
}

// runOnce executes one task and reports the result. An aborted run is a
// command failure.
func runOnce(ctx context.Context, cmd *cobra.Command, ctrl *taskloop.Controller, task string) error {
	runID := uuid.New().String()
	observability.GetLogger().Info("Accepted task",
		zap.String("run_id", runID),
		zap.String("task", task))

	result := ctrl.RunTask(ctx, task)
	printResult(cmd, result)

	if result.Status == schemas.StatusAborted {
		return fmt.Errorf("run %s aborted: %s", runID, result.Summary)
	}
	return nil
}

// interactiveSession reads tasks from stdin until exit/quit or EOF.
func interactiveSession(ctx context.Context, cmd *cobra.Command, ctrl *taskloop.Controller) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	cmd.Println("Enter a task (or 'exit' to quit):")
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		task := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(task) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		result := ctrl.RunTask(ctx, task)
		printResult(cmd, result)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func printResult(cmd *cobra.Command, result schemas.RunResult) {
	cmd.Printf("status:   %s\n", result.Status)
	cmd.Printf("summary:  %s\n", result.Summary)
	cmd.Printf("steps:    %d (%s)\n", result.Steps, result.Duration.Round(10*time.Millisecond))
	for _, line := range result.StepLog {
		cmd.Printf("  - %s\n", line)
	}
}
