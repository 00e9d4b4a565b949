package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mlstudy/adapters/ingest"
	"mlstudy/app/study"
	"mlstudy/domain/core"
	"mlstudy/domain/dataset"
	"mlstudy/domain/hooks"
	"mlstudy/internal"
	"mlstudy/internal/config"
	"mlstudy/internal/metrics"
	"mlstudy/internal/model"
)

func main() {
	// Optional .env for LOG_LEVEL and friends; absence is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "study",
		Short: "Configuration-driven runner for supervised ML studies",
	}
	rootCmd.AddCommand(
		newRunCmd(),
		newDescribeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

// errorHint classifies common failure classes into an actionable follow-up
// line. Registry misses list what is actually registered; capability
// failures point at pipeline ordering.
func errorHint(err error) string {
	switch {
	case core.IsRegistryError(err):
		return fmt.Sprintf("registered hooks: %s\nregistered formats: %s\nregistered models: %s\nregistered metrics: %s",
			strings.Join(hooks.Registered(), ", "),
			strings.Join(ingest.Registered(), ", "),
			strings.Join(model.Registered(), ", "),
			strings.Join(metrics.Registered(), ", "))
	case core.IsCapabilityError(err):
		return "hint: a hook was applied to a container that cannot support it; check the pipeline order and whether an earlier hook reduced the data to a single feature"
	default:
		return ""
	}
}

func newRunCmd() *cobra.Command {
	var dataPath, modelPath, studyPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a study: replicated, hyperparameter-tuned model training",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.DefaultLogger
			if debug {
				logger = logger.WithLevel(internal.LogLevelDebug)
			}

			dataCfg, err := config.LoadDataConfig(dataPath, logger)
			if err != nil {
				return err
			}
			modelCfg, err := config.LoadModelConfig(modelPath, logger)
			if err != nil {
				return err
			}
			studyCfg, err := config.LoadStudyConfig(studyPath, logger)
			if err != nil {
				return err
			}

			manager, err := study.NewManager(dataCfg, modelCfg, studyCfg, debug)
			if err != nil {
				return err
			}
			if err := manager.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("results written to %s (table %s, run %s)\n",
				studyCfg.OutputPath, manager.Label().TableName(), manager.RunID())
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "path to the data configuration JSON")
	cmd.Flags().StringVar(&modelPath, "model", "", "path to the model configuration JSON")
	cmd.Flags().StringVar(&studyPath, "study", "", "path to the study configuration JSON")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("study")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	var dataPath string
	var raw bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Summarize a configured dataset feature by feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.DefaultLogger
			dataCfg, err := config.LoadDataConfig(dataPath, logger)
			if err != nil {
				return err
			}
			table, err := dataCfg.LoadTable()
			if err != nil {
				return err
			}
			if !raw {
				pipeline, err := dataCfg.Pipeline()
				if err != nil {
					return err
				}
				processed, err := pipeline.Run(table, nil)
				if err != nil {
					return err
				}
				// Multi-feature hooks always return tables.
				if t, ok := processed.(*dataset.Table); ok {
					table = t
				}
			}

			fmt.Printf("dataset %q (%s): %d samples\n", dataCfg.Label, dataCfg.Format, table.Len())
			fmt.Printf("%-20s %8s %8s %12s %12s %12s %12s\n",
				"feature", "count", "nulls", "mean", "std", "min", "max")
			for _, s := range table.Describe() {
				fmt.Printf("%-20s %8d %8d %12.4f %12.4f %12.4f %12.4f\n",
					s.Name, s.Count, s.NullCount, s.Mean, s.StdDev, s.Min, s.Max)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "path to the data configuration JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "describe the raw dataset without pre-analysis hooks")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
