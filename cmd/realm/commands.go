package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/hundred-acre-realm/internal/game"
	"github.com/user/hundred-acre-realm/internal/index"
	"github.com/user/hundred-acre-realm/internal/report"
	"github.com/user/hundred-acre-realm/internal/scoring"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

var stageGroup = &cobra.Group{
	ID:    "stage",
	Title: "Pipeline stages",
}

var batchGroup = &cobra.Group{
	ID:    "batch",
	Title: "Whole sessions",
}

var stageDescriptions = map[string]string{
	game.StageExtract:   "Unpack the game XML and the action log of a session",
	game.StageParse:     "Parse the action log into the session record",
	game.StageInventory: "Classify every played character's holdings",
	game.StageScore:     "Compute final victory-point scores",
	game.StageMap:       "Build the tile layout and per-day map state",
	game.StageTitle:     "Generate the session title",
}

// stageCommands returns one subcommand per pipeline stage
func stageCommands() []*cobra.Command {
	commands := make([]*cobra.Command, 0, len(game.Stages))
	for _, stage := range game.Stages {
		commands = append(commands, stageCommand(stage))
	}
	return commands
}

func stageCommand(stage string) *cobra.Command {
	var gamePath, logPath string

	cmd := &cobra.Command{
		Use:     stage + " <session>",
		GroupID: stageGroup.ID,
		Short:   stageDescriptions[stage],
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			session := args[0]
			if stage == game.StageExtract && (gamePath != "" || logPath != "") {
				if gamePath == "" || logPath == "" {
					return fmt.Errorf("--game and --log must be given together")
				}
				err = a.manager.Extract(session, gamePath, logPath)
			} else {
				err = a.manager.RunStage(cmd.Context(), session, stage)
			}
			if err != nil {
				a.logger.Error("Stage failed",
					zap.String("session", session),
					zap.String("stage", stage),
					zap.Error(err))
				return err
			}
			return nil
		},
	}

	if stage == game.StageExtract {
		cmd.Flags().StringVar(&gamePath, "game", "", "Game archive to extract instead of the uploaded one")
		cmd.Flags().StringVar(&logPath, "log", "", "Compressed log to extract instead of the uploaded one")
	}
	return cmd
}

var processCmd = &cobra.Command{
	Use:     "process <session>",
	GroupID: batchGroup.ID,
	Short:   "Run every stage for one session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		summary, err := a.manager.ProcessSession(cmd.Context(), args[0])
		fmt.Fprintln(cmd.OutOrStdout(), report.Batch([]types.SessionSummary{summary}))
		return err
	},
}

var processAllCmd = &cobra.Command{
	Use:     "process-all",
	GroupID: batchGroup.ID,
	Short:   "Run every stage for every uploaded session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		idx, err := index.Open(cmd.Context(), a.config.Database, a.logger)
		if err != nil {
			return err
		}
		defer idx.Close()
		a.manager.SetIndex(idx)

		result, err := a.manager.ProcessAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), report.Batch(result.Results))
		if err := result.Err(); err != nil {
			// Session failures are reported, not fatal
			a.logger.Warn("Some sessions failed", zap.Int("failed", len(result.Failed())))
		}
		return nil
	},
}

var scoresCmd = &cobra.Command{
	Use:     "scores <session>",
	GroupID: batchGroup.ID,
	Short:   "Print the final scores of a processed session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		var records map[string]scoring.Record
		if err := a.manager.Storage().LoadJSON(args[0], game.ArtifactScores, &records); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("session %s has no scores yet, run: realm score %s", args[0], args[0])
			}
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), report.Scores(records))
		return nil
	},
}
