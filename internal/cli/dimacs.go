package cli

import (
	"fmt"
	"io"

	"github.com/limaJavier/csptimetabling/internal/config"
	"github.com/limaJavier/csptimetabling/pkg/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDimacsCmd(app *app) *cobra.Command {
	var file, out string

	cmd := &cobra.Command{
		Use:   "dimacs",
		Short: "Export the SAT encoding in DIMACS CNF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.setup(cmd, map[string]string{config.KeyMaxDailySessions: "max-daily"}); err != nil {
				return err
			}

			modelInput, err := model.InputFromFile(file)
			if err != nil {
				return err
			}

			domainModel := model.BuildDomainModel(modelInput)
			if err := domainModel.Validate(); err != nil {
				return err
			}

			satInstance := model.EncodeSat(domainModel, app.config.Search.MaxDailySessions)
			app.logger.Info("sat instance built", zap.Uint64("variables", satInstance.Variables), zap.Int("clauses", len(satInstance.Clauses)))

			return writeOutput(cmd, out, func(w io.Writer) error {
				return satInstance.WriteDIMACS(w,
					fmt.Sprintf("timetable encoding of %s", file),
					fmt.Sprintf("sessions: %d, max daily sessions: %d", len(domainModel.Variables), app.config.Search.MaxDailySessions),
				)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "", "schedule description (.yaml, .yml, .json or .toml)")
	flags.StringVarP(&out, "out", "o", "", "write the CNF to this file instead of stdout")
	flags.Int("max-daily", model.DefaultMaxDailySessions, "sessions a lecturer may teach per day")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
