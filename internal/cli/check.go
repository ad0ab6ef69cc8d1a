package cli

import (
	"fmt"

	"github.com/limaJavier/csptimetabling/pkg/model"
	"github.com/spf13/cobra"
)

func newCheckCmd(app *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a schedule description without searching",
		Long:  "Validate a schedule description, print variable and domain statistics and list every session that has no candidate placement. Exits with 20 when a matching argument already proves there is no timetable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.setup(cmd, map[string]string{}); err != nil {
				return err
			}

			modelInput, err := model.InputFromFile(file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			domainModel := model.BuildDomainModel(modelInput)
			total, smallest, largest := domainModel.DomainSizes()
			fmt.Fprintf(out, "time slots: %d, subjects: %d, groups: %d, lecturers: %d, halls: %d\n",
				len(modelInput.TimeSlots), len(modelInput.Subjects), len(modelInput.Groups), len(modelInput.Lecturers), len(modelInput.Halls))
			fmt.Fprintf(out, "variables: %d, candidate values: %d (smallest domain %d, largest %d)\n",
				len(domainModel.Variables), total, smallest, largest)

			if err := domainModel.Validate(); err != nil {
				return err
			}

			diagnosis, err := model.Diagnose(domainModel)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "lecturer-slot matching: %d/%d\n", diagnosis.Matched, diagnosis.Variables)
			if diagnosis.Infeasible() {
				for _, variable := range diagnosis.Unmatched {
					fmt.Fprintf(out, "\tno lecturer slot left for %v\n", variable)
				}
				return &ExitError{Code: ExitNoSolution, Err: fmt.Errorf("no timetable exists: %d session(s) cannot get a lecturer slot", len(diagnosis.Unmatched))}
			}

			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "schedule description (.yaml, .yml, .json or .toml)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
