package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/terra-clan/circular-readiness/internal/catalog"
	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
)

func cmdValidate() *cli.Command {
	var answersFile string

	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Load and validate a catalog directory and print its summary",
		ArgsUsage: "[catalog-dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "answers",
				Usage:       "Also validate a JSON answers file (theme -> indicator -> code -> score) and print its scores",
				Destination: &answersFile,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			loader, err := loadCatalog(c.Args().First())
			if err != nil {
				return err
			}
			cat := loader.Catalog()
			out := c.Root().Writer

			fmt.Fprintf(out, "catalog %q version %s: %d themes, %d questions\n",
				cat.Name, cat.Version, len(cat.Themes), cat.QuestionCount())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTHEME\tWEIGHT\tINDICATORS\tQUESTIONS")
			for _, t := range cat.Themes {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%d\n", t.ID, t.Name, t.DefaultWeight, len(t.Indicators), t.QuestionCount())
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, lvl := range loader.Levels() {
				fmt.Fprintf(out, "level %-12s [%.2f, %.2f)\n", lvl.Name, lvl.MinScore, lvl.MaxScore)
			}

			if answersFile == "" {
				return nil
			}
			return validateAnswersFile(cat, answersFile, out)
		},
	}
}

func validateAnswersFile(cat *models.Catalog, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read answers: %w", err)
	}

	var answers models.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return fmt.Errorf("failed to parse answers: %w", err)
	}
	if err := catalog.ValidateAnswers(cat, answers); err != nil {
		return err
	}

	res := scoring.Evaluate(cat, answers, cat.DefaultWeights())
	fmt.Fprintf(out, "answers: %d of %d questions, overall %.2f / %.0f (%s)\n",
		res.Progress.Answered, res.Progress.Total, res.OverallScaled, scoring.DisplayScale, res.Maturity.Name)
	return nil
}
