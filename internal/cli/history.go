package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/terra-clan/circular-readiness/internal/assessment"
	"github.com/terra-clan/circular-readiness/internal/models"
)

func cmdHistory(g *globalFlags) *cli.Command {
	var (
		filters models.ListFilters
		limit   int64
		format  string
		details bool
	)

	return &cli.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "Print the comparison table of saved assessments",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "product", Usage: "Only this product", Destination: &filters.Product},
			&cli.StringFlag{Name: "company", Usage: "Only this company", Destination: &filters.Company},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of assessments", Destination: &limit},
			&cli.StringFlag{Name: "format", Usage: "Output format (table, json)", Value: "table", Destination: &format},
			&cli.BoolFlag{Name: "details", Usage: "List every answered question instead of the comparison", Destination: &details},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			filters.Limit = int(limit)

			loader, err := loadCatalog(cfg.Catalog.Dir)
			if err != nil {
				return err
			}

			repo, err := openRepository(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer repo.Close()

			snapshots, err := repo.ListSnapshots(ctx, filters)
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}

			out := c.Root().Writer
			cat := loader.Catalog()

			if details {
				rows := assessment.BuildDetails(cat, snapshots)
				if format == "json" {
					return writeJSON(out, rows)
				}
				return printDetails(out, rows)
			}

			cmp := assessment.BuildComparison(cat, snapshots)
			if format == "json" {
				return writeJSON(out, cmp)
			}
			return printComparison(out, cmp)
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printComparison(w io.Writer, cmp assessment.Comparison) error {
	if len(cmp.Rows) == 0 {
		fmt.Fprintln(w, "no saved assessments")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "TIMESTAMP\tPRODUCT\tCOMPANY")
	for _, theme := range cmp.Themes {
		fmt.Fprintf(tw, "\t%s", theme)
	}
	fmt.Fprintln(tw, "\tOVERALL\tMATURITY")

	for _, row := range cmp.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s", row.Timestamp.Format("2006-01-02 15:04"), row.Product, row.Company)
		for _, theme := range cmp.Themes {
			fmt.Fprintf(tw, "\t%.2f", row.ThemeScores[theme])
		}
		fmt.Fprintf(tw, "\t%.2f\t%s\n", row.OverallScaled, row.Maturity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if cmp.Summary.AverageScaled != nil {
		fmt.Fprintf(w, "\n%d assessments, average %.2f\n", cmp.Summary.Count, *cmp.Summary.AverageScaled)
	}
	return nil
}

func printDetails(w io.Writer, rows []assessment.DetailRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tPRODUCT\tTHEME\tINDICATOR\tCODE\tSCORE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.Product, r.Theme, r.Indicator, r.Code, r.Score)
	}
	return tw.Flush()
}
