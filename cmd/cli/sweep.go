package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gopower/app"
	"gopower/domain/power"
	"gopower/ports"
)

func newSweepCmd() *cobra.Command {
	var params paramFlags
	var design, outcome, export, file string
	var alphas, powers, diffs []float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Tabulate sample sizes over a grid of alphas, powers and differences",
		Long: `Evaluate one calculator over every combination of the given alphas, powers and
mean differences. An axis left empty uses the single value from the parameter flags.

The grid can also come from a YAML or JSON file using the API field names;
flags given on the command line override the file.

Example: gopower sweep --design two-sample --sd 1 --powers 0.8,0.9 --diffs 0.2,0.5 --export sweep.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.SweepRequest{Design: "two-sample", Outcome: "continuous"}
			if file != "" {
				loaded, err := loadSweepFile(file)
				if err != nil {
					return err
				}
				req = *loaded
			}
			overrideSweep(cmd, &req, params.input(cmd), design, outcome, alphas, powers, diffs)
			return runSweep(cmd.Context(), cmd.OutOrStdout(), req, export, asJSON)
		},
	}

	params.register(cmd)
	cmd.Flags().StringVar(&design, "design", "two-sample", "Design: one-sample|two-sample|matched")
	cmd.Flags().StringVar(&outcome, "outcome", "continuous", "Outcome: continuous|dichotomous")
	cmd.Flags().Float64SliceVar(&alphas, "alphas", nil, "Significance levels to sweep")
	cmd.Flags().Float64SliceVar(&powers, "powers", nil, "Powers to sweep")
	cmd.Flags().Float64SliceVar(&diffs, "diffs", nil, "Mean differences to sweep")
	cmd.Flags().StringVar(&export, "export", "", "Also write the grid to this workbook in EXPORT_DIR")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the sweep request from a .yaml or .json file")
	return cmd
}

// loadSweepFile decodes YAML by way of JSON so the request's JSON field names and
// optional-value handling apply to both formats.
func loadSweepFile(path string) (*app.SweepRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep file: %w", err)
	}

	body := raw
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if body, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", path, err)
		}
	}

	var req app.SweepRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to decode sweep request: %w", err)
	}
	return &req, nil
}

func overrideSweep(cmd *cobra.Command, req *app.SweepRequest, base app.ParameterInput, design, outcome string, alphas, powers, diffs []float64) {
	flags := cmd.Flags()
	if flags.Changed("design") || req.Design == "" {
		req.Design = design
	}
	if flags.Changed("outcome") || req.Outcome == "" {
		req.Outcome = outcome
	}
	if flags.Changed("alphas") {
		req.Alphas = alphas
	}
	if flags.Changed("powers") {
		req.Powers = powers
	}
	if flags.Changed("diffs") {
		req.Differences = diffs
	}
	for _, f := range []struct {
		name string
		dst  *power.Optional
		src  power.Optional
	}{
		{"baseline", &req.Base.BaselineMean, base.BaselineMean},
		{"target", &req.Base.TargetMean, base.TargetMean},
		{"diff", &req.Base.MeanDifference, base.MeanDifference},
		{"sd", &req.Base.StandardDeviation, base.StandardDeviation},
		{"alpha", &req.Base.Alpha, base.Alpha},
		{"power", &req.Base.Power, base.Power},
	} {
		if flags.Changed(f.name) {
			*f.dst = f.src
		}
	}
}

func runSweep(ctx context.Context, out io.Writer, req app.SweepRequest, export string, asJSON bool) error {
	c, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	result, err := c.SweepService.Run(ctx, req)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ALPHA\tPOWER\tDIFF\tEFFECT\tN\tPER GROUP\tTOTAL")
		for _, r := range result.Rows {
			fmt.Fprintf(tw, "%g\t%g\t%g\t%.4f\t%.2f\t%d\t%d\n",
				r.Alpha, r.Power, r.MeanDifference, r.EffectSize, r.SampleSize, r.PerGroup, r.Total)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if export != "" {
		path, err := c.Exporter.SaveSweep(export, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Inspect stored plans",
	}

	var design, outcome, export string
	var limit int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListPlans(cmd.Context(), cmd.OutOrStdout(), design, outcome, limit, export)
		},
	}
	listCmd.Flags().StringVar(&design, "design", "", "Only plans with this design")
	listCmd.Flags().StringVar(&outcome, "outcome", "", "Only plans with this outcome")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of plans")
	listCmd.Flags().StringVar(&export, "export", "", "Also write the plans to this workbook in EXPORT_DIR")

	deleteCmd := &cobra.Command{
		Use:   "delete [plan-id]",
		Short: "Delete a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			return c.PlanService.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(listCmd, deleteCmd)
	return cmd
}

func runListPlans(ctx context.Context, out io.Writer, design, outcome string, limit int, export string) error {
	c, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	filter, err := planFilter(design, outcome, limit)
	if err != nil {
		return err
	}
	plans, err := c.PlanService.List(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESIGN\tOUTCOME\tPER GROUP\tTOTAL\tCREATED")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			p.ID, p.Name, p.Design, p.Outcome, p.PerGroup, p.Total, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if export != "" {
		path, err := c.Exporter.SavePlans(export, plans)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}

func planFilter(design, outcome string, limit int) (ports.PlanFilter, error) {
	filter := ports.PlanFilter{Limit: limit}
	if design != "" {
		d, err := power.ParseDesign(design)
		if err != nil {
			return filter, err
		}
		filter.Design = d
	}
	if outcome != "" {
		o, err := power.ParseOutcome(outcome)
		if err != nil {
			return filter, err
		}
		filter.Outcome = o
	}
	return filter, nil
}
