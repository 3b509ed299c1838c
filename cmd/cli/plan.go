package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gopower/adapters/excel"
	"gopower/app"
	"gopower/domain/power"
	"gopower/internal/config"
	"gopower/internal/container"
	"gopower/internal/pilot"
)

// paramFlags binds the optional test parameters. Unset flags stay absent.
type paramFlags struct {
	baseline, target, diff, sd, alpha, pow float64
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.baseline, "baseline", 0, "Baseline mean (p1 for dichotomous outcomes)")
	cmd.Flags().Float64Var(&f.target, "target", 0, "Target mean")
	cmd.Flags().Float64Var(&f.diff, "diff", 0, "Mean difference; overrides target - baseline")
	cmd.Flags().Float64Var(&f.sd, "sd", 0, "Standard deviation (continuous outcomes)")
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0, "Significance level (default from DEFAULT_ALPHA)")
	cmd.Flags().Float64Var(&f.pow, "power", 0, "Statistical power (default from DEFAULT_POWER)")
}

func (f *paramFlags) input(cmd *cobra.Command) app.ParameterInput {
	opt := func(name string, v float64) power.Optional {
		if cmd.Flags().Changed(name) {
			return power.Some(v)
		}
		return power.None()
	}
	return app.ParameterInput{
		BaselineMean:      opt("baseline", f.baseline),
		TargetMean:        opt("target", f.target),
		MeanDifference:    opt("diff", f.diff),
		StandardDeviation: opt("sd", f.sd),
		Alpha:             opt("alpha", f.alpha),
		Power:             opt("power", f.pow),
	}
}

func loadContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(ctx, cfg)
}

func newPlanCmd() *cobra.Command {
	var params paramFlags
	var design, outcome, name, pilotFile, column, dataPath string
	var save, asJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the required sample size for one experiment",
		Long: `Compute the required sample size for one design and outcome.

Pilot data can fill the baseline mean and standard deviation from a column of
an .xlsx, .csv or .json file.

Example: gopower plan --design two-sample --outcome continuous --baseline 0 --target 0.5 --sd 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.PlanRequest{
				ParameterInput: params.input(cmd),
				Name:           name,
				Design:         design,
				Outcome:        outcome,
			}
			if pilotFile != "" {
				values, err := readPilotColumn(pilotFile, column, dataPath)
				if err != nil {
					return err
				}
				req.Pilot = values
			}
			return runPlan(cmd.Context(), cmd.OutOrStdout(), req, save, asJSON)
		},
	}

	params.register(cmd)
	cmd.Flags().StringVar(&design, "design", "two-sample", "Design: one-sample|two-sample|matched")
	cmd.Flags().StringVar(&outcome, "outcome", "continuous", "Outcome: continuous|dichotomous")
	cmd.Flags().StringVar(&name, "name", "", "Plan name")
	cmd.Flags().StringVar(&pilotFile, "pilot", "", "Pilot data file (.xlsx, .csv or .json)")
	cmd.Flags().StringVar(&column, "column", "", "Column of the pilot file to estimate from")
	cmd.Flags().StringVar(&dataPath, "data-path", "", "Path to the record array inside a JSON pilot file")
	cmd.Flags().BoolVar(&save, "save", false, "Store the plan (postgres when DATABASE_URL is set)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	return cmd
}

func runPlan(ctx context.Context, out io.Writer, req app.PlanRequest, save, asJSON bool) error {
	c, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	var plan *power.Plan
	if save {
		plan, err = c.PlanService.Create(ctx, req)
	} else {
		plan, err = c.PlanService.Compute(req)
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	printPlan(out, plan)
	return nil
}

func printPlan(out io.Writer, plan *power.Plan) {
	p := plan.Parameters
	fmt.Fprintf(out, "%s %s\n", plan.Design, plan.Outcome)
	fmt.Fprintf(out, "  difference    %s\n", p.MeanDifference)
	fmt.Fprintf(out, "  std deviation %s\n", p.StandardDeviation)
	fmt.Fprintf(out, "  alpha         %g (z=%.4f)\n", p.Alpha, plan.ZAlpha)
	fmt.Fprintf(out, "  power         %g (z=%.4f)\n", p.Power, plan.ZPower)
	fmt.Fprintf(out, "  effect size   %.4f\n", plan.EffectSize)
	fmt.Fprintf(out, "  sample size   %.4f\n", plan.SampleSize)
	fmt.Fprintf(out, "  per group     %d\n", plan.PerGroup)
	fmt.Fprintf(out, "  total         %d\n", plan.Total)
}

func readPilotColumn(path, column, dataPath string) ([]float64, error) {
	if column == "" {
		return nil, fmt.Errorf("--column is required with --pilot")
	}
	cfg := excel.DefaultExcelConfig()
	cfg.DataPath = dataPath
	return excel.NewDataReader(path, cfg).ReadColumn(column)
}

func newPilotCmd() *cobra.Command {
	var column, outcome, dataPath string

	cmd := &cobra.Command{
		Use:   "pilot [data-file]",
		Short: "Estimate planning inputs from pilot data",
		Long: `Summarize one column of an .xlsx, .csv or .json file.

Continuous columns yield the mean and sample standard deviation; dichotomous
columns must hold 0/1 values and yield the baseline proportion.

Example: gopower pilot pilot.csv --column revenue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readPilotColumn(args[0], column, dataPath)
			if err != nil {
				return err
			}
			return runPilot(cmd.OutOrStdout(), values, outcome)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column to estimate from")
	cmd.Flags().StringVar(&outcome, "outcome", "continuous", "Outcome: continuous|dichotomous")
	cmd.Flags().StringVar(&dataPath, "data-path", "", "Path to the record array inside a JSON file, e.g. data.rows")
	return cmd
}

func runPilot(out io.Writer, values []float64, outcome string) error {
	kind, err := power.ParseOutcome(outcome)
	if err != nil {
		return err
	}

	if kind == power.OutcomeDichotomous {
		s, err := pilot.EstimateProportion(values)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "n=%d successes=%d proportion=%.6f dropped=%d\n", s.N, s.Successes, s.Proportion, s.Dropped)
		fmt.Fprintf(out, "--baseline %g\n", s.Proportion)
		return nil
	}

	s, err := pilot.Estimate(values)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "n=%d mean=%.6f sd=%.6f median=%.6f min=%g max=%g dropped=%d\n",
		s.N, s.Mean, s.StdDev, s.Median, s.Min, s.Max, s.Dropped)
	fmt.Fprintf(out, "--baseline %g --sd %g\n", s.Mean, s.StdDev)
	return nil
}
