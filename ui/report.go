package ui

import (
	"fmt"
	"strings"

	"gopower/app"
	"gopower/domain/its"
	"gopower/domain/power"
)

// PlanMarkdown writes a one-page summary of a plan
func PlanMarkdown(plan *power.Plan) string {
	var b strings.Builder

	title := plan.Name
	if title == "" {
		title = "Sample size plan"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	fmt.Fprintf(&b, "**%s** design, **%s** outcome. Created %s.\n\n",
		plan.Design, plan.Outcome, plan.CreatedAt.Format("2006-01-02 15:04 MST"))

	fmt.Fprintf(&b, "## Result\n\n")
	if plan.Groups > 1 {
		fmt.Fprintf(&b, "Enroll **%d** units per group, **%d** in total across %d groups.\n\n", plan.PerGroup, plan.Total, plan.Groups)
	} else if plan.Design == power.DesignMatched {
		fmt.Fprintf(&b, "Enroll **%d** matched pairs.\n\n", plan.PerGroup)
	} else {
		fmt.Fprintf(&b, "Enroll **%d** units.\n\n", plan.PerGroup)
	}

	fmt.Fprintf(&b, "| Quantity | Value |\n|---|---|\n")
	row := func(name, value string) { fmt.Fprintf(&b, "| %s | %s |\n", name, value) }
	p := plan.Parameters
	row("Baseline mean", p.BaselineMean.String())
	row("Target mean", p.TargetMean.String())
	row("Mean difference", p.MeanDifference.String())
	row("Standard deviation", p.StandardDeviation.String())
	row("Alpha", fmt.Sprintf("%g", p.Alpha))
	row("Power", fmt.Sprintf("%g", p.Power))
	row("z (1 - alpha/2)", fmt.Sprintf("%.6f", plan.ZAlpha))
	row("z (power)", fmt.Sprintf("%.6f", plan.ZPower))
	row("Effect size", fmt.Sprintf("%.6f", plan.EffectSize))
	row("Unrounded size", fmt.Sprintf("%.4f", plan.SampleSize))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Plan `%s`, fingerprint `%s`.\n", plan.ID, plan.Fingerprint.Short())
	return b.String()
}

// PlanIndexMarkdown lists plans with links to their reports
func PlanIndexMarkdown(plans []*power.Plan, base string) string {
	var b strings.Builder
	b.WriteString("# Sample size plans\n\n")
	if len(plans) == 0 {
		b.WriteString("No plans yet.\n")
		return b.String()
	}

	b.WriteString("| Plan | Design | Outcome | Per group | Total |\n|---|---|---|---|---|\n")
	for _, plan := range plans {
		name := plan.Name
		if name == "" {
			name = plan.ID.String()
		}
		fmt.Fprintf(&b, "| [%s](%s/%s) | %s | %s | %d | %d |\n",
			escape(name), base, plan.ID, plan.Design, plan.Outcome, plan.PerGroup, plan.Total)
	}
	return b.String()
}

// SweepMarkdown tabulates a sensitivity sweep
func SweepMarkdown(result *app.SweepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sensitivity sweep\n\n**%s** design, **%s** outcome, %d cells.\n\n",
		result.Design, result.Outcome, len(result.Rows))

	b.WriteString("| Alpha | Power | Difference | Effect size | Per group | Total |\n|---|---|---|---|---|---|\n")
	for _, r := range result.Rows {
		fmt.Fprintf(&b, "| %g | %g | %g | %.4f | %d | %d |\n",
			r.Alpha, r.Power, r.MeanDifference, r.EffectSize, r.PerGroup, r.Total)
	}
	return b.String()
}

// ITSMarkdown tabulates the post-intervention effects of an ITS summary
func ITSMarkdown(summary *its.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Interrupted time series\n\nIntervention at t = %g. ", summary.InterventionTime)
	fmt.Fprintf(&b, "Mean lift **%.4f**, cumulative lift **%.4f**, %d of %d periods outside the counterfactual band.\n\n",
		summary.MeanLift, summary.CumulativeLift, summary.PeriodsOutside, len(summary.Effects))

	b.WriteString("| t | Actual | Counterfactual | Lift | Outside band |\n|---|---|---|---|---|\n")
	for _, e := range summary.Effects {
		outside := ""
		if e.Outside {
			outside = "yes"
		}
		fmt.Fprintf(&b, "| %g | %.4f | %.4f | %.4f | %s |\n", e.T, e.Actual, e.Counterfactual, e.Lift, outside)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`", "#", `\#`, "<", "&lt;")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
