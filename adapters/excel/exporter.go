package excel

import (
	"fmt"
	"os"
	"path/filepath"

	"gopower/app"
	"gopower/domain/power"
	"gopower/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	plansSheet = "Plans"
	sweepSheet = "Sweep"
)

var planHeaders = []string{
	"ID", "Name", "Design", "Outcome", "Baseline", "Target", "Difference", "Std Dev",
	"Alpha", "Power", "Effect Size", "n (unrounded)", "Per Group", "Groups", "Total", "Created",
}

var sweepHeaders = []string{
	"Alpha", "Power", "Difference", "Effect Size", "n (unrounded)", "Per Group", "Total",
}

// PlanExporter writes plans and sweeps to xlsx workbooks
type PlanExporter struct {
	config ExcelConfig
}

// NewPlanExporter creates an exporter writing into config.ExportDir
func NewPlanExporter(config ExcelConfig) *PlanExporter {
	return &PlanExporter{config: config}
}

// PlansWorkbook builds a workbook with one row per plan
func (e *PlanExporter) PlansWorkbook(plans []*power.Plan) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), plansSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRow(f, plansSheet, 1, toCells(planHeaders)); err != nil {
		f.Close()
		return nil, err
	}

	for i, plan := range plans {
		p := plan.Parameters
		row := []interface{}{
			plan.ID.String(), plan.Name, string(plan.Design), string(plan.Outcome),
			optionalCell(p.BaselineMean), optionalCell(p.TargetMean), optionalCell(p.MeanDifference), optionalCell(p.StandardDeviation),
			p.Alpha, p.Power, plan.EffectSize, plan.SampleSize, plan.PerGroup, plan.Groups, plan.Total,
			plan.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, plansSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// SweepWorkbook builds a workbook with one row per sweep cell
func (e *PlanExporter) SweepWorkbook(result *app.SweepResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sweepSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRow(f, sweepSheet, 1, toCells(sweepHeaders)); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range result.Rows {
		row := []interface{}{r.Alpha, r.Power, r.MeanDifference, r.EffectSize, r.SampleSize, r.PerGroup, r.Total}
		if err := writeRow(f, sweepSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// SavePlans writes the plans workbook to ExportDir/name and returns the path
func (e *PlanExporter) SavePlans(name string, plans []*power.Plan) (string, error) {
	f, err := e.PlansWorkbook(plans)
	if err != nil {
		return "", errors.ExportFailed("xlsx", err)
	}
	return e.save(f, name)
}

// SaveSweep writes the sweep workbook to ExportDir/name and returns the path
func (e *PlanExporter) SaveSweep(name string, result *app.SweepResult) (string, error) {
	f, err := e.SweepWorkbook(result)
	if err != nil {
		return "", errors.ExportFailed("xlsx", err)
	}
	return e.save(f, name)
}

func (e *PlanExporter) save(f *excelize.File, name string) (string, error) {
	defer f.Close()

	if err := os.MkdirAll(e.config.ExportDir, 0755); err != nil {
		return "", errors.ExportFailed("xlsx", err)
	}
	path := filepath.Join(e.config.ExportDir, filepath.Base(name))
	if err := f.SaveAs(path); err != nil {
		return "", errors.ExportFailed("xlsx", err)
	}
	return path, nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func toCells(headers []string) []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

func optionalCell(o power.Optional) interface{} {
	if v, ok := o.Get(); ok {
		return v
	}
	return ""
}
