package excel

// ExcelConfig holds spreadsheet import and export settings
type ExcelConfig struct {
	// Sheet read from workbooks; empty means the first sheet
	Sheet string `json:"sheet"`
	// ExportDir is where exported workbooks are written
	ExportDir string `json:"export_dir"`
	// DataPath locates the record array inside JSON files (gjson syntax); empty means the document root
	DataPath string `json:"data_path"`
	// SkipBlank drops empty cells instead of failing when reading numeric columns
	SkipBlank bool `json:"skip_blank"`
}

// DefaultExcelConfig returns sensible defaults for spreadsheet processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		ExportDir: "./exports",
		SkipBlank: true,
	}
}
