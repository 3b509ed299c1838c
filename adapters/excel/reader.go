package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopower/internal"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel, CSV and JSON files
type DataReader struct {
	filePath string
	fileType string // "xlsx", "csv" or "json"
	config   ExcelConfig
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, config ExcelConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	switch ext {
	case ".csv":
		fileType = "csv"
	case ".json":
		fileType = "json"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		config:   config,
		logger:   internal.DefaultLogger.With("excel"),
	}
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	case "json":
		return r.readJSONData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// ReadColumn returns the numeric values of one column
func (r *DataReader) ReadColumn(name string) ([]float64, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return data.Column(name, r.config.SkipBlank)
}

// Column parses the named column as floats. Blank cells are skipped when skipBlank is set.
func (d *ExcelData) Column(name string, skipBlank bool) ([]float64, error) {
	if !d.HasColumn(name) {
		return nil, fmt.Errorf("column %q not found (have %s)", name, strings.Join(d.Headers, ", "))
	}

	values := make([]float64, 0, len(d.Rows))
	for i, row := range d.Rows {
		cell := row[name]
		if cell == "" {
			if skipBlank {
				continue
			}
			return nil, fmt.Errorf("column %q row %d is blank", name, i+2)
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %q is not numeric", name, i+2, cell)
		}
		values = append(values, v)
	}
	return values, nil
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.logger.Debug("sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readJSONData reads an array of flat objects found at config.DataPath
func (r *DataReader) readJSONData() (*ExcelData, error) {
	body, err := os.ReadFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("JSON file %s is not valid JSON", r.filePath)
	}

	data := gjson.ParseBytes(body)
	if r.config.DataPath != "" {
		data = gjson.GetBytes(body, r.config.DataPath)
		if !data.Exists() {
			return nil, fmt.Errorf("data path '%s' not found in %s", r.config.DataPath, r.filePath)
		}
	}
	if !data.IsArray() {
		return nil, fmt.Errorf("JSON data must be an array of objects")
	}

	records := data.Array()
	if len(records) == 0 {
		return nil, fmt.Errorf("JSON file must have at least one record")
	}

	// header order follows the first record; later keys are appended as seen
	var headers []string
	seen := make(map[string]bool)
	rows := make([]RawRowData, 0, len(records))
	for _, rec := range records {
		if !rec.IsObject() {
			return nil, fmt.Errorf("JSON data must be an array of objects")
		}
		row := make(RawRowData)
		rec.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
			row[k] = jsonCell(value)
			return true
		})
		rows = append(rows, row)
	}

	r.logger.Debug("JSON file processed (%d columns, %d rows)", len(headers), len(rows))
	return &ExcelData{Headers: headers, Rows: rows}, nil
}

func jsonCell(v gjson.Result) string {
	switch v.Type {
	case gjson.True:
		return "1"
	case gjson.False:
		return "0"
	case gjson.Null:
		return ""
	}
	return strings.TrimSpace(v.String())
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData)
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%s file processed (%d columns, %d rows)", strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}
