// Package report serializes the pipeline results into a multi-sheet
// Excel workbook.
package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"agripulse/internal/analysis"
	"agripulse/internal/dataset"
	"agripulse/internal/errors"
	"agripulse/internal/resilience"
	"agripulse/internal/transform"
	"agripulse/internal/validation"
)

// maxSheetNameLen is the xlsx sheet name limit
const maxSheetNameLen = 31

// Input collects everything the workbook documents
type Input struct {
	Reports     map[dataset.SeriesKey]*validation.Report
	Transformed *transform.Result
	Scores      map[dataset.Region]resilience.Score
	Analysis    *analysis.Result
}

// Writer writes the results workbook
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a workbook writer
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Write builds the workbook and saves it at path
func (w *Writer) Write(path string, in *Input) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.NewReportError(path, err)
	}

	builders := []func(*excelize.File, int, *Input) error{
		w.writeExecutiveSummary,
		w.writeValidationSummary,
		w.writeMonthlySheets,
		w.writeSeasonalSheets,
		w.writeCropSheets,
		w.writeResilienceScores,
		w.writeIndicators,
		w.writeEconomicImpact,
		w.writeInfrastructureRisk,
		w.writeCropStress,
		w.writeRecommendations,
	}
	for _, build := range builders {
		if err := build(f, headerStyle, in); err != nil {
			return errors.NewReportError(path, err)
		}
	}

	// The default sheet is replaced by the first real one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.NewReportError(path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.NewReportError(path, err)
	}

	w.logger.Info("wrote workbook", "path", path, "sheets", len(f.GetSheetList()))
	return nil
}

// SheetName truncates a sheet name to the xlsx limit
func SheetName(name string) string {
	if len(name) > maxSheetNameLen {
		return name[:maxSheetNameLen]
	}
	return name
}

// writeSheet creates a sheet with a bold header row and data rows
func writeSheet(f *excelize.File, style int, name string, headers []string, rows [][]interface{}) error {
	name = SheetName(name)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header of %s: %w", name, err)
	}

	end, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", end, style); err != nil {
		return fmt.Errorf("style header of %s: %w", name, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+2, name, err)
		}
	}

	return nil
}

func (w *Writer) writeExecutiveSummary(f *excelize.File, style int, in *Input) error {
	headers := []string{"Region", "Resilience_Score", "Risk_Level", "Infrastructure_Risk", "Top_Strategy"}
	rows := make([][]interface{}, 0, len(dataset.Regions))

	for _, region := range dataset.Regions {
		score := in.Scores[region]
		topStrategy := ""
		if len(score.Strategies) > 0 {
			topStrategy = score.Strategies[0]
		}
		rows = append(rows, []interface{}{
			region.String(),
			score.Overall,
			riskLevel(score.Overall),
			in.Analysis.InfrastructureRisk[region],
			topStrategy,
		})
	}

	return writeSheet(f, style, "Executive_Summary", headers, rows)
}

// riskLevel maps a resilience score to a qualitative label
func riskLevel(score float64) string {
	switch {
	case score >= 60:
		return "Low"
	case score >= 30:
		return "Moderate"
	default:
		return "High"
	}
}

func (w *Writer) writeValidationSummary(f *excelize.File, style int, in *Input) error {
	headers := []string{"Dataset", "Records", "Date_Range", "Interpolated", "Missing_Values", "Date_Continuity", "Value_Range", "Data_Types", "Status"}
	rows := make([][]interface{}, 0, len(in.Reports))

	for _, region := range dataset.Regions {
		for _, measurement := range dataset.Measurements {
			report, ok := in.Reports[dataset.SeriesKey{Region: region, Measurement: measurement}]
			if !ok {
				continue
			}
			rows = append(rows, []interface{}{
				report.Dataset,
				report.TotalRecords,
				report.DateRange,
				report.Interpolated,
				passLabel(report.Checks.MissingValues.Passed),
				passLabel(report.Checks.DateContinuity.Passed),
				passLabel(report.Checks.ValueRange.Passed),
				passLabel(report.Checks.DataTypes.Passed),
				string(report.Status),
			})
		}
	}

	return writeSheet(f, style, "Validation_Summary", headers, rows)
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func (w *Writer) writeMonthlySheets(f *excelize.File, style int, in *Input) error {
	for _, region := range dataset.Regions {
		for _, measurement := range dataset.Measurements {
			key := dataset.SeriesKey{Region: region, Measurement: measurement}
			series := in.Transformed.Monthly[key]

			rows := make([][]interface{}, 0, len(series))
			for _, p := range series {
				rows = append(rows, []interface{}{p.Month.Format("2006-01-02"), p.Value})
			}

			name := "Monthly_" + key.String()
			if err := writeSheet(f, style, name, []string{"Month", "Mean"}, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeSeasonalSheets(f *excelize.File, style int, in *Input) error {
	for _, region := range dataset.Regions {
		for _, season := range dataset.Seasons {
			key := transform.SeasonalKey{Region: region, Season: season}
			series := in.Transformed.Seasonal[key]
			classified := in.Analysis.Classification[key]

			rows := make([][]interface{}, 0, len(series))
			for i, sv := range series {
				class := ""
				if i < len(classified) {
					class = string(classified[i].Class)
				}
				rows = append(rows, []interface{}{sv.Year, sv.Value, class})
			}

			name := "Seasonal_" + key.String()
			if err := writeSheet(f, style, name, []string{"Year", "Mean_Rainfall", "Classification"}, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeCropSheets(f *excelize.File, style int, in *Input) error {
	for _, region := range dataset.Regions {
		for _, season := range dataset.Seasons {
			key := transform.SeasonalKey{Region: region, Season: season}
			days := in.Transformed.Crop[key]

			rows := make([][]interface{}, 0, len(days))
			for _, day := range days {
				rows = append(rows, []interface{}{day.Date.Format("2006-01-02"), day.Rainfall, day.Temperature})
			}

			name := "Crop_" + key.String()
			if err := writeSheet(f, style, name, []string{"Date", "Rainfall_mm", "Temperature"}, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeResilienceScores(f *excelize.File, style int, in *Input) error {
	headers := []string{"Region", "Rainfall_Score", "Temperature_Score", "Overall_Score", "Adaptation_Strategies"}
	rows := make([][]interface{}, 0, len(dataset.Regions))

	for _, region := range dataset.Regions {
		score := in.Scores[region]
		rows = append(rows, []interface{}{
			region.String(),
			score.Rainfall,
			score.Temperature,
			score.Overall,
			strings.Join(score.Strategies, "; "),
		})
	}

	return writeSheet(f, style, "Resilience_Scores", headers, rows)
}

func (w *Writer) writeIndicators(f *excelize.File, style int, in *Input) error {
	headers := []string{"Region", "Precip_Variability", "Drought_Frequency", "Temp_Anomaly"}
	rows := make([][]interface{}, 0, len(dataset.Regions))

	for _, region := range dataset.Regions {
		ind := in.Transformed.Indicators[region]
		rows = append(rows, []interface{}{
			region.String(),
			ind.PrecipVariability,
			ind.DroughtFrequency,
			ind.TempAnomaly,
		})
	}

	return writeSheet(f, style, "Resilience_Indicators", headers, rows)
}

func (w *Writer) writeEconomicImpact(f *excelize.File, style int, in *Input) error {
	headers := []string{"Region", "Year", "Season", "Crop", "Status", "Base_Yield(qtl)", "Base_Revenue(INR)", "Estimated_Loss(INR)"}
	rows := make([][]interface{}, 0, len(in.Analysis.EconomicImpact))

	for _, record := range in.Analysis.EconomicImpact {
		rows = append(rows, []interface{}{
			record.RegionName,
			record.Year,
			record.SeasonName,
			record.Crop,
			string(record.Class),
			record.BaseYield,
			record.BaseRevenue,
			record.EstimatedLoss,
		})
	}

	return writeSheet(f, style, "Economic_Impact", headers, rows)
}

func (w *Writer) writeInfrastructureRisk(f *excelize.File, style int, in *Input) error {
	headers := []string{"Region", "Risk_Score"}
	rows := make([][]interface{}, 0, len(dataset.Regions))

	for _, region := range dataset.Regions {
		rows = append(rows, []interface{}{region.String(), in.Analysis.InfrastructureRisk[region]})
	}

	return writeSheet(f, style, "Infrastructure_Risk", headers, rows)
}

func (w *Writer) writeCropStress(f *excelize.File, style int, in *Input) error {
	headers := []string{"Region", "Season", "Stress_Percentage"}
	rows := make([][]interface{}, 0, len(in.Analysis.CropStress))

	for _, region := range dataset.Regions {
		for _, season := range dataset.Seasons {
			key := transform.SeasonalKey{Region: region, Season: season}
			stress, ok := in.Analysis.CropStress[key]
			if !ok {
				continue
			}
			rows = append(rows, []interface{}{region.String(), season.String(), stress})
		}
	}

	return writeSheet(f, style, "Crop_Stress", headers, rows)
}

func (w *Writer) writeRecommendations(f *excelize.File, style int, in *Input) error {
	headers := []string{"Region", "Category", "Recommendation"}
	var rows [][]interface{}

	for _, region := range dataset.Regions {
		bundle := in.Analysis.Bundles[region]
		categories := []struct {
			name    string
			actions []string
		}{
			{"Climate Adaptation", bundle.ClimateAdaptation},
			{"Economic Measures", bundle.EconomicMeasures},
			{"Infrastructure", bundle.Infrastructure},
			{"Crop Management", bundle.CropManagement},
		}
		for _, category := range categories {
			for _, action := range category.actions {
				rows = append(rows, []interface{}{region.String(), category.name, action})
			}
		}
	}

	return writeSheet(f, style, "Recommendations", headers, rows)
}
