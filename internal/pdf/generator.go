package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// PDFGenerator generates adherence report documents
type PDFGenerator struct {
	logger *zap.Logger
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
	}
}

// ReportData contains all data needed for report generation
type ReportData struct {
	PatientName string
	DateRange   string
	Metrics     *model.ProgressMetrics
	Medications []model.Medication
}

// Generate creates a PDF report from the provided data
func (g *PDFGenerator) Generate(data *ReportData) ([]byte, error) {
	g.logger.Info("generating PDF report",
		zap.String("patient_name", data.PatientName),
		zap.String("date_range", data.DateRange),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	g.addTitle(pdf, "Medication Adherence Report", data.PatientName, data.DateRange)

	g.addOverallSummary(pdf, data.Metrics)
	g.addStreakSummary(pdf, data.Metrics.Streaks)
	g.addMedicationList(pdf, data.Medications)
	g.addPerMedicationMetrics(pdf, data.Metrics.PerMedication)
	g.addPatterns(pdf, data.Metrics.Patterns)
	g.addInsightNarrative(pdf, data.Metrics.InsightNarrative)

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

// addTitle adds the report title and header information
func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, title, patientName, dateRange string) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Patient: %s", patientName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s", dateRange), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

// addSectionHeader adds a section header
func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

// addOverallSummary adds the overall adherence summary section
func (g *PDFGenerator) addOverallSummary(pdf *gofpdf.Fpdf, metrics *model.ProgressMetrics) {
	g.addSectionHeader(pdf, "Adherence Summary")

	if metrics.TotalRecords == 0 {
		pdf.CellFormat(0, 8, "No doses recorded during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	thresholdLabel := "Below target"
	if metrics.MeetsThreshold {
		thresholdLabel = "On target"
	}

	pdf.CellFormat(0, 6, fmt.Sprintf("Overall adherence rate: %.1f%%", metrics.OverallRate), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", thresholdLabel), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Doses tracked: %d", metrics.TotalRecords), "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

// addStreakSummary adds the streak summary section
func (g *PDFGenerator) addStreakSummary(pdf *gofpdf.Fpdf, streaks model.StreakData) {
	g.addSectionHeader(pdf, "Streaks")

	pdf.CellFormat(0, 6, fmt.Sprintf("Current streak: %d days", streaks.CurrentStreak), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Longest streak: %d days", streaks.LongestStreak), "", 1, "L", false, 0, "")

	if streaks.LongestStreakDates != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Longest streak period: %s to %s",
			streaks.LongestStreakDates.Start.Format("2006-01-02"),
			streaks.LongestStreakDates.End.Format("2006-01-02")), "", 1, "L", false, 0, "")
	}

	if streaks.Recoverable && streaks.RecoveryWindowHours != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Streak recoverable: %.0f hours remaining to take the missed dose",
			*streaks.RecoveryWindowHours), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// addMedicationList adds the medication list section
func (g *PDFGenerator) addMedicationList(pdf *gofpdf.Fpdf, medications []model.Medication) {
	g.addSectionHeader(pdf, "Medication List")

	if len(medications) == 0 {
		pdf.CellFormat(0, 8, "No medications recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, med := range medications {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, med.Name, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("  Dosage: %s", med.Dosage), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Frequency: %s", med.Frequency), "", 1, "L", false, 0, "")
		if len(med.ScheduleTimes) > 0 {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Schedule: %s", strings.Join(med.ScheduleTimes, ", ")), "", 1, "L", false, 0, "")
		}
		if med.TakeWithFood {
			pdf.CellFormat(0, 5, "  Take with food", "", 1, "L", false, 0, "")
		}
		if med.AvoidDuringFasting {
			pdf.CellFormat(0, 5, "  Avoid during fasting periods", "", 1, "L", false, 0, "")
		}
		if med.Notes != nil && *med.Notes != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Notes: %s", *med.Notes), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
	pdf.Ln(5)
}

// addPerMedicationMetrics adds per-medication adherence metrics
func (g *PDFGenerator) addPerMedicationMetrics(pdf *gofpdf.Fpdf, metrics []model.MedicationAdherenceMetric) {
	g.addSectionHeader(pdf, "Adherence by Medication")

	if len(metrics) == 0 {
		pdf.CellFormat(0, 8, "No adherence data recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, metric := range metrics {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s: %.1f%%", metric.MedicationName, metric.AdherenceRate), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("  Taken: %d of %d doses (missed %d, late %d, early %d, adjusted %d)",
			metric.TakenDoses, metric.TotalDoses, metric.MissedDoses,
			metric.LateDoses, metric.EarlyDoses, metric.AdjustedDoses), "", 1, "L", false, 0, "")
		if metric.AverageDelayMinutes > 0 {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Average delay: %.0f minutes", metric.AverageDelayMinutes), "", 1, "L", false, 0, "")
		}
		if metric.BestTimeAdherence != nil {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Best time of day: %02d:%02d (%.1f%%)",
				metric.BestTimeAdherence.Hour, metric.BestTimeAdherence.Minute,
				metric.BestTimeAdherence.AdherenceRate), "", 1, "L", false, 0, "")
		}
		if metric.WorstTimeAdherence != nil {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Worst time of day: %02d:%02d (%.1f%%)",
				metric.WorstTimeAdherence.Hour, metric.WorstTimeAdherence.Minute,
				metric.WorstTimeAdherence.AdherenceRate), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
	pdf.Ln(5)
}

// addPatterns adds the detected patterns and recommendations section
func (g *PDFGenerator) addPatterns(pdf *gofpdf.Fpdf, patterns []model.AdherencePattern) {
	g.addSectionHeader(pdf, "Detected Patterns")

	if len(patterns) == 0 {
		pdf.CellFormat(0, 8, "No behavioral patterns detected during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, pattern := range patterns {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s (confidence %.0f%%)", pattern.Description, pattern.Confidence*100), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("  Occurrences: %d", pattern.Occurrences), "", 1, "L", false, 0, "")

		if len(pattern.CulturalFactors) > 0 {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Cultural factors: %s", strings.Join(pattern.CulturalFactors, ", ")), "", 1, "L", false, 0, "")
		}

		if len(pattern.Recommendations) > 0 {
			pdf.CellFormat(0, 5, "  Recommendations:", "", 1, "L", false, 0, "")
			for _, rec := range pattern.Recommendations {
				pdf.MultiCell(0, 5, fmt.Sprintf("    - %s", rec), "", "L", false)
			}
		}
		pdf.Ln(3)
	}
	pdf.Ln(5)
}

// addInsightNarrative adds the generated insight narrative section
func (g *PDFGenerator) addInsightNarrative(pdf *gofpdf.Fpdf, narrative *string) {
	if narrative == nil || *narrative == "" {
		return
	}

	g.addSectionHeader(pdf, "Insights")
	pdf.MultiCell(0, 5, *narrative, "", "L", false)
	pdf.Ln(5)
}
