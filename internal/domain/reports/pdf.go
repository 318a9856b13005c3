package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// GeneratePDF renders one appraisal document as a PDF form and returns
// the file path. Lines are grouped by function type the way the printed
// commitment-and-review forms lay them out.
func (s *Service) GeneratePDF(ctx context.Context, documentID string) (string, error) {
	report, err := s.store.DocumentReport(ctx, documentID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.dir, report.DocumentID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, strings.ToUpper(report.Kind))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	if report.UserName != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", report.UserName))
		pdf.Ln(7)
	}
	if report.DepartmentName != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Department: %s", report.DepartmentName))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", report.Period))
	pdf.Ln(10)

	functionType := ""
	for _, line := range report.Lines {
		if line.FunctionType != functionType {
			functionType = line.FunctionType
			pdf.SetFont("Helvetica", "B", 12)
			pdf.Cell(0, 8, functionType)
			pdf.Ln(8)
			pdf.SetFont("Helvetica", "", 11)
		}
		pdf.Cell(0, 7, fmt.Sprintf("%s - %s", line.CategoryName, line.TaskTitle))
		pdf.Ln(6)
		if line.TargetDescription != "" {
			pdf.Cell(0, 6, fmt.Sprintf("  Target: %s", line.TargetDescription))
			pdf.Ln(5)
		}
		pdf.Cell(0, 6, fmt.Sprintf("  Q: %d  E: %d  T: %d  A: %.2f",
			line.Quantity, line.Efficiency, line.Timeliness, line.Average))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	signoffs := []struct {
		label string
		name  string
	}{
		{"Reviewed by", report.ReviewedBy},
		{"Approved by", report.ApprovedBy},
		{"Discussed with", report.DiscussedWith},
		{"Assessed by", report.AssessedBy},
		{"Final rating by", report.FinalRatingBy},
		{"Confirmed by", report.ConfirmedBy},
	}
	for _, signoff := range signoffs {
		if signoff.name == "" {
			continue
		}
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", signoff.label, signoff.name))
		pdf.Ln(6)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
