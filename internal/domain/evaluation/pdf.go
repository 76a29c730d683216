package evaluation

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF writes a one-page summary of a shared evaluation. Competency
// names are resolved by the caller and keyed by competency id.
func RenderPDF(w io.Writer, eval Evaluation, ratings []CompetencyRating, cycleName, evaluateeName, evaluatorName string, competencyNames map[string]string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Evaluation")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Cycle: %s", cycleName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", evaluateeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Evaluator: %s", evaluatorName))
	pdf.Ln(7)
	if eval.SharedAt != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Shared: %s", eval.SharedAt.Format("2006-01-02")))
		pdf.Ln(7)
	}
	if eval.OverallRating != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Overall rating: %.1f / 5", *eval.OverallRating))
		pdf.Ln(7)
	}
	pdf.Ln(3)

	if len(ratings) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Competencies")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		for _, rating := range ratings {
			name := competencyNames[rating.CompetencyID]
			if name == "" {
				name = rating.CompetencyID
			}
			pdf.Cell(0, 7, fmt.Sprintf("%s: %.1f / 5", name, rating.Rating))
			pdf.Ln(6)
			if rating.Comment != "" {
				pdf.MultiCell(0, 6, rating.Comment, "", "", false)
				pdf.Ln(2)
			}
		}
		pdf.Ln(3)
	}

	if eval.Comments != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Evaluator comments")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, eval.Comments, "", "", false)
		pdf.Ln(3)
	}
	if eval.ManagerComments != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Reviewer comments")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, eval.ManagerComments, "", "", false)
	}

	return pdf.Output(w)
}
