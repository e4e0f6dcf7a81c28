package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders one text block per record under a title.
func WritePDF(w io.Writer, rows []Row) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Attendance Report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Attendance Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	for _, r := range rows {
		for i, v := range r.Values() {
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: %s", Header[i], v)), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
