package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Certificate holds the fields rendered onto a completion certificate.
type Certificate struct {
	CourseID    int64
	StudentID   string
	Mark        int
	MetadataRef string
	IssuedAt    time.Time
}

// CertificatePDFExporter renders completion certificates.
type CertificatePDFExporter struct{}

// NewCertificatePDFExporter constructs a certificate exporter.
func NewCertificatePDFExporter() *CertificatePDFExporter {
	return &CertificatePDFExporter{}
}

// Render creates a single-page certificate document.
func (e *CertificatePDFExporter) Render(cert Certificate) ([]byte, error) {
	if cert.StudentID == "" {
		return nil, fmt.Errorf("certificate requires a student")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 30, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 24)
	pdf.CellFormat(0, 16, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, cert.StudentID, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("has completed course %d with a final mark of %d", cert.CourseID, cert.Mark), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reference: %s", cert.MetadataRef), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued: %s", cert.IssuedAt.UTC().Format("2 January 2006")), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
