package pdf

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields rendered onto a retirement certificate
type CertificateData struct {
	CertificateID string
	IssuanceID    string
	Currency      string
	Issuer        string
	OwnerAddress  string
	Amount        string
	RetiredAt     time.Time
	TxHash        string
	Reason        string
}

// Generator renders PDFs
type Generator interface {
	RetirementCertificate(data CertificateData) (io.Reader, error)
}

type generator struct{}

func NewGenerator() Generator {
	return &generator{}
}

// RetirementCertificate renders a single-page A4 certificate
func (g *generator) RetirementCertificate(data CertificateData) (io.Reader, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 25, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 22)
	doc.SetTextColor(22, 101, 52)
	doc.CellFormat(0, 14, "Carbon Credit Retirement Certificate", "", 1, "C", false, 0, "")

	doc.SetDrawColor(22, 101, 52)
	doc.SetLineWidth(0.6)
	doc.Line(20, doc.GetY()+2, 190, doc.GetY()+2)
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(60, 60, 60)
	doc.MultiCell(0, 6, fmt.Sprintf(
		"This certifies that %s carbon credits (%s) have been permanently retired and can no longer be transferred or traded.",
		data.Amount, data.Currency), "", "C", false)
	doc.Ln(8)

	rows := [][2]string{
		{"Certificate ID", data.CertificateID},
		{"Token Issuance", data.IssuanceID},
		{"Issuer", data.Issuer},
		{"Retired By", data.OwnerAddress},
		{"Amount", fmt.Sprintf("%s %s", data.Amount, data.Currency)},
		{"Retired At", data.RetiredAt.UTC().Format("2006-01-02 15:04:05 MST")},
		{"Transaction", data.TxHash},
	}
	if data.Reason != "" {
		rows = append(rows, [2]string{"Reason", data.Reason})
	}

	doc.SetFillColor(240, 248, 242)
	for i, row := range rows {
		doc.SetFont("Helvetica", "B", 10)
		doc.SetTextColor(30, 30, 30)
		doc.CellFormat(45, 9, row[0], "", 0, "L", i%2 == 0, 0, "")
		doc.SetFont("Courier", "", 9)
		doc.CellFormat(0, 9, row[1], "", 1, "L", i%2 == 0, 0, "")
	}

	doc.Ln(12)
	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(120, 120, 120)
	doc.CellFormat(0, 5, "Settled on the XRP Ledger. Verify the transaction hash on any ledger explorer.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return &buf, nil
}
