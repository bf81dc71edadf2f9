package infra

// pdf.go renders the daily closure receipt with go-pdf/fpdf: store header,
// day and author, totals, and the per-method breakdown.
// The file is saved to storagePath/fechamento_{day}_{id8}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"chicpos/internal/model"

	"github.com/go-pdf/fpdf"
)

// receiptLabels is the printed order of payment methods.
var receiptLabels = []struct {
	method model.PaymentMethod
	label  string
}{
	{model.PaymentCash, "Dinheiro"},
	{model.PaymentPix, "Pix"},
	{model.PaymentCard, "Cartão"},
	{model.PaymentStoreCredit, "Crédito Loja"},
	{model.PaymentOther, "Outro"},
}

// GenerateClosurePDF writes the receipt of closure and returns its path.
// storagePath is created if needed.
func GenerateClosurePDF(c *model.DailyClosure, storeName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("fechamento_%s_%s.pdf", c.Day, c.ID.String()[:8])
	filePath := filepath.Join(storagePath, fileName)

	// 80mm thermal roll
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: 140},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 10
	labelW := contentW * 0.62
	valueW := contentW - labelW

	row := func(label, value string) {
		pdf.CellFormat(labelW, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 5, tr(value), "", 1, "R", false, 0, "")
	}
	separator := func() {
		pdf.Ln(1)
		pdf.Line(5, pdf.GetY(), pageW-5, pdf.GetY())
		pdf.Ln(2)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(storeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr("Fechamento de Caixa"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 8)
	row("Dia", c.Day)
	row("Fechado em", c.ClosedAt.Format("02/01/2006 15:04")+" UTC")
	row("Responsável", c.ClosedBy)
	separator()

	// ── Totals ────────────────────────────────────────────────────────────────
	row("Vendas", fmt.Sprintf("%d", c.SalesCount))
	row("Atendimentos", fmt.Sprintf("%d", c.AttendanceCount))
	row("Brindes", fmt.Sprintf("%d (R$ %s)", c.GiftsCount, c.TotalGiftsAtCost.StringFixed(2)))
	row("Ajustes líquidos", "R$ "+c.NetAdjustments.StringFixed(2))
	separator()

	// ── Breakdown ─────────────────────────────────────────────────────────────
	breakdown := c.PaymentBreakdown.Data()
	for _, l := range receiptLabels {
		row(l.label, "R$ "+breakdown[l.method].StringFixed(2))
	}
	separator()

	pdf.SetFont("Helvetica", "B", 10)
	row("TOTAL VENDIDO", "R$ "+c.TotalSales.StringFixed(2))

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, c.ID.String(), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
