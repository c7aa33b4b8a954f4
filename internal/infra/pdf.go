package infra

// pdf.go — end-of-session report generation using go-pdf/fpdf.
// Produces an A4 summary of one closed cashier session:
//   - Operator, open/close timestamps
//   - Financial totals and the declared vs expected difference
//   - Cash movement ledger (withdrawals and supplies)
//
// The output file is saved to storagePath/sessao_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"cardapio/internal/cashier"

	"github.com/go-pdf/fpdf"
)

// GenerateSessionReportPDF renders the closing report for a cashier session.
// storagePath is the directory where the PDF will be written (created if needed).
// Returns the absolute path to the generated file.
func GenerateSessionReportPDF(session *cashier.Session, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("sessao_%s.pdf", session.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Cardapio", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Relatorio de Fechamento de Caixa", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Session info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Operador: "+session.Operator, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Abertura: "+session.OpenTime.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	if session.CloseTime != nil {
		pdf.CellFormat(contentW, 5, "Fechamento: "+session.CloseTime.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Totals ───────────────────────────────────────────────────────────────
	labelW := contentW * 0.6
	valueW := contentW * 0.4

	row := func(label, value string) {
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	row("Valor inicial:", "R$ "+session.InitialAmount.StringFixed(2))
	row(fmt.Sprintf("Vendas (%d):", session.TotalSales), "R$ "+session.TotalRevenue.StringFixed(2))
	row("Suprimentos:", "R$ "+session.TotalSupplies.StringFixed(2))
	row("Sangrias:", "-R$ "+session.TotalWithdrawals.StringFixed(2))

	pdf.SetFont("Helvetica", "B", 10)
	row("Saldo esperado:", "R$ "+session.CurrentBalance.StringFixed(2))
	if session.FinalAmount != nil {
		row("Valor declarado:", "R$ "+session.FinalAmount.StringFixed(2))
		diff := session.FinalAmount.Sub(session.CurrentBalance)
		row("Diferenca:", "R$ "+diff.StringFixed(2))
	}

	// ── Movement ledger ──────────────────────────────────────────────────────
	if len(session.Movements) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW*0.2, 6, "Hora", "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.2, 6, "Tipo", "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 6, "Descricao", "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.2, 6, "Valor", "B", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 8)
		for _, mv := range session.Movements {
			kind := "Suprimento"
			amount := "R$ " + mv.Amount.StringFixed(2)
			if mv.Type == cashier.Withdrawal {
				kind = "Sangria"
				amount = "-R$ " + mv.Amount.StringFixed(2)
			}
			desc := mv.Description
			if len(desc) > 48 {
				desc = desc[:47] + "…"
			}
			pdf.CellFormat(contentW*0.2, 5, mv.Timestamp.Format("15:04"), "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.2, 5, kind, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.4, 5, desc, "", 0, "L", false, 0, "")
			pdf.CellFormat(contentW*0.2, 5, amount, "", 1, "R", false, 0, "")
		}
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	if session.Observations != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, "Obs: "+session.Observations, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
