package dossier

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/phpdave11/gofpdf"
)

const (
	fontFamily = "Helvetica"
	timeFormat = "2006-01-02 15:04 MST"
	dateFormat = "2006-01-02"
)

// Render writes a printable PDF summary of a case and its status history to
// w. Text outside Latin-1 is replaced with '?' because only the core fonts
// are embedded.
func Render(w io.Writer, c *model.Case, history []*model.StatusHistoryRecord, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle("Case dossier "+c.CaseID, false)
	pdf.SetCreationDate(generatedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(latin1(s)) }

	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 9, text("Case dossier: "+c.CaseID), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, "Generated at: "+generatedAt.UTC().Format(timeFormat), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	sectionTitle(pdf, "1. Overview")
	kv(pdf, text, "Title", c.Title)
	kv(pdf, text, "Status", c.Status.String())
	kv(pdf, text, "Priority", c.Priority.String())
	kv(pdf, text, "Violations", strings.Join(c.ViolationTypes, ", "))
	kv(pdf, text, "Occurred", fmtDate(c.DateOccurred))
	kv(pdf, text, "Reported", fmtDate(c.DateReported))
	kv(pdf, text, "Created by", c.CreatedBy)
	kv(pdf, text, "Updated at", fmtTime(c.UpdatedAt))
	pdf.Ln(2)

	sectionTitle(pdf, "2. Location")
	kv(pdf, text, "Country", c.Location.Country)
	kv(pdf, text, "Region", c.Location.Region)
	if p := c.Location.Coordinates; p != nil && len(p.Coordinates) == 2 {
		kv(pdf, text, "Coordinates", fmt.Sprintf("%.5f, %.5f (lat, lon)", p.Latitude(), p.Longitude()))
	}
	pdf.Ln(2)

	sectionTitle(pdf, "3. Description")
	body(pdf, text(orDash(c.Description)))
	pdf.Ln(2)

	sectionTitle(pdf, "4. Victims and perpetrators")
	kv(pdf, text, "Victims", strings.Join(c.Victims, ", "))
	if len(c.Perpetrators) == 0 {
		kv(pdf, text, "Perpetrators", "")
	}
	for i, p := range c.Perpetrators {
		kv(pdf, text, fmt.Sprintf("Perpetrator #%d", i+1), strings.TrimSpace(p.Name+" ("+p.Type+")"))
	}
	pdf.Ln(2)

	sectionTitle(pdf, "5. Evidence")
	if len(c.Evidence) == 0 {
		empty(pdf)
	}
	for _, e := range c.Evidence {
		pdf.SetFont(fontFamily, "B", 10)
		pdf.SetTextColor(20, 20, 20)
		pdf.MultiCell(0, 5, text(fmt.Sprintf("%s | %s", e.Type, fmtTime(e.DateCaptured))), "", "L", false)
		pdf.SetFont(fontFamily, "", 9)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(0, 4.5, text("url: "+e.URL), "", "L", false)
		if e.Description != "" {
			pdf.MultiCell(0, 4.5, text(e.Description), "", "L", false)
		}
		pdf.Ln(1)
	}
	pdf.Ln(2)

	sectionTitle(pdf, "6. Status history")
	if len(history) == 0 {
		empty(pdf)
	}
	for _, h := range history {
		pdf.SetFont(fontFamily, "", 9)
		pdf.SetTextColor(30, 30, 30)
		pdf.MultiCell(0, 4.5, text(fmt.Sprintf("%s  %s -> %s  by %s",
			fmtTime(h.UpdatedAt), h.OldStatus, h.NewStatus, h.UpdatedBy)), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return goerr.Wrap(err, "failed to render dossier", goerr.V(model.CaseIDKey, c.CaseID))
	}
	return nil
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, text func(string) string, key, value string) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(36, 5.2, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5.2, text(orDash(value)), "", "L", false)
}

func body(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5, s, "", "L", false)
}

func empty(pdf *gofpdf.Fpdf) {
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(0, 5, "(none)", "", "L", false)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(dateFormat)
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeFormat)
}

// latin1 keeps ASCII and the Latin-1 supplement and replaces every other
// rune with '?'. Tabs and carriage returns become spaces.
func latin1(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\r':
			b.WriteByte(' ')
		case r < 0x80 || (r >= 0xA0 && r <= 0xFF):
			b.WriteRune(r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}
