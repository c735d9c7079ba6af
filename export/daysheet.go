// Package export renders printable views of an itinerary.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"itinera/models"
)

// DaySheet renders one day of a trip as a single-page A4 PDF: the timeline,
// the daily summary and, when shareURL is set, a QR code linking back to
// the day.
func DaySheet(it *models.Itinerary, view *models.DayView, shareURL string) ([]byte, error) {
	loc := it.Location()

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("%s, day %d", it.Name, view.DayIndex), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(it.Name))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Day %d of %d  |  %s", view.DayIndex, it.DurationDays(), view.Date))
	pdf.Ln(12)

	if shareURL != "" {
		png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("share", opts, bytes.NewReader(png))
		pdf.ImageOptions("share", 165, 10, 30, 30, false, opts, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Schedule")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	if len(view.Items) == 0 {
		pdf.Cell(0, 7, "Nothing planned yet.")
		pdf.Ln(7)
	}
	for _, item := range view.Items {
		when := fmt.Sprintf("%s-%s", item.Start.In(loc).Format("15:04"), item.End.In(loc).Format("15:04"))
		pdf.CellFormat(28, 7, when, "", 0, "L", false, 0, "")
		pdf.CellFormat(28, 7, string(item.Category), "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 7, tr(itemLine(item)), "", "L", false)
	}
	pdf.Ln(4)

	s := view.Summary
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, countsLine(s.Counts))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Transport distance: %.1f km", s.TotalDistanceKm))
	pdf.Ln(7)
	cost := fmt.Sprintf("Total cost: %.2f %s", s.TotalCost, s.Currency)
	if s.MixedCurrencies {
		cost += " (mixed currencies)"
	}
	pdf.Cell(0, 7, strings.TrimSpace(cost))
	pdf.Ln(7)
	if w := s.Weather; w != nil {
		pdf.Cell(0, 7, tr(fmt.Sprintf("Weather: %s, %.0f/%.0f, %.0f%% precipitation", w.Condition, w.HighTemp, w.LowTemp, w.Precipitation)))
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render day sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func itemLine(item models.Item) string {
	line := item.Title
	if item.Location != nil && item.Location.Name != "" {
		line += " @ " + item.Location.Name
	}
	if item.Cost != nil && item.Cost.Amount > 0 {
		line += fmt.Sprintf(" (%.2f %s)", item.Cost.Amount, item.Cost.Currency)
	}
	return strings.TrimSpace(line)
}

func countsLine(counts map[models.Category]int) string {
	parts := make([]string, 0, len(counts))
	for _, c := range models.Categories {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, c))
		}
	}
	if len(parts) == 0 {
		return "No items"
	}
	return strings.Join(parts, ", ")
}
