package report

import (
	"fmt"
	"strings"
	"time"

	"MarketDigest/internal/calculator"
	"MarketDigest/internal/config"
	"MarketDigest/internal/model"
)

var categoryTitles = map[string]string{
	model.CategoryPreciousMetals: "PRECIOUS METALS",
	model.CategoryStockIndices:   "STOCK INDICES",
	model.CategoryBondYields:     "BOND YIELDS",
	model.CategoryHousing:        "HOUSING",
	model.CategoryFX:             "FOREIGN EXCHANGE",
}

// Formatter renders the plain-text summary report.
type Formatter struct {
	catalog []config.SummaryAsset
	window  int
	markets []Market
}

// NewFormatter creates a formatter for the summary catalog. Indicators are computed
// over window closes when a quote's series is long enough.
func NewFormatter(catalog []config.SummaryAsset, window int) *Formatter {
	return &Formatter{
		catalog: catalog,
		window:  window,
		markets: []Market{MarketUS, MarketVN},
	}
}

// Render builds the report for snapshot as of now.
func (f *Formatter) Render(snapshot *model.Snapshot, quality model.QualityReport, now time.Time) string {
	var b strings.Builder

	b.WriteString("=== FINANCIAL DATA SUMMARY REPORT ===\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", now.UTC().Format("2006-01-02 15:04:05 UTC")))

	b.WriteString(fmt.Sprintf("Data Quality Score: %.1f%% (Grade: %s)\n", quality.QualityScore, quality.QualityGrade))
	b.WriteString(fmt.Sprintf("Valid Fields: %d/%d\n\n", quality.ValidFields, quality.TotalFields))

	for _, m := range f.markets {
		b.WriteString(fmt.Sprintf("%s Market Status: %s\n", m.Code, m.Status(now)))
	}
	b.WriteString("\n")

	for _, group := range f.groups() {
		b.WriteString(title(group.category) + ":\n")
		for _, asset := range group.assets {
			f.writeAsset(&b, snapshot, asset)
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")
	return b.String()
}

func (f *Formatter) writeAsset(b *strings.Builder, snapshot *model.Snapshot, asset config.SummaryAsset) {
	q, ok := snapshot.Quote(asset.Category, asset.Quote)
	if !ok {
		b.WriteString(fmt.Sprintf("  %s: n/a\n", asset.Name))
		return
	}
	if q.IsError() {
		b.WriteString(fmt.Sprintf("  %s: unavailable (%s)\n", asset.Name, q.Error))
		return
	}

	line := fmt.Sprintf("  %s: %s", asset.Name, formatValue(asset.Display, asset.Currency, q.CurrentPrice))
	if pct, err := q.ChangePercent.Take(); err == nil {
		line += " (" + FormatPercentage(pct) + ")"
	}
	b.WriteString(line + "\n")

	closes := calculator.Closes(q.History)
	ind, err := calculator.Compute(closes, f.window)
	if err != nil {
		return
	}
	b.WriteString(fmt.Sprintf("    SMA%d %s | EMA%d %s | Volatility %s | RSI %.1f\n",
		f.window, FormatNumber(ind.SMA), f.window, FormatNumber(ind.EMA), FormatNumber(ind.Volatility), ind.RSI))

	if high, low, err := calculator.CalculateRange(q.History, 0); err == nil {
		pos, _ := calculator.CalculateRangePosition(q.CurrentPrice, high, low)
		b.WriteString(fmt.Sprintf("    Range %s - %s (position %.0f%%)\n", FormatNumber(low), FormatNumber(high), pos*100))
	}
}

type group struct {
	category string
	assets   []config.SummaryAsset
}

// groups keeps the catalog's category order.
func (f *Formatter) groups() []group {
	var out []group
	index := map[string]int{}
	for _, a := range f.catalog {
		i, ok := index[a.Category]
		if !ok {
			i = len(out)
			index[a.Category] = i
			out = append(out, group{category: a.Category})
		}
		out[i].assets = append(out[i].assets, a)
	}
	return out
}

func title(category string) string {
	if t, ok := categoryTitles[category]; ok {
		return t
	}
	return strings.ToUpper(strings.ReplaceAll(category, "_", " "))
}
