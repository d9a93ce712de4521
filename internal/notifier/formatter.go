package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"MarketDigest/internal/model"
)

// FormatQualityAlert formats a low-quality snapshot into a Telegram message listing
// the assets that failed.
func FormatQualityAlert(snapshot *model.Snapshot, q model.QualityReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("⚠️ <b>MarketDigest data quality</b> | %s\n\n", html.EscapeString(snapshot.Timestamp)))
	b.WriteString(fmt.Sprintf("Score: %.1f%% (Grade %s)\n", q.QualityScore, q.QualityGrade))
	b.WriteString(fmt.Sprintf("Valid fields: %d/%d\n", q.ValidFields, q.TotalFields))

	failed := failedQuotes(snapshot)
	if len(failed) == 0 {
		return b.String()
	}

	b.WriteString("\n❌ <b>Failed assets:</b>\n")
	for _, f := range failed {
		b.WriteString(fmt.Sprintf("  %s/%s: %s\n", f.category, f.asset, html.EscapeString(f.message)))
	}
	return b.String()
}

type failure struct {
	category string
	asset    string
	message  string
}

func failedQuotes(snapshot *model.Snapshot) []failure {
	var out []failure
	for category, block := range snapshot.Categories {
		for asset, q := range block.Quotes {
			if q.IsError() {
				out = append(out, failure{category: category, asset: asset, message: q.Error})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].category != out[j].category {
			return out[i].category < out[j].category
		}
		return out[i].asset < out[j].asset
	})
	return out
}
