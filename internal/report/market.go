package report

import (
	"time"
	_ "time/tzdata"
)

// Market describes a venue's regular session in local hours, both ends inclusive.
type Market struct {
	Code      string
	Location  string
	OpenHour  int
	CloseHour int
}

// Markets reported on by default.
var (
	MarketUS = Market{Code: "US", Location: "America/New_York", OpenHour: 9, CloseHour: 16}
	MarketVN = Market{Code: "VN", Location: "Asia/Ho_Chi_Minh", OpenHour: 9, CloseHour: 15}
)

// IsOpen reports whether the market is in session at t. Weekends are closed;
// holidays are not tracked.
func (m Market) IsOpen(t time.Time) bool {
	loc, err := time.LoadLocation(m.Location)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	return local.Hour() >= m.OpenHour && local.Hour() <= m.CloseHour
}

// Status renders IsOpen as "Open" or "Closed".
func (m Market) Status(t time.Time) string {
	if m.IsOpen(t) {
		return "Open"
	}
	return "Closed"
}
