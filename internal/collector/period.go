package collector

import (
	"time"

	"MarketDigest/internal/errors"
)

// Periods lists the accepted lookback windows in ascending order.
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidatePeriod rejects anything outside Periods.
func ValidatePeriod(period string) error {
	for _, p := range Periods {
		if p == period {
			return nil
		}
	}
	return errors.Newf(errors.ErrCodeInvalidPeriod, "unsupported period %q", period)
}

// PeriodStart returns the first day covered by period when it ends at now.
// Calendar-day periods get a few days of slack so weekends still yield bars.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	if err := ValidatePeriod(period); err != nil {
		return time.Time{}, err
	}

	now = now.UTC()
	switch period {
	case "1d":
		return now.AddDate(0, 0, -4), nil
	case "5d":
		return now.AddDate(0, 0, -9), nil
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	case "10y":
		return now.AddDate(-10, 0, 0), nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	default: // max
		return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
}
