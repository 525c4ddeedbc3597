package dataset

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"stockpicker/internal/util"
)

// LatestFinishedTradingDay returns the most recent trading day whose session
// has ended, using the Alpaca trading calendar when credentials are present
// and the built-in calendar otherwise. "Ended" means after 20:05 ET, when
// extended-hours data has settled.
func LatestFinishedTradingDay(apiKey, apiSecret, baseURL string) (time.Time, error) {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, fmt.Errorf("loading ET timezone: %w", err)
	}
	now := time.Now().In(et)

	if apiKey == "" || apiSecret == "" {
		return latestFinishedLocal(now), nil
	}

	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	calendar, err := client.GetCalendar(alpaca.GetCalendarRequest{
		Start: now.AddDate(0, 0, -7),
		End:   now,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("GetCalendar: %w", err)
	}
	if len(calendar) == 0 {
		return time.Time{}, fmt.Errorf("no trading days returned from calendar")
	}

	today := now.Format("2006-01-02")
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 20, 5, 0, 0, et)

	for i := len(calendar) - 1; i >= 0; i-- {
		day := calendar[i]
		if day.Date == today {
			if now.After(cutoff) {
				t, _ := time.Parse("2006-01-02", day.Date)
				return t, nil
			}
			continue
		}
		dayDate, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}
		if dayDate.Before(now) {
			return dayDate, nil
		}
	}
	return time.Time{}, fmt.Errorf("no finished trading day in calendar window")
}

// latestFinishedLocal resolves the latest finished trading day from the
// built-in holiday calendar.
func latestFinishedLocal(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 20, 5, 0, 0, now.Location())

	if util.IsTradingDay(day) && now.After(cutoff) {
		return day
	}
	return util.PrevTradingDay(day)
}
