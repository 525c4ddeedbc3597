package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"stockpicker/internal/domain"
)

// ExportFeaturesCSV writes feature rows as CSV with a header row, suitable
// for loading into ML tooling.
func ExportFeaturesCSV(w io.Writer, rows []domain.FeatureRow) error {
	cw := csv.NewWriter(w)
	header := []string{"symbol", "date", "return_1d", "return_5d", "volatility",
		"volume_zscore", "sentiment", "news_count", "next_day_up"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		label := "0"
		if r.NextDayUp {
			label = "1"
		}
		record := []string{
			r.Symbol,
			r.Date.Format("2006-01-02"),
			formatFloat(r.Return1D),
			formatFloat(r.Return5D),
			formatFloat(r.Volatility),
			formatFloat(r.VolumeZScore),
			formatFloat(r.Sentiment),
			strconv.Itoa(r.NewsCount),
			label,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type featureJSON struct {
	Symbol       string  `json:"symbol"`
	Date         string  `json:"date"`
	Return1D     float64 `json:"return_1d"`
	Return5D     float64 `json:"return_5d"`
	Volatility   float64 `json:"volatility"`
	VolumeZScore float64 `json:"volume_zscore"`
	Sentiment    float64 `json:"sentiment"`
	NewsCount    int     `json:"news_count"`
	NextDayUp    bool    `json:"next_day_up"`
}

// ExportFeaturesJSON writes feature rows as newline-delimited JSON, one
// object per row.
func ExportFeaturesJSON(w io.Writer, rows []domain.FeatureRow) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		obj := featureJSON{
			Symbol:       r.Symbol,
			Date:         r.Date.Format("2006-01-02"),
			Return1D:     r.Return1D,
			Return5D:     r.Return5D,
			Volatility:   r.Volatility,
			VolumeZScore: r.VolumeZScore,
			Sentiment:    r.Sentiment,
			NewsCount:    r.NewsCount,
			NextDayUp:    r.NextDayUp,
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}

// ExportBarsCSV writes bars as CSV with a header row.
func ExportBarsCSV(w io.Writer, bars []domain.Bar) error {
	cw := csv.NewWriter(w)
	header := []string{"symbol", "timestamp", "open", "high", "low", "close",
		"volume", "trade_count", "vwap"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, b := range bars {
		record := []string{
			b.Symbol,
			b.Timestamp.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatInt(b.Volume, 10),
			strconv.FormatInt(b.TradeCount, 10),
			formatFloat(b.VWAP),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
