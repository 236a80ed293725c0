package stockdata

import "github.com/bobmcallan/stockdeck/internal/models"

// Normalize projects a raw provider series into the canonical SymbolSeries
// shape: rows with any missing field are dropped, second-resolution
// timestamps become millisecond epochs, and row order is preserved (the
// provider returns chronological ascending). Returns nil when nothing usable
// remains; the caller substitutes a synthetic series.
func Normalize(raw *models.RawSeries) *models.SymbolSeries {
	if raw == nil || len(raw.Timestamps) == 0 {
		return nil
	}

	n := len(raw.Timestamps)
	series := &models.SymbolSeries{
		Timestamps: make([]int64, 0, n),
		Open:       make([]float64, 0, n),
		High:       make([]float64, 0, n),
		Low:        make([]float64, 0, n),
		Close:      make([]float64, 0, n),
		Volume:     make([]int64, 0, n),
		Source:     models.SourceLive,
	}

	for i := 0; i < n; i++ {
		// Ragged columns: treat rows past the shortest column as missing.
		if i >= len(raw.Open) || i >= len(raw.High) || i >= len(raw.Low) || i >= len(raw.Close) || i >= len(raw.Volume) {
			break
		}
		// Drop rows with any missing field.
		if raw.Open[i] == nil || raw.High[i] == nil || raw.Low[i] == nil || raw.Close[i] == nil || raw.Volume[i] == nil {
			continue
		}

		series.Timestamps = append(series.Timestamps, raw.Timestamps[i]*1000)
		series.Open = append(series.Open, *raw.Open[i])
		series.High = append(series.High, *raw.High[i])
		series.Low = append(series.Low, *raw.Low[i])
		series.Close = append(series.Close, *raw.Close[i])
		series.Volume = append(series.Volume, *raw.Volume[i])
	}

	if len(series.Timestamps) == 0 {
		return nil
	}
	return series
}
