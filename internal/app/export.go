package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"token-price-alerts/internal/engine"
	"token-price-alerts/internal/history"
	"token-price-alerts/internal/watchlist"
)

// Export captures a window of live samples and renders them as CSV and/or a
// PNG chart. With no persistence layer the capture happens inline: the
// command polls the subgraph for the requested duration before writing.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	interval := opts.Interval
	if interval <= 0 {
		interval = a.Config.Sampler.ReferencePollInterval
	}
	duration := opts.Duration
	if duration <= 0 {
		duration = 5 * time.Minute
	}

	list, err := a.buildWatchlist()
	if err != nil {
		return err
	}
	if list.Len() == 0 {
		return errors.New("no tokens configured; nothing to export")
	}

	points, err := a.capture(ctx, list, interval, duration)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		a.Logger.Info().Msg("no samples captured for export window")
		return nil
	}

	downsampled := downsamplePoints(points, opts.MaxPoints)
	a.Logger.Info().Int("total", len(points)).Int("exported", len(downsampled)).Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writePointsCSV(opts.CSVPath, list, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writePointsPNG(opts.PNGPath, list, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) capture(ctx context.Context, list *watchlist.Watchlist, interval, duration time.Duration) ([]history.Point, error) {
	graph := a.newGraph()
	recorder := history.NewRecorder(int(duration/interval) + 1)
	deadline := time.Now().Add(duration)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		at := time.Now().UTC()

		reference, err := graph.FetchReferencePrice(ctx)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("capture: reference fetch failed")
		} else {
			rates, err := graph.FetchTokenRates(ctx, list.Addresses())
			if err != nil {
				a.Logger.Warn().Err(err).Msg("capture: token rate fetch failed")
			} else {
				prices := make(map[common.Address]decimal.Decimal, list.Len())
				for _, entry := range list.Entries() {
					if rate, ok := rates[entry.Token.ID]; ok {
						prices[entry.Token.ID] = reference.Mul(rate.Rate).Round(engine.PricePrecision)
					}
				}
				recorder.Append(history.Point{At: at, ReferenceUSD: reference, Prices: prices})
			}
		}

		if !time.Now().Add(interval).Before(deadline) {
			return recorder.Points(), nil
		}

		select {
		case <-ctx.Done():
			return recorder.Points(), ctx.Err()
		case <-ticker.C:
		}
	}
}

func downsamplePoints(points []history.Point, max int) []history.Point {
	if max <= 0 || len(points) <= max {
		return points
	}

	result := make([]history.Point, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writePointsCSV(path string, list *watchlist.Watchlist, points []history.Point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	entries := list.Entries()
	header := []string{"ts", "reference_usd"}
	for _, entry := range entries {
		header = append(header, entry.Token.Name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, point := range points {
		record := []string{point.At.Format(time.RFC3339), point.ReferenceUSD.String()}
		for _, entry := range entries {
			if price, ok := point.Prices[entry.Token.ID]; ok {
				record = append(record, price.StringFixed(engine.PricePrecision))
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writePointsPNG(path string, list *watchlist.Watchlist, points []history.Point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	reference := make([]float64, len(points))
	for i, point := range points {
		x[i] = point.At
		reference[i] = point.ReferenceUSD.InexactFloat64()
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.4f")
	}

	series := make([]chart.Series, 0, list.Len()+1)
	for _, entry := range list.Entries() {
		values := make([]float64, len(points))
		for i, point := range points {
			if price, ok := point.Prices[entry.Token.ID]; ok {
				values[i] = price.InexactFloat64()
			} else if i > 0 {
				values[i] = values[i-1]
			}
		}
		series = append(series, chart.TimeSeries{
			Name:    entry.Token.Name,
			XValues: x,
			YValues: values,
		})
	}
	series = append(series, chart.TimeSeries{
		Name:    "Reference USD",
		XValues: x,
		YValues: reference,
		YAxis:   chart.YAxisSecondary,
	})

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Token price (USD)",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Reference (USD)",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
