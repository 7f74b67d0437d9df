package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"HoldingsRadar/internal/model"
)

// csvHeader is the fixed export schema. Order matters: downstream sheets
// key on column position.
var csvHeader = []string{
	"symbol", "mode", "signal", "pnl_pct", "last", "cost",
	"ema20", "ma50", "ma200", "vol20", "vwap",
	"signal_15m", "signal_1h", "action",
}

// Exporter persists a finished run's results.
type Exporter interface {
	Export(mode model.RunMode, results []*model.SignalResult) error
}

// CSVExporter writes one row per analyzable symbol to a flat file.
// Placeholder rows are skipped.
type CSVExporter struct {
	Path string
}

func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{Path: path}
}

func (e *CSVExporter) Export(mode model.RunMode, results []*model.SignalResult) error {
	if dir := filepath.Dir(e.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(e.Path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, res := range results {
		if res.NoData {
			continue
		}
		row := []string{
			res.Symbol,
			string(mode),
			string(res.Grade),
			num(res.PnlPct),
			num(res.LastPrice),
			num(res.Cost),
			num(res.MARef),
			num(res.MA50),
			num(res.MA200),
			num(res.VolRef),
			num(res.VWAP),
			string(res.Grade15m),
			string(res.Grade1h),
			res.Action,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", res.Symbol, err)
		}
	}
	w.Flush()
	return w.Error()
}

// NoopExporter discards everything. Used when no export path is configured.
type NoopExporter struct{}

func (NoopExporter) Export(model.RunMode, []*model.SignalResult) error { return nil }

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
