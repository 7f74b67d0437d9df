package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HoldingsRadar/internal/model"
	"HoldingsRadar/internal/provider"
)

func fastConfig(mode model.RunMode) Config {
	return Config{
		Mode:       mode,
		Throttle:   time.Millisecond,
		GraceDelay: 5 * time.Millisecond,
	}
}

func ascendingDailyBars(n int, start float64) []model.Bar {
	bars := make([]model.Bar, n)
	t := time.Date(2025, 1, 2, 16, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := start + float64(i)*0.5
		bars[i] = model.Bar{
			Time:   t.AddDate(0, 0, i),
			Open:   p - 0.2,
			High:   p + 0.4,
			Low:    p - 0.4,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

func flatIntradayBars(n int, price float64, step time.Duration) []model.Bar {
	bars := make([]model.Bar, n)
	t := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		bars[i] = model.Bar{
			Time:   t.Add(time.Duration(i) * step),
			Open:   price,
			High:   price + 0.1,
			Low:    price - 0.1,
			Close:  price,
			Volume: 1000,
		}
	}
	return bars
}

func TestRunDailyWithRejectedSymbol(t *testing.T) {
	sim := provider.NewSimClient([]model.Position{
		{Symbol: "AAPL", AvgCost: 100, Shares: 50},
		{Symbol: "BNDX", AvgCost: 48.2, Shares: 200},
	})
	defer sim.Close()
	sim.Bars["AAPL"] = map[model.Timeframe][]model.Bar{
		model.Timeframe1d: ascendingDailyBars(250, 80),
	}
	sim.Rejected["BNDX"] = true

	o := New(sim, fastConfig(model.ModeDaily))
	out, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "BNDX"}, out.Watchlist)
	require.Len(t, out.Results, 2)

	aapl := out.Results["AAPL"]
	require.NotNil(t, aapl)
	assert.False(t, aapl.NoData)
	assert.Equal(t, model.TrendUp, aapl.Trend)
	assert.NotEqual(t, model.GradeNone, aapl.Grade)
	assert.InDelta(t, 204.5, aapl.LastPrice, 1e-9)
	assert.InDelta(t, 104.5, aapl.PnlPct, 1e-9)
	assert.NotNil(t, aapl.Bands)
	assert.NotEmpty(t, aapl.Action)

	bndx := out.Results["BNDX"]
	require.NotNil(t, bndx)
	assert.True(t, bndx.NoData)
	assert.Equal(t, model.GradeNone, bndx.Grade)
	assert.Contains(t, bndx.Reason, "No security definition")
	assert.Contains(t, bndx.Action, "无法获取历史数据")
}

func TestRunIntraday(t *testing.T) {
	sim := provider.NewSimClient([]model.Position{
		{Symbol: "MSFT", AvgCost: 90, Shares: 20},
	})
	defer sim.Close()
	sim.Bars["MSFT"] = map[model.Timeframe][]model.Bar{
		model.Timeframe15m: flatIntradayBars(40, 100, 15*time.Minute),
		model.Timeframe1h:  flatIntradayBars(40, 100, time.Hour),
	}

	o := New(sim, fastConfig(model.ModeIntraday))
	out, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Results, 1)

	res := out.Results["MSFT"]
	require.NotNil(t, res)
	assert.Equal(t, model.GradeNeutral, res.Grade)
	assert.Equal(t, model.GradeNeutral, res.Grade15m)
	assert.Equal(t, model.GradeNeutral, res.Grade1h)
	assert.Greater(t, res.VWAP, 0.0)
	assert.Contains(t, res.Comment, "VWAP")
	assert.InDelta(t, (100.0/90.0-1)*100, res.PnlPct, 1e-9)
	require.NotNil(t, res.Bands)
	assert.Len(t, res.Bands.Defense, 3)
	assert.Len(t, res.Bands.Offense, 4)
}

func TestRunEmptyHoldings(t *testing.T) {
	sim := provider.NewSimClient(nil)
	defer sim.Close()

	o := New(sim, fastConfig(model.ModeDaily))
	out, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Watchlist)
	assert.Empty(t, out.Results)
}

func TestRunFiltersZeroShares(t *testing.T) {
	sim := provider.NewSimClient([]model.Position{
		{Symbol: "AAPL", AvgCost: 100, Shares: 50},
		{Symbol: "GONE", AvgCost: 35, Shares: 0},
	})
	defer sim.Close()
	sim.Bars["AAPL"] = map[model.Timeframe][]model.Bar{
		model.Timeframe1d: ascendingDailyBars(250, 80),
	}

	o := New(sim, fastConfig(model.ModeDaily))
	out, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, out.Watchlist)
	assert.NotContains(t, out.Results, "GONE")
}

func TestRunCancelled(t *testing.T) {
	sim := provider.NewSimClient(provider.DefaultSimPositions())
	defer sim.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(sim, fastConfig(model.ModeDaily))
	_, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// dupDoneClient replays a scripted history stream and duplicates every
// completion event, exercising the token-retirement path.
type dupDoneClient struct {
	positions []model.Position
	bars      map[model.Timeframe][]model.Bar
	events    chan provider.Event

	historyCalls int
}

func newDupDoneClient(positions []model.Position, bars map[model.Timeframe][]model.Bar) *dupDoneClient {
	return &dupDoneClient{
		positions: positions,
		bars:      bars,
		events:    make(chan provider.Event, 1024),
	}
}

func (d *dupDoneClient) Name() string                  { return "script" }
func (d *dupDoneClient) Events() <-chan provider.Event { return d.events }
func (d *dupDoneClient) Close() error                  { return nil }

func (d *dupDoneClient) RequestPositions() error {
	for _, p := range d.positions {
		d.events <- provider.PositionUpdate{Position: p}
	}
	d.events <- provider.PositionsDone{}
	return nil
}

func (d *dupDoneClient) RequestHistory(req provider.HistoryRequest) error {
	d.historyCalls++
	for _, b := range d.bars[req.Timeframe] {
		d.events <- provider.HistoricalBar{Token: req.Token, Bar: b}
	}
	d.events <- provider.HistoricalDone{Token: req.Token}
	d.events <- provider.HistoricalDone{Token: req.Token}
	return nil
}

func TestDuplicateCompletionProcessesOnce(t *testing.T) {
	client := newDupDoneClient(
		[]model.Position{{Symbol: "NVDA", AvgCost: 110, Shares: 80}},
		map[model.Timeframe][]model.Bar{
			model.Timeframe15m: flatIntradayBars(40, 120, 15*time.Minute),
			model.Timeframe1h:  flatIntradayBars(40, 120, time.Hour),
		},
	)

	o := New(client, fastConfig(model.ModeIntraday))
	out, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, client.historyCalls, "one request per timeframe, duplicates must not re-trigger")
	require.Len(t, out.Results, 1)
	res := out.Results["NVDA"]
	require.NotNil(t, res)
	assert.False(t, res.NoData)
	assert.Equal(t, model.GradeNeutral, res.Grade)
}

func TestSymbolStateReadiness(t *testing.T) {
	st := newSymbolState([]model.Timeframe{model.Timeframe15m, model.Timeframe1h})
	st.phase = PhaseRequested

	assert.False(t, st.ready())
	st.markComplete(model.Timeframe15m)
	assert.False(t, st.ready())
	assert.Equal(t, PhaseRequested, st.phase)

	st.markComplete(model.Timeframe15m) // duplicate
	assert.False(t, st.ready())

	st.markComplete(model.Timeframe1h)
	assert.True(t, st.ready())
	assert.Equal(t, PhaseReady, st.phase)
}
