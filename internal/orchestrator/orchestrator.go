// Package orchestrator sequences the acquisition run: it reads the position
// snapshot, drives one symbol at a time through its timeframe requests,
// collects bars from the provider's event stream and finalizes a signal
// result per symbol. All state is owned by the single Run loop.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"HoldingsRadar/internal/bands"
	"HoldingsRadar/internal/classify"
	"HoldingsRadar/internal/indicator"
	"HoldingsRadar/internal/model"
	"HoldingsRadar/internal/provider"
)

const (
	swingLookback = 80
	minShares     = 1e-6
)

// Config is the explicit run configuration.
type Config struct {
	Mode model.RunMode
	// Throttle is the minimum spacing between symbols. Defaults to 1s.
	Throttle time.Duration
	// GraceDelay lets in-flight provider messages drain before the run
	// returns. Defaults to 2s.
	GraceDelay time.Duration
}

// Outcome is the finished run: the ordered watchlist and the per-symbol
// results. A symbol missing from Results had no usable data at all.
type Outcome struct {
	Mode      model.RunMode
	Watchlist []string
	Results   map[string]*model.SignalResult
}

type requestInfo struct {
	symbol    string
	timeframe model.Timeframe
}

// Orchestrator drives one acquisition run. Not reusable across runs.
type Orchestrator struct {
	client  provider.Client
	cfg     Config
	limiter *rate.Limiter

	positions map[string]model.Position
	watchlist []string
	states    map[string]*symbolState
	requests  map[string]requestInfo
	results   map[string]*model.SignalResult
	current   int
}

// New creates an orchestrator over the given provider client.
func New(client provider.Client, cfg Config) *Orchestrator {
	if cfg.Throttle <= 0 {
		cfg.Throttle = time.Second
	}
	if cfg.GraceDelay <= 0 {
		cfg.GraceDelay = 2 * time.Second
	}
	return &Orchestrator{
		client:    client,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Every(cfg.Throttle), 1),
		positions: make(map[string]model.Position),
		states:    make(map[string]*symbolState),
		requests:  make(map[string]requestInfo),
		results:   make(map[string]*model.SignalResult),
	}
}

// Run executes the whole acquisition sequence and blocks until the last
// symbol is processed, the context is cancelled, or the provider stream
// ends. The run cannot proceed without a position snapshot; an empty
// snapshot yields an empty outcome.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	log.Info().Str("mode", string(o.cfg.Mode)).Str("provider", o.client.Name()).Msg("acquisition run starting")
	if err := o.client.RequestPositions(); err != nil {
		return nil, fmt.Errorf("request positions: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-o.client.Events():
			if !ok {
				return nil, errors.New("provider event stream closed")
			}
			done, err := o.handle(ctx, ev)
			if err != nil {
				return nil, err
			}
			if done {
				o.drain(ctx)
				return o.outcome(), nil
			}
		}
	}
}

func (o *Orchestrator) outcome() *Outcome {
	return &Outcome{
		Mode:      o.cfg.Mode,
		Watchlist: o.watchlist,
		Results:   o.results,
	}
}

// drain absorbs stray provider messages for the grace delay so the
// connection can be torn down cleanly afterwards.
func (o *Orchestrator) drain(ctx context.Context) {
	timer := time.NewTimer(o.cfg.GraceDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case _, ok := <-o.client.Events():
			if !ok {
				return
			}
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev provider.Event) (bool, error) {
	switch e := ev.(type) {
	case provider.PositionUpdate:
		o.handlePosition(e.Position)
	case provider.PositionsDone:
		return o.handlePositionsDone(ctx)
	case provider.HistoricalBar:
		o.handleBar(e)
	case provider.HistoricalDone:
		return o.handleDone(ctx, e.Token)
	case provider.ProviderError:
		return o.handleError(ctx, e)
	}
	return false, nil
}

func (o *Orchestrator) handlePosition(p model.Position) {
	if p.Shares > -minShares && p.Shares < minShares {
		return
	}
	o.positions[p.Symbol] = p
}

func (o *Orchestrator) handlePositionsDone(ctx context.Context) (bool, error) {
	for symbol := range o.positions {
		o.watchlist = append(o.watchlist, symbol)
	}
	sort.Strings(o.watchlist)
	log.Info().Int("symbols", len(o.watchlist)).Msg("position snapshot complete")

	if len(o.watchlist) == 0 {
		log.Warn().Msg("no holdings to analyze")
		return true, nil
	}
	o.current = 0
	return o.requestCurrentSymbol(ctx)
}

// requestCurrentSymbol issues all timeframe requests for the symbol at the
// cursor, spaced by the inter-symbol throttle. If every request fails
// synchronously it processes the placeholder and advances in place.
func (o *Orchestrator) requestCurrentSymbol(ctx context.Context) (bool, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return false, err
	}

	symbol := o.watchlist[o.current]
	timeframes := o.cfg.Mode.Timeframes()
	st := newSymbolState(timeframes)
	st.phase = PhaseRequested
	o.states[symbol] = st

	for _, tf := range timeframes {
		req := provider.HistoryRequest{
			Token:        uuid.NewString(),
			Symbol:       symbol,
			Timeframe:    tf,
			LookbackDays: tf.LookbackDays(),
		}
		o.requests[req.Token] = requestInfo{symbol: symbol, timeframe: tf}
		log.Info().Str("symbol", symbol).Str("timeframe", string(tf)).Msg("requesting history")
		if err := o.client.RequestHistory(req); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Str("timeframe", string(tf)).Msg("history request failed")
			delete(o.requests, req.Token)
			o.placeholderFor(symbol, err.Error())
			st.markComplete(tf)
		}
	}
	if st.ready() {
		o.tryProcess(symbol)
		return o.tryAdvance(ctx, symbol)
	}
	return false, nil
}

func (o *Orchestrator) handleBar(e provider.HistoricalBar) {
	req, ok := o.requests[e.Token]
	if !ok {
		return
	}
	if st, ok := o.states[req.symbol]; ok {
		st.appendBar(req.timeframe, e.Bar)
	}
}

func (o *Orchestrator) handleDone(ctx context.Context, token string) (bool, error) {
	req, ok := o.requests[token]
	if !ok {
		// Duplicate or late completion for a retired request.
		return false, nil
	}
	delete(o.requests, token)

	st, ok := o.states[req.symbol]
	if !ok {
		return false, nil
	}
	log.Info().Str("symbol", req.symbol).Str("timeframe", string(req.timeframe)).
		Int("bars", len(st.bars[req.timeframe])).Msg("history complete")

	st.markComplete(req.timeframe)
	o.tryProcess(req.symbol)
	return o.tryAdvance(ctx, req.symbol)
}

func (o *Orchestrator) handleError(ctx context.Context, e provider.ProviderError) (bool, error) {
	req, pending := o.requests[e.Token]
	if e.Token == "" || !pending {
		log.Warn().Int("code", e.Code).Str("msg", e.Message).Msg("provider error")
		return false, nil
	}

	// Terminal per-symbol failure: synthesize a placeholder result, mark
	// the outstanding timeframe complete so the ready check still fires,
	// and let the sequencer advance.
	delete(o.requests, e.Token)
	log.Warn().Str("symbol", req.symbol).Str("timeframe", string(req.timeframe)).
		Int("code", e.Code).Str("msg", e.Message).Msg("symbol unavailable, skipping")

	o.placeholderFor(req.symbol, e.Message)
	if st, ok := o.states[req.symbol]; ok {
		st.markComplete(req.timeframe)
		o.tryProcess(req.symbol)
		return o.tryAdvance(ctx, req.symbol)
	}
	return false, nil
}

// placeholderFor stores the terminal, non-actionable result for a symbol
// the provider rejected. Metrics stay zeroed.
func (o *Orchestrator) placeholderFor(symbol, reason string) {
	if _, exists := o.results[symbol]; exists {
		return
	}
	pos := o.positions[symbol]
	o.results[symbol] = &model.SignalResult{
		Symbol: symbol,
		Grade:  model.GradeNone,
		NoData: true,
		Cost:   pos.AvgCost,
		Shares: pos.Shares,
		Reason: reason,
		Action: "无法获取历史数据（可能是结构性产品 / 债券 / 现金），本工具只分析普通股票。",
	}
}

// tryProcess finalizes a symbol the first time its completed timeframes
// cover the expected set. Idempotent against duplicate completions.
func (o *Orchestrator) tryProcess(symbol string) {
	st, ok := o.states[symbol]
	if !ok || st.phase == PhaseProcessed || !st.ready() {
		return
	}
	st.phase = PhaseProcessed

	if _, exists := o.results[symbol]; exists {
		// Placeholder already recorded by the error path.
		return
	}

	var res *model.SignalResult
	if o.cfg.Mode == model.ModeIntraday {
		res = o.processIntraday(symbol, st)
	} else {
		res = o.processDaily(symbol, st)
	}
	if res != nil {
		o.results[symbol] = res
	}
}

// tryAdvance moves the cursor past the symbol once it is fully collected
// and processed, requesting the next symbol or finishing the run.
func (o *Orchestrator) tryAdvance(ctx context.Context, symbol string) (bool, error) {
	st, ok := o.states[symbol]
	if !ok || !st.ready() {
		return false, nil
	}
	if o.current >= len(o.watchlist) || o.watchlist[o.current] != symbol {
		return false, nil
	}

	o.current++
	if o.current < len(o.watchlist) {
		return o.requestCurrentSymbol(ctx)
	}
	log.Info().Int("symbols", len(o.watchlist)).Msg("all symbols processed")
	return true, nil
}

func (o *Orchestrator) processIntraday(symbol string, st *symbolState) *model.SignalResult {
	bars15 := st.bars[model.Timeframe15m]
	bars1h := st.bars[model.Timeframe1h]
	if len(bars15) == 0 && len(bars1h) == 0 {
		return nil
	}

	v15 := classify.Single(bars15)
	v1h := classify.Single(bars1h)
	combined, comment := classify.Combine(v15.Grade, v1h.Grade)

	vwap := indicator.SessionVWAP(bars15)
	comment += classify.VWAPBias(v15.LastClose, vwap)

	pos := o.positions[symbol]
	last := v15.LastClose
	if last == 0 {
		last = v1h.LastClose
	}

	res := &model.SignalResult{
		Symbol:     symbol,
		Grade:      combined,
		Grade15m:   v15.Grade,
		Grade1h:    v1h.Grade,
		VWAP:       vwap,
		LastPrice:  last,
		LastVolume: v15.LastVolume,
		MARef:      v15.MARef,
		VolRef:     v15.VolRef,
		Cost:       pos.AvgCost,
		Shares:     pos.Shares,
		Reason:     v15.Reason,
		Comment:    comment,
	}
	o.finishResult(res, last)

	// Swing range: prefer the hourly bars, fall back to 15m.
	swingBars := bars1h
	if len(swingBars) == 0 {
		swingBars = bars15
	}
	if low, high, ok := indicator.RecentHighLow(swingBars, swingLookback); ok {
		res.Bands = bands.Generate(bands.Input{
			Cost:      pos.AvgCost,
			LastPrice: last,
			TrendRef:  v15.MARef,
			SwingLow:  low,
			SwingHigh: high,
		})
	} else {
		res.Bands = bands.Generate(bands.Input{Cost: pos.AvgCost, LastPrice: last, TrendRef: v15.MARef})
	}
	return res
}

func (o *Orchestrator) processDaily(symbol string, st *symbolState) *model.SignalResult {
	barsDaily := st.bars[model.Timeframe1d]
	if len(barsDaily) == 0 {
		return nil
	}

	pos := o.positions[symbol]
	last := barsDaily[len(barsDaily)-1].Close

	res := &model.SignalResult{
		Symbol:    symbol,
		LastPrice: last,
		Cost:      pos.AvgCost,
		Shares:    pos.Shares,
	}

	var trendRef float64
	ind, err := indicator.Compute(barsDaily)
	if err != nil {
		res.Grade = model.GradeNeutral
		res.Trend = model.TrendRange
		res.Reason = "日线历史不足，无法计算完整指标，自动观望"
		res.Comment = res.Reason
	} else {
		grade, comment := indicator.Classify(ind)
		res.Grade = grade
		res.Trend = indicator.TrendOf(ind)
		res.MARef = ind.EMA20
		res.MA50 = ind.EMA50
		res.MA200 = ind.EMA200
		res.RSI14 = ind.RSI14
		res.BBUpper = ind.BBUpper
		res.BBMiddle = ind.BBMiddle
		res.BBLower = ind.BBLower
		res.VolRef = ind.Vol20
		res.LastVolume = ind.LastVolume
		res.Reason = comment
		res.Comment = comment
		trendRef = ind.EMA20
	}

	o.finishResult(res, last)
	res.Action = fmt.Sprintf("%s （日线趋势：%s；技术面：%s）", res.Action, res.Trend.Desc(), res.Comment)

	low, high, ok := indicator.RecentHighLow(barsDaily, swingLookback)
	in := bands.Input{Cost: pos.AvgCost, LastPrice: last, TrendRef: trendRef}
	if ok {
		in.SwingLow = low
		in.SwingHigh = high
	}
	res.Bands = bands.Generate(in)
	return res
}

// finishResult fills P&L, position value and the base action line.
func (o *Orchestrator) finishResult(res *model.SignalResult, last float64) {
	hasPnl := res.Cost > 0 && last > 0
	if hasPnl {
		res.PnlPct = (last/res.Cost - 1.0) * 100.0
	}
	if last > 0 {
		res.PositionValue = last * res.Shares
	}
	res.Action = classify.Action(res.Grade, res.PnlPct, hasPnl)
}
