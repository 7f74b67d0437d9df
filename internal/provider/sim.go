package provider

import (
	"fmt"
	"sync"
	"time"

	"HoldingsRadar/internal/model"
)

// SimClient returns scripted or generated data for development and testing.
// Scripted bars take precedence; otherwise a deterministic drifting series
// is generated around each position's cost basis.
type SimClient struct {
	Positions []model.Position
	// Bars overrides generation per symbol and timeframe.
	Bars map[string]map[model.Timeframe][]model.Bar
	// Rejected symbols fail every history request with the
	// no-security-definition code.
	Rejected map[string]bool

	events    chan Event
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSimClient creates a simulator over the given holdings.
func NewSimClient(positions []model.Position) *SimClient {
	return &SimClient{
		Positions: positions,
		Bars:      make(map[string]map[model.Timeframe][]model.Bar),
		Rejected:  make(map[string]bool),
		events:    make(chan Event, 256),
		closed:    make(chan struct{}),
	}
}

// DefaultSimPositions is the holdings set used by --sim runs.
func DefaultSimPositions() []model.Position {
	return []model.Position{
		{Symbol: "AAPL", AvgCost: 186.40, Shares: 50},
		{Symbol: "MSFT", AvgCost: 402.10, Shares: 20},
		{Symbol: "NVDA", AvgCost: 118.75, Shares: 80},
	}
}

func (s *SimClient) Name() string { return "sim" }

func (s *SimClient) Events() <-chan Event { return s.events }

func (s *SimClient) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.wg.Wait()
		close(s.events)
	})
	return nil
}

func (s *SimClient) emit(ev Event) {
	select {
	case <-s.closed:
	case s.events <- ev:
	}
}

func (s *SimClient) RequestPositions() error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, p := range s.Positions {
			s.emit(PositionUpdate{Position: p})
		}
		s.emit(PositionsDone{})
	}()
	return nil
}

func (s *SimClient) RequestHistory(req HistoryRequest) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.Rejected[req.Symbol] {
			s.emit(ProviderError{
				Token:   req.Token,
				Code:    CodeNoSecurityDefinition,
				Message: fmt.Sprintf("No security definition has been found for %s", req.Symbol),
			})
			return
		}
		bars := s.scriptedBars(req.Symbol, req.Timeframe)
		if bars == nil {
			bars = GenerateBars(s.costOf(req.Symbol), req.Timeframe, req.LookbackDays)
		}
		for _, b := range bars {
			s.emit(HistoricalBar{Token: req.Token, Bar: b})
		}
		s.emit(HistoricalDone{Token: req.Token})
	}()
	return nil
}

func (s *SimClient) scriptedBars(symbol string, tf model.Timeframe) []model.Bar {
	if byTF, ok := s.Bars[symbol]; ok {
		return byTF[tf]
	}
	return nil
}

func (s *SimClient) costOf(symbol string) float64 {
	for _, p := range s.Positions {
		if p.Symbol == symbol {
			return p.AvgCost
		}
	}
	return 100
}

// GenerateBars produces a deterministic drifting bar series around the
// given base price, one bar per step of the timeframe within the lookback.
func GenerateBars(basePrice float64, tf model.Timeframe, lookbackDays int) []model.Bar {
	step := 15 * time.Minute
	perDay := 26
	switch tf {
	case model.Timeframe1h:
		step = time.Hour
		perDay = 7
	case model.Timeframe1d:
		step = 24 * time.Hour
		perDay = 1
	}
	count := lookbackDays * perDay
	if count > 400 {
		count = 400
	}

	bars := make([]model.Bar, count)
	now := time.Now().Truncate(step)
	for i := 0; i < count; i++ {
		// Mild drift with a deterministic ripple.
		drift := float64(i-count/2) * 0.0008
		ripple := 0.004 * float64((i*7)%5-2)
		p := basePrice * (1 + drift + ripple)
		bars[i] = model.Bar{
			Time:   now.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: float64(900000 + (i*31)%200000),
		}
	}
	return bars
}
