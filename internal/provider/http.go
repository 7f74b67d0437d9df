package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"HoldingsRadar/internal/model"
)

// HTTPClient adapts a synchronous REST gateway into the asynchronous
// bar-stream/completion contract: each request is served by a goroutine
// that fetches once and replays the response as a stream of events.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	events    chan Event
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewHTTPClient creates a gateway client with optional proxy support.
func NewHTTPClient(baseURL, apiKey, proxyURL string) *HTTPClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		events: make(chan Event, 256),
		closed: make(chan struct{}),
	}
}

func (c *HTTPClient) Name() string { return "gateway" }

func (c *HTTPClient) Events() <-chan Event { return c.events }

// Close stops event delivery, waits for in-flight fetches and closes the
// event channel. Safe to call more than once.
func (c *HTTPClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.wg.Wait()
		close(c.events)
	})
	return nil
}

func (c *HTTPClient) emit(ev Event) {
	select {
	case <-c.closed:
	case c.events <- ev:
	}
}

// gwPosition is the expected JSON shape of one gateway position.
type gwPosition struct {
	Symbol  string  `json:"symbol"`
	AvgCost float64 `json:"avg_cost"`
	Shares  float64 `json:"shares"`
}

// gwBar is the expected JSON shape of one gateway bar.
type gwBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (c *HTTPClient) RequestPositions() error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		positions, err := c.fetchPositions()
		if err != nil {
			log.Error().Err(err).Msg("position snapshot failed")
			c.emit(ProviderError{Message: fmt.Sprintf("fetch positions: %v", err)})
			c.emit(PositionsDone{})
			return
		}
		for _, p := range positions {
			c.emit(PositionUpdate{Position: p})
		}
		c.emit(PositionsDone{})
	}()
	return nil
}

func (c *HTTPClient) RequestHistory(req HistoryRequest) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		bars, err := c.fetchBars(req.Symbol, req.Timeframe, req.LookbackDays)
		if err != nil {
			code := 0
			if fe, ok := err.(*fetchError); ok && fe.status == http.StatusNotFound {
				code = CodeNoSecurityDefinition
			}
			c.emit(ProviderError{Token: req.Token, Code: code, Message: err.Error()})
			return
		}
		for _, b := range bars {
			c.emit(HistoricalBar{Token: req.Token, Bar: b})
		}
		c.emit(HistoricalDone{Token: req.Token})
	}()
	return nil
}

type fetchError struct {
	status int
	body   string
}

func (e *fetchError) Error() string {
	return fmt.Sprintf("gateway: status %d, body: %s", e.status, e.body)
}

func (c *HTTPClient) fetchPositions() ([]model.Position, error) {
	endpoint := fmt.Sprintf("%s/api/v1/positions", c.BaseURL)
	body, err := c.get(endpoint)
	if err != nil {
		return nil, err
	}
	var raw []gwPosition
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	positions := make([]model.Position, 0, len(raw))
	for _, p := range raw {
		positions = append(positions, model.Position{
			Symbol:  p.Symbol,
			AvgCost: p.AvgCost,
			Shares:  p.Shares,
		})
	}
	return positions, nil
}

func (c *HTTPClient) fetchBars(symbol string, tf model.Timeframe, days int) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&interval=%s&days=%d",
		c.BaseURL, url.QueryEscape(symbol), tf, days)
	body, err := c.get(endpoint)
	if err != nil {
		return nil, err
	}
	var raw []gwBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = model.Bar{
			Time:   time.Unix(b.Timestamp, 0),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (c *HTTPClient) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &fetchError{status: resp.StatusCode, body: string(body)}
	}
	return body, nil
}
