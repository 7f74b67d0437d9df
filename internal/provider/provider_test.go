package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HoldingsRadar/internal/model"
)

func collectEvents(t *testing.T, events <-chan Event, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ev := <-events:
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d/%d events", len(out), n)
		}
	}
	return out
}

func TestSimClientPositionStream(t *testing.T) {
	sim := NewSimClient([]model.Position{
		{Symbol: "AAPL", AvgCost: 100, Shares: 10},
		{Symbol: "MSFT", AvgCost: 200, Shares: 5},
	})
	defer sim.Close()

	require.NoError(t, sim.RequestPositions())
	events := collectEvents(t, sim.Events(), 3)

	p1, ok := events[0].(PositionUpdate)
	require.True(t, ok)
	assert.Equal(t, "AAPL", p1.Position.Symbol)
	_, ok = events[2].(PositionsDone)
	assert.True(t, ok)
}

func TestSimClientHistoryStream(t *testing.T) {
	sim := NewSimClient([]model.Position{{Symbol: "AAPL", AvgCost: 100, Shares: 10}})
	defer sim.Close()
	scripted := []model.Bar{
		{Time: time.Now().Add(-time.Hour), Close: 99, Volume: 1000},
		{Time: time.Now(), Close: 100, Volume: 1100},
	}
	sim.Bars["AAPL"] = map[model.Timeframe][]model.Bar{model.Timeframe1d: scripted}

	require.NoError(t, sim.RequestHistory(HistoryRequest{Token: "tok1", Symbol: "AAPL", Timeframe: model.Timeframe1d}))
	events := collectEvents(t, sim.Events(), 3)

	for i := 0; i < 2; i++ {
		bar, ok := events[i].(HistoricalBar)
		require.True(t, ok)
		assert.Equal(t, "tok1", bar.Token)
		assert.Equal(t, scripted[i].Close, bar.Bar.Close)
	}
	done, ok := events[2].(HistoricalDone)
	require.True(t, ok)
	assert.Equal(t, "tok1", done.Token)
}

func TestSimClientRejection(t *testing.T) {
	sim := NewSimClient([]model.Position{{Symbol: "BNDX", AvgCost: 48, Shares: 100}})
	defer sim.Close()
	sim.Rejected["BNDX"] = true

	require.NoError(t, sim.RequestHistory(HistoryRequest{Token: "tok2", Symbol: "BNDX", Timeframe: model.Timeframe1d}))
	events := collectEvents(t, sim.Events(), 1)

	perr, ok := events[0].(ProviderError)
	require.True(t, ok)
	assert.Equal(t, "tok2", perr.Token)
	assert.Equal(t, CodeNoSecurityDefinition, perr.Code)
	assert.Contains(t, perr.Message, "BNDX")
}

func TestSimClientGeneratesBarsWhenUnscripted(t *testing.T) {
	sim := NewSimClient([]model.Position{{Symbol: "NVDA", AvgCost: 120, Shares: 10}})
	defer sim.Close()

	require.NoError(t, sim.RequestHistory(HistoryRequest{
		Token: "tok3", Symbol: "NVDA", Timeframe: model.Timeframe1h, LookbackDays: 10,
	}))

	var bars int
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-sim.Events():
			if _, done := ev.(HistoricalDone); done {
				assert.Equal(t, 70, bars, "10 days x 7 hourly bars")
				return
			}
			bars++
		case <-timeout:
			t.Fatal("no completion event")
		}
	}
}

func TestSimClientCloseIdempotent(t *testing.T) {
	sim := NewSimClient(nil)
	require.NoError(t, sim.Close())
	require.NoError(t, sim.Close())
	_, open := <-sim.Events()
	assert.False(t, open)
}

func TestHTTPClientFetchesBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/bars":
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			// Out of order on purpose; the client must sort.
			w.Write([]byte(`[
				{"timestamp": 1700086400, "open": 101, "high": 103, "low": 100, "close": 102, "volume": 900},
				{"timestamp": 1700000000, "open": 100, "high": 102, "low": 99, "close": 101, "volume": 800}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", "")
	defer c.Close()

	require.NoError(t, c.RequestHistory(HistoryRequest{
		Token: "tok", Symbol: "AAPL", Timeframe: model.Timeframe1d, LookbackDays: 365,
	}))
	events := collectEvents(t, c.Events(), 3)

	first, ok := events[0].(HistoricalBar)
	require.True(t, ok)
	assert.Equal(t, 101.0, first.Bar.Close)
	second := events[1].(HistoricalBar)
	assert.Equal(t, 102.0, second.Bar.Close)
	assert.True(t, first.Bar.Time.Before(second.Bar.Time))
	_, ok = events[2].(HistoricalDone)
	assert.True(t, ok)
}

func TestHTTPClientNotFoundMapsToNoSecurityDefinition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	defer c.Close()

	require.NoError(t, c.RequestHistory(HistoryRequest{Token: "tok", Symbol: "BNDX", Timeframe: model.Timeframe1d}))
	events := collectEvents(t, c.Events(), 1)

	perr, ok := events[0].(ProviderError)
	require.True(t, ok)
	assert.Equal(t, "tok", perr.Token)
	assert.Equal(t, CodeNoSecurityDefinition, perr.Code)
}

func TestHTTPClientPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/positions", r.URL.Path)
		w.Write([]byte(`[{"symbol": "AAPL", "avg_cost": 186.4, "shares": 50}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	defer c.Close()

	require.NoError(t, c.RequestPositions())
	events := collectEvents(t, c.Events(), 2)

	pos, ok := events[0].(PositionUpdate)
	require.True(t, ok)
	assert.Equal(t, model.Position{Symbol: "AAPL", AvgCost: 186.4, Shares: 50}, pos.Position)
	_, ok = events[1].(PositionsDone)
	assert.True(t, ok)
}

func TestHTTPClientPositionsFailureStillCompletes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	defer c.Close()

	require.NoError(t, c.RequestPositions())
	events := collectEvents(t, c.Events(), 2)

	_, ok := events[0].(ProviderError)
	assert.True(t, ok)
	_, ok = events[1].(PositionsDone)
	assert.True(t, ok, "snapshot must terminate even on failure")
}
