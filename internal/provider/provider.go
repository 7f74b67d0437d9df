// Package provider defines the asynchronous market-data contract: one
// acquisition request produces a stream of bar events followed by a
// completion event, delivered on a single event channel. Implementations
// own the channel and pump it from their own goroutine; the orchestrator
// is the only consumer.
package provider

import (
	"HoldingsRadar/internal/model"
)

// CodeNoSecurityDefinition is the provider error code for an instrument
// without a valid contract definition. It is terminal for the symbol.
const CodeNoSecurityDefinition = 200

// HistoryRequest identifies one (symbol, timeframe) acquisition. Token is
// the correlation id routing provider events back to the request.
type HistoryRequest struct {
	Token        string
	Symbol       string
	Timeframe    model.Timeframe
	LookbackDays int
}

// Event is a provider callback delivered on the event channel.
type Event interface{ providerEvent() }

// PositionUpdate delivers one held position from the snapshot stream.
type PositionUpdate struct {
	Position model.Position
}

// PositionsDone marks the end of the position snapshot.
type PositionsDone struct{}

// HistoricalBar delivers one bar for a pending history request.
type HistoricalBar struct {
	Token string
	Bar   model.Bar
}

// HistoricalDone marks a history request complete. The provider contract
// guarantees it arrives after all bars for the same token.
type HistoricalDone struct {
	Token string
}

// ProviderError surfaces a provider-side failure. Token is empty for
// errors not correlated to a request.
type ProviderError struct {
	Token   string
	Code    int
	Message string
}

func (PositionUpdate) providerEvent() {}
func (PositionsDone) providerEvent()  {}
func (HistoricalBar) providerEvent()  {}
func (HistoricalDone) providerEvent() {}
func (ProviderError) providerEvent()  {}

// Client is the market-data provider collaborator.
type Client interface {
	// Events returns the channel all callbacks are delivered on. The
	// channel is closed by Close.
	Events() <-chan Event

	// RequestPositions starts the position snapshot stream.
	RequestPositions() error

	// RequestHistory starts one historical bar stream.
	RequestHistory(req HistoryRequest) error

	// Name identifies the provider in logs.
	Name() string

	// Close releases the connection and closes the event channel.
	Close() error
}
