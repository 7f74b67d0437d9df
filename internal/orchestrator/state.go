package orchestrator

import "HoldingsRadar/internal/model"

// Phase is the per-symbol acquisition state. Transitions run strictly
// Pending → Requested → Ready → Processed; Processed is terminal.
type Phase int

const (
	PhasePending Phase = iota
	PhaseRequested
	PhaseReady
	PhaseProcessed
)

// symbolState tracks one symbol's acquisition progress: which timeframes
// the run mode expects, which have completed, and the bars received so far.
type symbolState struct {
	phase     Phase
	expected  map[model.Timeframe]bool
	completed map[model.Timeframe]bool
	bars      map[model.Timeframe][]model.Bar
}

func newSymbolState(timeframes []model.Timeframe) *symbolState {
	expected := make(map[model.Timeframe]bool, len(timeframes))
	for _, tf := range timeframes {
		expected[tf] = true
	}
	return &symbolState{
		phase:     PhasePending,
		expected:  expected,
		completed: make(map[model.Timeframe]bool),
		bars:      make(map[model.Timeframe][]model.Bar),
	}
}

func (st *symbolState) appendBar(tf model.Timeframe, bar model.Bar) {
	st.bars[tf] = append(st.bars[tf], bar)
}

// markComplete records a completion callback. Idempotent: duplicate
// completions for the same timeframe are absorbed.
func (st *symbolState) markComplete(tf model.Timeframe) {
	st.completed[tf] = true
	if st.phase == PhaseRequested && st.ready() {
		st.phase = PhaseReady
	}
}

// ready reports whether the completed set covers the expected set.
func (st *symbolState) ready() bool {
	for tf := range st.expected {
		if !st.completed[tf] {
			return false
		}
	}
	return true
}
