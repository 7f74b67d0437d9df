// Package scheduler drives recurring discrete polls: an intraday cron
// during the session and a daily cron after the close. Each firing runs
// one complete acquisition; nothing streams between firings.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"HoldingsRadar/internal/marketclock"
	"HoldingsRadar/internal/model"
)

// RunFunc executes one poll in the given mode.
type RunFunc func(mode model.RunMode)

// Scheduler manages the cron entries.
type Scheduler struct {
	cron *cron.Cron
	run  RunFunc
}

// New creates a scheduler around the given poll function.
func New(run RunFunc) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		run:  run,
	}
}

// Register installs the intraday and daily entries.
func (s *Scheduler) Register(intradayCron, dailyCron string) error {
	if _, err := s.cron.AddFunc(intradayCron, s.intradayTask); err != nil {
		return fmt.Errorf("register intraday task: %w", err)
	}
	if _, err := s.cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) intradayTask() {
	// The cron expression approximates session hours; the clock check
	// catches holidays and timezone drift.
	if !marketclock.InSession(time.Now()) {
		log.Info().Msg("market closed, skipping intraday poll")
		return
	}
	log.Info().Msg("running intraday poll")
	s.run(model.ModeIntraday)
}

func (s *Scheduler) dailyTask() {
	log.Info().Msg("running daily poll")
	s.run(model.ModeDaily)
}
