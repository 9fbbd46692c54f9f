package main

import "time"

const frameStatsWindow = 100

type FrameSummary struct {
	AverageFrameTime time.Duration
	FPS              float64
	Width            int
	Height           int
}

// FrameStats accumulates inter-frame durations and yields one summary each
// time more than frameStatsWindow samples have been recorded.
type FrameStats struct {
	count uint32
	sum   time.Duration
	last  time.Time
	prev  FrameSummary
}

func NewFrameStats(now time.Time) *FrameStats {
	return &FrameStats{last: now}
}

func (s *FrameStats) Record(now time.Time, width, height int) (FrameSummary, bool) {
	s.sum += now.Sub(s.last)
	s.count++
	s.last = now

	if s.count <= frameStatsWindow {
		return FrameSummary{}, false
	}
	summary := FrameSummary{
		AverageFrameTime: s.sum / time.Duration(s.count),
		Width:            width,
		Height:           height,
	}
	if s.sum > 0 {
		summary.FPS = float64(s.count) / s.sum.Seconds()
	}
	s.sum = 0
	s.count = 0
	s.prev = summary
	return summary, true
}

func (s *FrameStats) Samples() (uint32, time.Duration) {
	return s.count, s.sum
}

// Last returns the most recent summary, zero before the first one.
func (s *FrameStats) Last() FrameSummary {
	return s.prev
}
