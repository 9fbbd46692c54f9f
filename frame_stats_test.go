package main

import (
	"testing"
	"time"
)

func TestFrameStats_SummaryAfterWindow(t *testing.T) {
	start := time.Unix(1000, 0)
	s := NewFrameStats(start)
	now := start
	for i := 1; i <= frameStatsWindow; i++ {
		now = now.Add(16 * time.Millisecond)
		if _, ok := s.Record(now, 640, 480); ok {
			t.Fatalf("summary emitted after %d samples", i)
		}
	}

	now = now.Add(16 * time.Millisecond)
	sum, ok := s.Record(now, 640, 480)
	if !ok {
		t.Fatal("no summary after 101 samples")
	}
	if sum.AverageFrameTime != 16*time.Millisecond {
		t.Fatalf("average = %v, want 16ms", sum.AverageFrameTime)
	}
	if sum.FPS < 62.49 || sum.FPS > 62.51 {
		t.Fatalf("fps = %v, want 62.5", sum.FPS)
	}
	if sum.Width != 640 || sum.Height != 480 {
		t.Fatalf("summary size %dx%d", sum.Width, sum.Height)
	}
	if count, total := s.Samples(); count != 0 || total != 0 {
		t.Fatalf("not reset: count %d sum %v", count, total)
	}
	if s.Last() != sum {
		t.Fatal("Last does not report the emitted summary")
	}
}

func TestFrameStats_SecondWindowStartsFresh(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewFrameStats(now)
	emitted := 0
	for range 2 * (frameStatsWindow + 1) {
		now = now.Add(10 * time.Millisecond)
		if _, ok := s.Record(now, 1, 1); ok {
			emitted++
		}
	}
	if emitted != 2 {
		t.Fatalf("emitted %d summaries over two windows, want 2", emitted)
	}
}
