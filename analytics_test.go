package main

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, zap.NewNop())

	for i := 0; i < 3; i++ {
		a.Track(RunEvent{RunID: "r1", Kind: "enemy_killed", GameTime: float64(i)})
	}
	a.Track(RunEvent{RunID: "r1", Kind: EvtRunEnd, Detail: "$5,000"})
	a.Track(RunEvent{RunID: "r2", Kind: EvtRunStart})
	a.Stop()

	counts, err := a.EventCounts(context.Background(), "r1")
	if err != nil {
		t.Fatalf("EventCounts: %v", err)
	}
	if counts["enemy_killed"] != 3 || counts[EvtRunEnd] != 1 || len(counts) != 2 {
		t.Errorf("counts = %v", counts)
	}
	if a.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0", a.Dropped())
	}
}

func TestAnalyticsFlushesFullBatch(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, zap.NewNop())

	for i := 0; i < analyticsBatchSize*2; i++ {
		a.Track(RunEvent{RunID: "big", Kind: "tick"})
	}
	a.Stop()

	counts, err := a.EventCounts(context.Background(), "big")
	if err != nil {
		t.Fatalf("EventCounts: %v", err)
	}
	if counts["tick"] != analyticsBatchSize*2 {
		t.Errorf("tick events = %d, want %d", counts["tick"], analyticsBatchSize*2)
	}
}

func TestAnalyticsWithoutDatabase(t *testing.T) {
	a := NewAnalytics(nil, zap.NewNop())
	a.Track(RunEvent{RunID: "r", Kind: EvtRunStart})
	a.Stop()

	counts, err := a.EventCounts(context.Background(), "r")
	if counts != nil || err != nil {
		t.Errorf("EventCounts = %v, %v; want nil, nil", counts, err)
	}
}
