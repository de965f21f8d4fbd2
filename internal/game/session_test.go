package game

import (
	"errors"
	"geo-jigsaw/internal/clock"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/registry"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fp(v float64) *float64 { return &v }

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, _, err := registry.Load(domain.Country{ID: "us", Name: "United States"}, []registry.RegionData{
		{ID: 3, Name: "Ohio", CorrectX: fp(900), CorrectY: fp(300)},
		{ID: 7, Name: "Texas", CorrectX: fp(200), CorrectY: fp(200)},
		{ID: 9, Name: "Maine", CorrectX: fp(1400), CorrectY: fp(80)},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	return reg
}

func newSession(t *testing.T, d domain.Difficulty, limit time.Duration) (*Session, *clock.Manual) {
	t.Helper()
	m := clock.NewManual(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s := New("g1", testRegistry(t), Options{Difficulty: d, TimeLimit: limit}, m, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, m
}

func placeAll(s *Session) {
	for _, r := range s.Snapshot().Regions {
		s.PlacePiece(r.ID, r.Target, 0)
	}
}

func TestScenarioAAcceptSnaps(t *testing.T) {
	s, _ := newSession(t, domain.DifficultyEasy, 0)

	res := s.PlacePiece(7, domain.Point{X: 230, Y: 230}, 0)
	if !res.Accepted {
		t.Fatalf("drop rejected: %s", res.Reason)
	}
	r, _ := s.Region(7)
	if !r.IsPlaced || r.Current == nil || *r.Current != (domain.Point{X: 200, Y: 200}) {
		t.Fatalf("region not snapped: %+v", r)
	}
	snap := s.Snapshot()
	if len(snap.PlacedPieces) != 1 || snap.PlacedPieces[0] != 7 {
		t.Errorf("PlacedPieces = %v, want [7]", snap.PlacedPieces)
	}
	if len(snap.DroppedItems) != 1 || snap.DroppedItems[0].Position != (domain.Point{X: 200, Y: 200}) {
		t.Errorf("DroppedItems = %+v", snap.DroppedItems)
	}
}

func TestScenarioBRejectLeavesRegionUnplaced(t *testing.T) {
	s, m := newSession(t, domain.DifficultyEasy, 0)

	res := s.PlacePiece(7, domain.Point{X: 600, Y: 600}, 0)
	if res.Accepted || res.Reason != domain.ReasonOutOfTolerance {
		t.Fatalf("got %+v, want OutOfTolerance", res)
	}
	if r, _ := s.Region(7); r.IsPlaced || r.Current != nil {
		t.Errorf("region mutated by rejection: %+v", r)
	}
	snap := s.Snapshot()
	if len(snap.Notifications) != 1 || snap.Notifications[0].Kind != domain.NotificationError {
		t.Fatalf("Notifications = %+v, want one error", snap.Notifications)
	}

	m.Advance(2999 * time.Millisecond)
	if len(s.Snapshot().Notifications) != 1 {
		t.Fatal("error popup expired early")
	}
	m.Advance(time.Millisecond)
	if n := s.Snapshot().Notifications; len(n) != 0 {
		t.Errorf("error popup still visible after 3s: %+v", n)
	}
}

func TestScenarioCMediumWrongPiece(t *testing.T) {
	s, _ := newSession(t, domain.DifficultyMedium, 0)
	if err := s.ApplyHint(3); err != nil {
		t.Fatal(err)
	}

	res := s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)
	if res.Reason != domain.ReasonWrongPiece {
		t.Fatalf("Reason = %s, want wrong_piece", res.Reason)
	}
	if r, _ := s.Region(7); r.IsPlaced {
		t.Error("wrong piece was placed")
	}

	res = s.PlacePiece(3, domain.Point{X: 900, Y: 300}, 0)
	if !res.Accepted {
		t.Fatalf("hinted piece rejected: %s", res.Reason)
	}
	snap := s.Snapshot()
	if snap.CurrentTarget != nil || snap.HintPopup {
		t.Errorf("hint not cleared after placing target: target=%v popup=%v", snap.CurrentTarget, snap.HintPopup)
	}
}

func TestScenarioDHardRotationBoundary(t *testing.T) {
	s, _ := newSession(t, domain.DifficultyHard, 0)

	if res := s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 21); res.Accepted {
		t.Fatal("rotation 21 accepted")
	}
	if res := s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 20); !res.Accepted {
		t.Fatalf("rotation 20 rejected: %s", res.Reason)
	}
	if r, _ := s.Region(7); r.Rotation != 0 {
		t.Errorf("placed rotation = %d, want snapped to 0", r.Rotation)
	}
}

func TestScenarioECompletionExactlyOnce(t *testing.T) {
	s, m := newSession(t, domain.DifficultyEasy, time.Minute)
	finishes := 0
	s.OnFinish(func(snap domain.GameSnapshot) {
		finishes++
		if snap.State != domain.GameStateCompleted {
			t.Errorf("finish state = %s", snap.State)
		}
	})

	m.Advance(42 * time.Second)
	placeAll(s)

	snap := s.Snapshot()
	if !snap.IsCompleted() || snap.Score == nil || snap.EndTime == nil {
		t.Fatalf("not completed: %+v", snap)
	}
	if *snap.Score != 958 {
		t.Errorf("Score = %d, want 958", *snap.Score)
	}
	end, score := *snap.EndTime, *snap.Score

	m.Advance(10 * time.Second)
	if s.CompleteGame() {
		t.Error("second CompleteGame reported a transition")
	}
	res := s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)
	if res.Accepted || res.Reason.UserVisible() {
		t.Errorf("drop after completion = %+v, want silent no-op", res)
	}

	snap = s.Snapshot()
	if !snap.EndTime.Equal(end) || *snap.Score != score {
		t.Errorf("endTime/score changed after completion")
	}
	m.Advance(2 * time.Minute)
	if st := s.State(); st != domain.GameStateCompleted {
		t.Errorf("state = %s after time limit passed, want completed", st)
	}
	if finishes != 1 {
		t.Errorf("finish hooks ran %d times, want 1", finishes)
	}
}

func TestTimeUpFreezesPlacements(t *testing.T) {
	s, m := newSession(t, domain.DifficultyEasy, 5*time.Second)
	s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)

	m.Advance(5 * time.Second)
	if st := s.State(); st != domain.GameStateTimeUp {
		t.Fatalf("state = %s, want time_up", st)
	}
	if res := s.PlacePiece(3, domain.Point{X: 900, Y: 300}, 0); res.Reason != domain.ReasonFinished {
		t.Errorf("drop after time-up = %s, want finished", res.Reason)
	}
	if r, _ := s.Region(7); !r.IsPlaced {
		t.Error("time-up undid an earlier placement")
	}
	if s.CompleteGame() {
		t.Error("completion fired after time-up")
	}
	if snap := s.Snapshot(); snap.Score != nil {
		t.Errorf("score set on time-up: %d", *snap.Score)
	}
}

func TestAlreadyPlacedIsSilent(t *testing.T) {
	s, _ := newSession(t, domain.DifficultyEasy, 0)
	s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)
	before := s.Snapshot()

	res := s.PlacePiece(7, domain.Point{X: 205, Y: 205}, 0)
	if res.Reason != domain.ReasonAlreadyPlaced {
		t.Fatalf("Reason = %s, want already_placed", res.Reason)
	}
	after := s.Snapshot()
	if len(after.PlacedPieces) != len(before.PlacedPieces) {
		t.Error("already placed piece counted twice")
	}
	for _, n := range after.Notifications {
		if n.Kind == domain.NotificationError {
			t.Error("already placed drop raised an error popup")
		}
	}
}

func TestPlaceBeforeStart(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	s := New("g", testRegistry(t), Options{Difficulty: domain.DifficultyEasy}, m, zerolog.Nop())
	if res := s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0); res.Reason != domain.ReasonNotStarted {
		t.Fatalf("Reason = %s, want not_started", res.Reason)
	}
	if s.CompleteGame() {
		t.Error("CompleteGame succeeded before start")
	}
}

func TestCompleteGameRequiresEveryPiece(t *testing.T) {
	s, m := newSession(t, domain.DifficultyEasy, 0)
	finishes := 0
	s.OnFinish(func(domain.GameSnapshot) { finishes++ })

	if s.CompleteGame() {
		t.Fatal("CompleteGame finished an empty board")
	}
	s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)
	if s.CompleteGame() {
		t.Fatal("CompleteGame finished with pieces left in the tray")
	}
	snap := s.Snapshot()
	if snap.State != domain.GameStateRunning || snap.Score != nil || snap.EndTime != nil {
		t.Fatalf("state = %s, score = %v, end = %v; want running with no score", snap.State, snap.Score, snap.EndTime)
	}
	if finishes != 0 {
		t.Errorf("finish hooks ran %d times", finishes)
	}

	m.Advance(10 * time.Second)
	placeAll(s)
	if s.State() != domain.GameStateCompleted || finishes != 1 {
		t.Errorf("state = %s, finishes = %d after placing everything", s.State(), finishes)
	}
}

func TestResetKeepsIdentities(t *testing.T) {
	s, m := newSession(t, domain.DifficultyHard, time.Minute)
	before := s.Snapshot().Regions
	s.ApplyHint(9)
	s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)
	if _, err := s.RotateBy(3, 24); err != nil {
		t.Fatal(err)
	}
	m.Advance(10 * time.Second)

	if err := s.ResetGame(); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.State != domain.GameStateReady || snap.HintsUsed != 0 || len(snap.PlacedPieces) != 0 || snap.Score != nil {
		t.Fatalf("reset left state behind: %+v", snap)
	}
	for i, r := range snap.Regions {
		if r.ID != before[i].ID || r.Target != before[i].Target || r.IsPlaced || r.Rotation != 0 {
			t.Errorf("region %d after reset = %+v, want %+v unplaced", i, r, before[i])
		}
	}
	if m.Pending() != 0 {
		t.Errorf("%d timers survived reset", m.Pending())
	}

	m.Advance(5 * time.Minute)
	if st := s.State(); st != domain.GameStateReady {
		t.Errorf("stale timer changed state to %s", st)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if res := s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0); !res.Accepted {
		t.Errorf("placing after reset failed: %s", res.Reason)
	}
}

func TestRotationRules(t *testing.T) {
	easy, _ := newSession(t, domain.DifficultyEasy, 0)
	if _, err := easy.Rotate(7, 30); !errors.Is(err, ErrRotationDisabled) {
		t.Errorf("easy Rotate err = %v, want ErrRotationDisabled", err)
	}

	hard, _ := newSession(t, domain.DifficultyVeryHard, 0)
	got, err := hard.RotateBy(7, -12)
	if err != nil || got != 348 {
		t.Fatalf("RotateBy(-12) = %d, %v, want 348", got, err)
	}
	if res := hard.PlacePiece(7, domain.Point{X: 200, Y: 200}, got); !res.Accepted {
		t.Fatalf("12° off accepted at very hard bound: %s", res.Reason)
	}
	if _, err := hard.Rotate(7, 0); !errors.Is(err, ErrRegionPlaced) {
		t.Errorf("rotating placed region err = %v, want ErrRegionPlaced", err)
	}
	if _, err := hard.Rotate(42, 0); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("rotating unknown region err = %v, want ErrUnknownRegion", err)
	}
}

func TestSetShapeSizeClamps(t *testing.T) {
	s, _ := newSession(t, domain.DifficultyEasy, 0)
	tests := []struct{ in, want float64 }{{0.1, 0.5}, {1.2, 1.2}, {9, 1.5}}
	for _, tt := range tests {
		if got := s.SetShapeSize(tt.in); got != tt.want {
			t.Errorf("SetShapeSize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	s.SetShapeSize(0.5)
	if res := s.PlacePiece(7, domain.Point{X: 400, Y: 200}, 0); res.Accepted {
		t.Error("smaller shape size did not tighten tolerance")
	}
}

func TestHintCounting(t *testing.T) {
	s, _ := newSession(t, domain.DifficultyEasy, 0)
	for i := 0; i < 4; i++ {
		if err := s.ApplyHint(9); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.HintsUsed(); got != 4 {
		t.Errorf("HintsUsed = %d, want 4", got)
	}
	s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)
	if err := s.ApplyHint(7); !errors.Is(err, ErrRegionPlaced) {
		t.Errorf("hint on placed region err = %v", err)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		hints   int
		want    int
	}{
		{0, 0, 1000},
		{90 * time.Second, 0, 910},
		{90 * time.Second, 3, 880},
		{1500 * time.Millisecond, 0, 999},
		{2 * time.Hour, 0, 0},
		{990 * time.Second, 3, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.elapsed, tt.hints); got != tt.want {
			t.Errorf("Score(%v, %d) = %d, want %d", tt.elapsed, tt.hints, got, tt.want)
		}
	}
	for hints := 0; hints < 10; hints++ {
		if Score(time.Minute, hints+1) > Score(time.Minute, hints) {
			t.Fatal("score increased with hints")
		}
	}
}

func TestTeardownStopsTimers(t *testing.T) {
	s, m := newSession(t, domain.DifficultyEasy, time.Minute)
	s.PlacePiece(7, domain.Point{X: 999, Y: 999}, 0)
	s.Teardown()
	if m.Pending() != 0 {
		t.Errorf("Pending = %d after teardown", m.Pending())
	}
	if err := s.ApplyHint(3); !errors.Is(err, ErrClosed) {
		t.Errorf("ApplyHint after teardown err = %v", err)
	}
}

func TestDraggable(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	s := New("g", testRegistry(t), Options{Difficulty: domain.DifficultyEasy}, m, zerolog.Nop())
	if err := s.Draggable(7); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("before start err = %v, want ErrNotRunning", err)
	}
	s.Start()
	if err := s.Draggable(7); err != nil {
		t.Fatalf("running err = %v", err)
	}
	if err := s.Draggable(42); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("unknown err = %v", err)
	}
	s.PlacePiece(7, domain.Point{X: 200, Y: 200}, 0)
	if err := s.Draggable(7); !errors.Is(err, ErrRegionPlaced) {
		t.Errorf("placed err = %v", err)
	}

	m.Advance(time.Minute)
	before := s.LastActivity()
	m.Advance(time.Second)
	s.Touch()
	if !s.LastActivity().After(before) {
		t.Error("Touch did not record activity")
	}

	s.Teardown()
	if err := s.Draggable(3); !errors.Is(err, ErrClosed) {
		t.Errorf("closed err = %v", err)
	}
}
