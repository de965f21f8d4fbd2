package service

import (
	"context"
	"errors"
	"fmt"
	"geo-jigsaw/internal/api"
	"geo-jigsaw/internal/catalog"
	"geo-jigsaw/internal/clock"
	"geo-jigsaw/internal/config"
	"geo-jigsaw/internal/constants"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/drag"
	"geo-jigsaw/internal/game"
	"geo-jigsaw/internal/guidance"
	"geo-jigsaw/internal/registry"
	"geo-jigsaw/internal/repository"
	"math/rand/v2"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrNoHintsLeft  = errors.New("no hints left")
	ErrNotCompleted = errors.New("puzzle not completed")
)

// StartParams selects the puzzle to start. Zero values pick the configured
// defaults.
type StartParams struct {
	CountryID  string
	Difficulty domain.Difficulty
	ShapeSize  float64
}

// PuzzleService owns every live game and is the only entry point the
// transport layer talks to.
type PuzzleService struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	client  *api.CatalogClient
	repo    *repository.SessionRepository
	sched   clock.Scheduler
	logger  zerolog.Logger

	mu    sync.RWMutex
	games map[string]*liveGame

	rngMu sync.Mutex
	rng   *rand.Rand

	bg      errgroup.Group
	janitor clock.Task
}

func NewPuzzleService(
	cfg *config.Config,
	cat *catalog.Catalog,
	client *api.CatalogClient,
	repo *repository.SessionRepository,
	sched clock.Scheduler,
	logger zerolog.Logger,
) *PuzzleService {
	seed := uint64(sched.Now().UnixNano())
	return &PuzzleService{
		cfg:     cfg,
		catalog: cat,
		client:  client,
		repo:    repo,
		sched:   sched,
		logger:  logger,
		games:   make(map[string]*liveGame),
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

func (s *PuzzleService) Countries() []domain.Country {
	return s.catalog.Countries()
}

func (s *PuzzleService) StartGame(ctx context.Context, p StartParams) (GameView, error) {
	g, err := s.newGame(ctx, p, "")
	if err != nil {
		return GameView{}, err
	}
	return g.view(s.cfg.MaxHints), nil
}

func (s *PuzzleService) newGame(ctx context.Context, p StartParams, previousGameID string) (*liveGame, error) {
	if !p.Difficulty.Valid() {
		p.Difficulty = s.cfg.DefaultDifficulty
	}

	bundle, degraded, err := s.loadBundle(ctx, p.CountryID)
	if err != nil {
		return nil, err
	}
	reg, _, err := registry.Load(bundle.Country, bundle.Regions, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load regions: %w", err)
	}
	recon := reg.Reconcile(bundle.Display, s.logger)

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	session := game.New(id, reg, game.Options{
		Difficulty: p.Difficulty,
		TimeLimit:  s.cfg.PuzzleTimeLimit,
		ShapeSize:  p.ShapeSize,
		Degraded:   degraded,
	}, s.sched, s.logger)

	g := &liveGame{
		session:        session,
		drags:          drag.NewCoordinator(s.sched.Now, s.logger.With().Str("game_id", id).Logger()),
		recon:          recon,
		previousGameID: previousGameID,
	}
	g.guide = guidance.NewController(session, s.sched, s.newRand(), func(rid domain.RegionID) (domain.Point, bool) {
		return recon.DisplayPosition(reg, rid)
	}, s.logger)

	session.OnFinish(func(snap domain.GameSnapshot) {
		g.guide.Stop()
		g.drags.Teardown()
		s.persist(g, snap)
	})

	if err := s.begin(g); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.games[id] = g
	s.mu.Unlock()

	s.logger.Info().
		Str("game_id", id).
		Str("country_id", reg.Country().ID).
		Str("difficulty", p.Difficulty.String()).
		Bool("degraded", degraded).
		Msg("game started")
	return g, nil
}

// begin starts the clock, the countdown and the initial tray rotation.
func (s *PuzzleService) begin(g *liveGame) error {
	if err := g.session.Start(); err != nil {
		return fmt.Errorf("failed to start puzzle: %w", err)
	}
	g.guide.Start()
	if err := g.guide.ScrambleRotations(); err != nil {
		return fmt.Errorf("failed to rotate tray: %w", err)
	}
	s.persist(g, g.session.Snapshot())
	return nil
}

func (s *PuzzleService) newRand() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
}

func (s *PuzzleService) get(id string) (*liveGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return g, nil
}

func (s *PuzzleService) GetGame(id string) (GameView, error) {
	g, err := s.get(id)
	if err != nil {
		return GameView{}, err
	}
	return g.view(s.cfg.MaxHints), nil
}

func (s *PuzzleService) BeginDrag(id string, piece domain.RegionID, ev drag.PointerEvent) (drag.MoveUpdate, error) {
	g, err := s.get(id)
	if err != nil {
		return drag.MoveUpdate{}, err
	}
	sess, err := g.drags.Begin(piece, ev, g)
	if err != nil {
		return drag.MoveUpdate{}, err
	}
	g.session.Touch()
	return sess.LastUpdate(), nil
}

func (s *PuzzleService) MoveDrag(id string, ev drag.PointerEvent) (drag.MoveUpdate, error) {
	g, err := s.get(id)
	if err != nil {
		return drag.MoveUpdate{}, err
	}
	return g.drags.Move(ev)
}

// EndDrag resolves the live drag and returns the game as it stands after
// the evaluation.
func (s *PuzzleService) EndDrag(id string, ev drag.PointerEvent) (drag.Resolution, GameView, error) {
	g, err := s.get(id)
	if err != nil {
		return drag.Resolution{}, GameView{}, err
	}
	res, err := g.drags.End(ev)
	if err != nil {
		return drag.Resolution{}, GameView{}, err
	}
	return res, g.view(s.cfg.MaxHints), nil
}

func (s *PuzzleService) CancelDrag(id string, pointerID int) (drag.Resolution, error) {
	g, err := s.get(id)
	if err != nil {
		return drag.Resolution{}, err
	}
	return g.drags.Cancel(pointerID)
}

// UseHint spends one of the configured hints.
func (s *PuzzleService) UseHint(id string) (domain.RegionID, GameView, error) {
	g, err := s.get(id)
	if err != nil {
		return 0, GameView{}, err
	}
	if !g.session.Running() {
		return 0, GameView{}, game.ErrNotRunning
	}
	if g.guide.HintsRemaining(s.cfg.MaxHints) == 0 {
		return 0, GameView{}, ErrNoHintsLeft
	}
	region, err := g.guide.UseHint()
	if err != nil {
		return 0, GameView{}, err
	}
	return region, g.view(s.cfg.MaxHints), nil
}

func (s *PuzzleService) CloseHint(id string) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	g.session.CloseHintPopup()
	return nil
}

// RotatePiece turns a tray piece by whole handle steps and returns its new
// rotation in degrees.
func (s *PuzzleService) RotatePiece(id string, piece domain.RegionID, steps int) (int, error) {
	g, err := s.get(id)
	if err != nil {
		return 0, err
	}
	return g.guide.RotateStep(piece, steps)
}

func (s *PuzzleService) SetShapeSize(id string, size float64) (float64, error) {
	g, err := s.get(id)
	if err != nil {
		return 0, err
	}
	return g.session.SetShapeSize(size), nil
}

// ResetGame restarts the same puzzle from scratch as a new attempt.
func (s *PuzzleService) ResetGame(id string) (GameView, error) {
	g, err := s.get(id)
	if err != nil {
		return GameView{}, err
	}
	g.drags.Teardown()
	g.guide.Stop()
	if err := g.session.ResetGame(); err != nil {
		return GameView{}, err
	}
	g.nextAttempt()
	g.guide.Restart()
	if err := s.begin(g); err != nil {
		return GameView{}, err
	}
	return g.view(s.cfg.MaxHints), nil
}

// NextLevel replaces a completed game with a new one for the same country
// one difficulty higher.
func (s *PuzzleService) NextLevel(ctx context.Context, id string) (GameView, error) {
	g, err := s.get(id)
	if err != nil {
		return GameView{}, err
	}
	snap := g.session.Snapshot()
	if !snap.IsCompleted() {
		return GameView{}, ErrNotCompleted
	}

	next, err := s.newGame(ctx, StartParams{
		CountryID:  snap.CountryID,
		Difficulty: snap.Difficulty.Next(),
		ShapeSize:  snap.ShapeSize,
	}, id)
	if err != nil {
		return GameView{}, err
	}
	s.EndGame(id)
	return next.view(s.cfg.MaxHints), nil
}

// EndGame tears a game down and forgets it. Unknown ids are ignored.
func (s *PuzzleService) EndGame(id string) bool {
	s.mu.Lock()
	g, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	g.teardown()
	s.logger.Info().Str("game_id", id).Msg("game ended")
	return true
}

func (s *PuzzleService) Leaderboard(ctx context.Context, countryID string, difficulty domain.Difficulty, limit int) ([]domain.SessionRecord, error) {
	return s.repo.Leaderboard(ctx, countryID, difficulty, limit)
}

func (s *PuzzleService) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// persist stores the game summary in the background. Failures are logged
// and never reach the player.
func (s *PuzzleService) persist(g *liveGame, snap domain.GameSnapshot) {
	if s.repo == nil {
		return
	}
	gameID, attempt := g.recordKey()
	key := gameID
	if attempt > 0 {
		key = fmt.Sprintf("%s.%d", gameID, attempt)
	}
	rec := domain.SessionRecord{
		GameID:         key,
		CountryID:      snap.CountryID,
		CountryName:    snap.CountryName,
		Difficulty:     snap.Difficulty,
		State:          snap.State,
		HintsUsed:      snap.HintsUsed,
		Score:          snap.Score,
		StartedAt:      snap.StartTime,
		EndedAt:        snap.EndTime,
		PreviousGameID: g.previousGameID,
		UpdatedAt:      s.sched.Now(),
	}
	s.bg.Go(func() error {
		if err := s.repo.Upsert(context.Background(), rec); err != nil {
			s.logger.Warn().Err(err).Str("game_id", key).Msg("failed to persist session")
		}
		return nil
	})
}

// Flush waits for pending background writes.
func (s *PuzzleService) Flush() {
	s.bg.Wait()
}

// StartJanitor periodically ends games idle for longer than the configured
// TTL.
func (s *PuzzleService) StartJanitor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.janitor != nil {
		return
	}
	s.janitor = s.sched.Every(constants.JanitorInterval, s.sweep)
}

func (s *PuzzleService) sweep() {
	now := s.sched.Now()
	var idle []string
	s.mu.RLock()
	for id, g := range s.games {
		if now.Sub(g.session.LastActivity()) >= s.cfg.SessionIdleTTL {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range idle {
		s.EndGame(id)
	}
	if len(idle) > 0 {
		s.logger.Info().Int("ended", len(idle)).Int("live", s.GameCount()).Msg("idle games swept")
	}
}

// Stop ends every live game and waits for pending writes.
func (s *PuzzleService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.janitor != nil {
		s.janitor.Stop()
		s.janitor = nil
	}
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.EndGame(id)
	}

	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to flush sessions: %w", ctx.Err())
	}
}
