package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"geo-jigsaw/internal/constants"
	"geo-jigsaw/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("session record not found")

const (
	upsertSession = `
INSERT INTO game_sessions (
    id, game_id, country_id, country_name, difficulty, state, hints_used,
    score, started_at, ended_at, previous_game_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO UPDATE SET
    state = excluded.state,
    hints_used = excluded.hints_used,
    score = excluded.score,
    started_at = excluded.started_at,
    ended_at = excluded.ended_at,
    updated_at = excluded.updated_at
WHERE excluded.updated_at >= game_sessions.updated_at`

	selectSession = `
SELECT id, game_id, country_id, country_name, difficulty, state, hints_used,
       score, started_at, ended_at, previous_game_id, created_at, updated_at
FROM game_sessions`
)

type SessionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSessionRepository(sqlDB *sql.DB, logger zerolog.Logger) *SessionRepository {
	return &SessionRepository{db: sqlDB, logger: logger}
}

// Upsert stores rec keyed by its game id. A missing record id is generated;
// created_at is kept from the first write. A write with an UpdatedAt older
// than the stored row is ignored.
func (r *SessionRepository) Upsert(ctx context.Context, rec domain.SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if rec.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		rec.ID = id
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	var prev sql.NullString
	if rec.PreviousGameID != "" {
		prev = sql.NullString{String: rec.PreviousGameID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, upsertSession,
		rec.ID,
		rec.GameID,
		rec.CountryID,
		rec.CountryName,
		rec.Difficulty.String(),
		string(rec.State),
		rec.HintsUsed,
		nullInt(rec.Score),
		rec.StartedAt.UTC(),
		nullTime(rec.EndedAt),
		prev,
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", rec.GameID, err)
	}
	return nil
}

func (r *SessionRepository) GetByGameID(ctx context.Context, gameID string) (*domain.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rec, err := scanSession(r.db.QueryRowContext(ctx, selectSession+` WHERE game_id = ?`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", gameID, err)
	}
	return rec, nil
}

// Leaderboard lists completed games of a country, best score first. Ties go
// to the earlier finisher. DifficultyUnset matches every difficulty.
func (r *SessionRepository) Leaderboard(ctx context.Context, countryID string, difficulty domain.Difficulty, limit int) ([]domain.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 {
		limit = constants.LeaderboardLimit
	}
	query := selectSession + ` WHERE country_id = ? AND state = ? AND score IS NOT NULL`
	args := []any{countryID, string(domain.GameStateCompleted)}
	if difficulty.Valid() {
		query += ` AND difficulty = ?`
		args = append(args, difficulty.String())
	}
	query += ` ORDER BY score DESC, ended_at ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("country_id", countryID).Msg("failed to query leaderboard")
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.SessionRecord, error) {
	var (
		rec        domain.SessionRecord
		difficulty string
		state      string
		score      sql.NullInt64
		endedAt    sql.NullTime
		prev       sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.GameID,
		&rec.CountryID,
		&rec.CountryName,
		&difficulty,
		&state,
		&rec.HintsUsed,
		&score,
		&rec.StartedAt,
		&endedAt,
		&prev,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := rec.Difficulty.UnmarshalText([]byte(difficulty)); err != nil {
		return nil, err
	}
	rec.State = domain.GameState(state)
	if score.Valid {
		v := int(score.Int64)
		rec.Score = &v
	}
	if endedAt.Valid {
		t := endedAt.Time
		rec.EndedAt = &t
	}
	rec.PreviousGameID = prev.String
	return &rec, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
