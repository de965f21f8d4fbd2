package server

import (
	"context"
	"errors"
	"fmt"
	"geo-jigsaw/internal/catalog"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/drag"
	"geo-jigsaw/internal/game"
	"geo-jigsaw/internal/guidance"
	"geo-jigsaw/internal/service"
	"strings"

	"connectrpc.com/connect"
)

type PuzzleServer struct {
	svc *service.PuzzleService
}

func NewPuzzleServer(svc *service.PuzzleService) *PuzzleServer {
	return &PuzzleServer{svc: svc}
}

func (s *PuzzleServer) StartGame(ctx context.Context, req *connect.Request[StartGameRequest]) (*connect.Response[GameResponse], error) {
	difficulty, err := parseDifficulty(req.Msg.Difficulty)
	if err != nil {
		return nil, err
	}
	view, err := s.svc.StartGame(ctx, service.StartParams{
		CountryID:  strings.TrimSpace(req.Msg.CountryID),
		Difficulty: difficulty,
		ShapeSize:  req.Msg.ShapeSize,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GameResponse{Game: view}), nil
}

func (s *PuzzleServer) GetGame(ctx context.Context, req *connect.Request[GameRequest]) (*connect.Response[GameResponse], error) {
	view, err := s.svc.GetGame(req.Msg.GameID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GameResponse{Game: view}), nil
}

func (s *PuzzleServer) BeginDrag(ctx context.Context, req *connect.Request[PointerRequest]) (*connect.Response[DragUpdateResponse], error) {
	up, err := s.svc.BeginDrag(req.Msg.GameID, domain.RegionID(req.Msg.PieceID), req.Msg.event())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DragUpdateResponse{Update: up}), nil
}

func (s *PuzzleServer) MoveDrag(ctx context.Context, req *connect.Request[PointerRequest]) (*connect.Response[DragUpdateResponse], error) {
	up, err := s.svc.MoveDrag(req.Msg.GameID, req.Msg.event())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DragUpdateResponse{Update: up}), nil
}

func (s *PuzzleServer) EndDrag(ctx context.Context, req *connect.Request[PointerRequest]) (*connect.Response[EndDragResponse], error) {
	res, view, err := s.svc.EndDrag(req.Msg.GameID, req.Msg.event())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&EndDragResponse{Resolution: res, Game: view}), nil
}

func (s *PuzzleServer) CancelDrag(ctx context.Context, req *connect.Request[CancelDragRequest]) (*connect.Response[CancelDragResponse], error) {
	res, err := s.svc.CancelDrag(req.Msg.GameID, req.Msg.PointerID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CancelDragResponse{Resolution: res}), nil
}

func (s *PuzzleServer) UseHint(ctx context.Context, req *connect.Request[GameRequest]) (*connect.Response[UseHintResponse], error) {
	id, view, err := s.svc.UseHint(req.Msg.GameID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&UseHintResponse{RegionID: id, Game: view}), nil
}

func (s *PuzzleServer) CloseHint(ctx context.Context, req *connect.Request[GameRequest]) (*connect.Response[GameResponse], error) {
	if err := s.svc.CloseHint(req.Msg.GameID); err != nil {
		return nil, toConnectError(err)
	}
	return s.GetGame(ctx, req)
}

func (s *PuzzleServer) RotatePiece(ctx context.Context, req *connect.Request[RotatePieceRequest]) (*connect.Response[RotatePieceResponse], error) {
	deg, err := s.svc.RotatePiece(req.Msg.GameID, domain.RegionID(req.Msg.PieceID), req.Msg.Steps)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RotatePieceResponse{Rotation: deg}), nil
}

func (s *PuzzleServer) SetShapeSize(ctx context.Context, req *connect.Request[SetShapeSizeRequest]) (*connect.Response[SetShapeSizeResponse], error) {
	size, err := s.svc.SetShapeSize(req.Msg.GameID, req.Msg.ShapeSize)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SetShapeSizeResponse{ShapeSize: size}), nil
}

func (s *PuzzleServer) ResetGame(ctx context.Context, req *connect.Request[GameRequest]) (*connect.Response[GameResponse], error) {
	view, err := s.svc.ResetGame(req.Msg.GameID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GameResponse{Game: view}), nil
}

func (s *PuzzleServer) NextLevel(ctx context.Context, req *connect.Request[GameRequest]) (*connect.Response[GameResponse], error) {
	view, err := s.svc.NextLevel(ctx, req.Msg.GameID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GameResponse{Game: view}), nil
}

func (s *PuzzleServer) EndGame(ctx context.Context, req *connect.Request[GameRequest]) (*connect.Response[EndGameResponse], error) {
	return connect.NewResponse(&EndGameResponse{Ended: s.svc.EndGame(req.Msg.GameID)}), nil
}

func (s *PuzzleServer) ListCountries(ctx context.Context, req *connect.Request[ListCountriesRequest]) (*connect.Response[ListCountriesResponse], error) {
	return connect.NewResponse(&ListCountriesResponse{Countries: s.svc.Countries()}), nil
}

func (s *PuzzleServer) Leaderboard(ctx context.Context, req *connect.Request[LeaderboardRequest]) (*connect.Response[LeaderboardResponse], error) {
	if req.Msg.CountryID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("countryId is required"))
	}
	difficulty, err := parseDifficulty(req.Msg.Difficulty)
	if err != nil {
		return nil, err
	}
	records, err := s.svc.Leaderboard(ctx, req.Msg.CountryID, difficulty, req.Msg.Limit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &LeaderboardResponse{CountryID: req.Msg.CountryID, Entries: make([]LeaderboardEntry, 0, len(records))}
	for _, r := range records {
		entry := LeaderboardEntry{
			GameID:     r.GameID,
			Difficulty: r.Difficulty.String(),
			HintsUsed:  r.HintsUsed,
			EndedAt:    r.EndedAt,
		}
		if r.Score != nil {
			entry.Score = *r.Score
		}
		resp.Entries = append(resp.Entries, entry)
	}
	return connect.NewResponse(resp), nil
}

// parseDifficulty treats an empty value as "use the default".
func parseDifficulty(v string) (domain.Difficulty, error) {
	if strings.TrimSpace(v) == "" {
		return domain.DifficultyUnset, nil
	}
	d, ok := domain.ParseDifficulty(v)
	if !ok {
		return domain.DifficultyUnset, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown difficulty %q", v))
	}
	return d, nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, catalog.ErrUnknownCountry):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, game.ErrUnknownRegion):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, drag.ErrDragInProgress),
		errors.Is(err, drag.ErrNoActiveDrag),
		errors.Is(err, drag.ErrPointerMismatch),
		errors.Is(err, game.ErrNotRunning),
		errors.Is(err, game.ErrFinished),
		errors.Is(err, game.ErrRegionPlaced),
		errors.Is(err, game.ErrRotationDisabled),
		errors.Is(err, game.ErrClosed),
		errors.Is(err, guidance.ErrNothingToHint),
		errors.Is(err, service.ErrNoHintsLeft),
		errors.Is(err, service.ErrNotCompleted):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
