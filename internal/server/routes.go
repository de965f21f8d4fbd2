package server

import (
	"net/http"

	"connectrpc.com/connect"
)

const PuzzleServicePath = "/geojigsaw.v1.PuzzleService/"

const (
	StartGameProcedure     = PuzzleServicePath + "StartGame"
	GetGameProcedure       = PuzzleServicePath + "GetGame"
	BeginDragProcedure     = PuzzleServicePath + "BeginDrag"
	MoveDragProcedure      = PuzzleServicePath + "MoveDrag"
	EndDragProcedure       = PuzzleServicePath + "EndDrag"
	CancelDragProcedure    = PuzzleServicePath + "CancelDrag"
	UseHintProcedure       = PuzzleServicePath + "UseHint"
	CloseHintProcedure     = PuzzleServicePath + "CloseHint"
	RotatePieceProcedure   = PuzzleServicePath + "RotatePiece"
	SetShapeSizeProcedure  = PuzzleServicePath + "SetShapeSize"
	ResetGameProcedure     = PuzzleServicePath + "ResetGame"
	NextLevelProcedure     = PuzzleServicePath + "NextLevel"
	EndGameProcedure       = PuzzleServicePath + "EndGame"
	ListCountriesProcedure = PuzzleServicePath + "ListCountries"
	LeaderboardProcedure   = PuzzleServicePath + "Leaderboard"
)

// NewPuzzleHandler mounts every procedure of s under PuzzleServicePath.
func NewPuzzleHandler(s *PuzzleServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(StartGameProcedure, connect.NewUnaryHandler(StartGameProcedure, s.StartGame, opts...))
	mux.Handle(GetGameProcedure, connect.NewUnaryHandler(GetGameProcedure, s.GetGame, opts...))
	mux.Handle(BeginDragProcedure, connect.NewUnaryHandler(BeginDragProcedure, s.BeginDrag, opts...))
	mux.Handle(MoveDragProcedure, connect.NewUnaryHandler(MoveDragProcedure, s.MoveDrag, opts...))
	mux.Handle(EndDragProcedure, connect.NewUnaryHandler(EndDragProcedure, s.EndDrag, opts...))
	mux.Handle(CancelDragProcedure, connect.NewUnaryHandler(CancelDragProcedure, s.CancelDrag, opts...))
	mux.Handle(UseHintProcedure, connect.NewUnaryHandler(UseHintProcedure, s.UseHint, opts...))
	mux.Handle(CloseHintProcedure, connect.NewUnaryHandler(CloseHintProcedure, s.CloseHint, opts...))
	mux.Handle(RotatePieceProcedure, connect.NewUnaryHandler(RotatePieceProcedure, s.RotatePiece, opts...))
	mux.Handle(SetShapeSizeProcedure, connect.NewUnaryHandler(SetShapeSizeProcedure, s.SetShapeSize, opts...))
	mux.Handle(ResetGameProcedure, connect.NewUnaryHandler(ResetGameProcedure, s.ResetGame, opts...))
	mux.Handle(NextLevelProcedure, connect.NewUnaryHandler(NextLevelProcedure, s.NextLevel, opts...))
	mux.Handle(EndGameProcedure, connect.NewUnaryHandler(EndGameProcedure, s.EndGame, opts...))
	mux.Handle(ListCountriesProcedure, connect.NewUnaryHandler(ListCountriesProcedure, s.ListCountries, opts...))
	mux.Handle(LeaderboardProcedure, connect.NewUnaryHandler(LeaderboardProcedure, s.Leaderboard, opts...))
	return PuzzleServicePath, mux
}
