// Package matches serves the today's-matches board. Data is a static
// placeholder until the odds provider integration lands; the shape matches
// what that API will return.
package matches

import (
	"context"

	"github.com/shabikihub/shabiki/internal/app/domain/match"
)

// Service returns today's fixtures.
type Service struct{}

// New creates the matches service.
func New() *Service {
	return &Service{}
}

// Today lists today's fixtures with display odds.
func (s *Service) Today(_ context.Context) ([]match.Match, error) {
	return []match.Match{
		{
			ID:        "1",
			HomeTeam:  "Liverpool",
			AwayTeam:  "Man City",
			HomeScore: "2",
			AwayScore: "1",
			IsLive:    true,
			Odds:      match.Odds{Home: "2.05", Draw: "3.50", Away: "2.80"},
		},
		{
			ID:        "2",
			HomeTeam:  "Arsenal",
			AwayTeam:  "Chelsea",
			HomeScore: "1",
			AwayScore: "1",
			Odds:      match.Odds{Home: "1.95", Draw: "3.60", Away: "3.10"},
		},
		{
			ID:        "3",
			HomeTeam:  "Man Utd",
			AwayTeam:  "Fulham",
			HomeScore: "3",
			AwayScore: "0",
			Odds:      match.Odds{Home: "1.60", Draw: "3.90", Away: "5.20"},
		},
	}, nil
}
