package model

import "time"

type League string

type GameStatus string

const (
	GAME_SCHEDULED   GameStatus = "scheduled"
	GAME_IN_PROGRESS GameStatus = "in_progress"
	GAME_FINAL       GameStatus = "final"
	GAME_POSTPONED   GameStatus = "postponed"
)

type TeamScore struct {
	Abbreviation string `json:"abbreviation"`
	Score        int    `json:"score"`
}

type Game struct {
	League    League     `json:"league"`
	Id        string     `json:"id"`
	Home      TeamScore  `json:"home"`
	Away      TeamScore  `json:"away"`
	Status    GameStatus `json:"status"`
	Period    string     `json:"period,omitempty"`
	Clock     string     `json:"clock,omitempty"`
	StartTime time.Time  `json:"start_time"`
}

func (g Game) IsLive() bool {
	return g.Status == GAME_IN_PROGRESS
}

// Involves reports whether one of the given team abbreviations plays this game.
func (g Game) Involves(teams []string) bool {
	for _, team := range teams {
		if team == g.Home.Abbreviation || team == g.Away.Abbreviation {
			return true
		}
	}
	return false
}
