package match

// Odds holds display odds for the three-way market.
type Odds struct {
	Home string `json:"home"`
	Draw string `json:"draw"`
	Away string `json:"away"`
}

// Match is a fixture shown on the matches board.
type Match struct {
	ID        string `json:"id"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	HomeScore string `json:"homeScore"`
	AwayScore string `json:"awayScore"`
	IsLive    bool   `json:"isLive"`
	Odds      Odds   `json:"odds"`
}
