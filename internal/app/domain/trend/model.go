package trend

// Topic is one trending football topic merged across geo regions.
type Topic struct {
	ID           string `json:"id"`
	Topic        string `json:"topic"`
	SearchVolume string `json:"searchVolume"`
	Description  string `json:"description,omitempty"`
}

// Search is the hot-searches view derived from cached topics.
type Search struct {
	ID      string `json:"id"`
	Keyword string `json:"keyword"`
	Size    string `json:"size"`
	Brief   string `json:"brief"`
	Details string `json:"details"`
}
