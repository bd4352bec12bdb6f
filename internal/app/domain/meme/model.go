package meme

import "time"

// Meme is a community meme, either uploaded or produced by the generation
// workflow. Likes only ever increase; CreatedAt is assigned by the storage
// layer and is the sort key for newest-first retrieval.
type Meme struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"imageUrl"`
	Caption   string    `json:"caption"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMeme carries the caller-supplied fields; id and CreatedAt are assigned
// by the storage layer, Likes defaults to zero.
type NewMeme struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
	Likes    int    `json:"likes"`
}
