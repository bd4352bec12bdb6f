package user

// User represents a registered community member. Records are immutable once
// created except via full replace.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// NewUser carries the caller-supplied fields for registration; the storage
// layer assigns the id.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
