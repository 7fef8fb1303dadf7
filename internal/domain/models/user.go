package models

// User is an account that owns chats and documents. Guest users get a
// generated email and a random password hash.
type User struct {
	ID       string  `json:"id" db:"id"`
	Email    string  `json:"email" db:"email"`
	Password *string `json:"-" db:"password"`
}

// Principal identifies the acting user for a request. It is threaded through
// the request context so a real auth layer can later substitute its own
// principal source without touching call sites.
type Principal struct {
	UserID string
	Email  string
}
