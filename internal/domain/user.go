package domain

type User struct {
	Id           string
	Username     string
	PasswordHash string
}

// WinCount is a leaderboard row: how many games a user has won.
type WinCount struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}
