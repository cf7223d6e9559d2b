package domain

// Project groups entries of one user. Projects are managed outside the bot.
type Project struct {
	ID     int64
	UserID string
	Name   string
}
