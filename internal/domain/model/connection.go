package model

import "time"

type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderSpotify Provider = "spotify"
)

func (p Provider) Valid() bool { return p == ProviderGmail || p == ProviderSpotify }

// Connection holds OAuth tokens for a linked account. Tokens are plaintext in
// memory; ConnectionUseCase encrypts them before they reach storage.
type Connection struct {
	UserID       string
	Provider     Provider
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}
