package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes required for our app (Strava uses comma-separated scopes).
// profile:read_all exposes the athlete's FTP and weight.
var Scopes = []string{
	"read,profile:read_all",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8089/callback"
}

// DefaultRedirectURL is where the local callback server listens
var DefaultRedirectURL = fmt.Sprintf("http://localhost:%d/callback", CallbackPort)

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// AuthResult is a completed login
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
	// Rider is what the connect step imported, if anything
	Rider *ImportedRider
}

// ImportedRider is the rider data taken from the athlete at login
type ImportedRider struct {
	AthleteName string
	FTP         float64 // watts, 0 when not set on Strava
	Weight      float64 // kg, 0 when not set on Strava
}

// ConnectFunc runs with the exchanged token before the browser is answered,
// typically importing the athlete and storing the login. An error fails the
// login and is shown on the callback page.
type ConnectFunc func(ctx context.Context, result *AuthResult) (*ImportedRider, error)

// ExtractAthleteID extracts the athlete ID from the token extras.
// Strava includes athlete info in the token response
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}
