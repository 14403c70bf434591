package fetcher

import (
	"context"
	"errors"
)

var (
	// ErrAppNotFound is returned when the store has no listing for the id
	ErrAppNotFound = errors.New("app not found (404)")
	// ErrBadStatus is returned for any other non-200 store response
	ErrBadStatus = errors.New("unexpected response status")
)

// AppRecord is the normalized store listing of one app
type AppRecord struct {
	ID            string
	Title         string
	Summary       string
	URL           string
	Free          bool
	Price         float64
	PriceText     string
	Currency      string
	Developer     string
	Icon          string
	Screenshots   []string // store rank order
	RecentChanges string
}

// Query identifies a listing in a given storefront
type Query struct {
	AppID   string
	Lang    string
	Country string
}

// Provider looks up app listings
type Provider interface {
	App(ctx context.Context, q Query) (*AppRecord, error)
}
