package repository

import "context"

// ResourceCache remembers which resources a session already downloaded.
type ResourceCache interface {
	// Lookup returns the stored reference of url, if any.
	Lookup(ctx context.Context, sessionID, url string) (string, bool, error)
	// Remember records the reference of url.
	Remember(ctx context.Context, sessionID, url, reference string) error
}
