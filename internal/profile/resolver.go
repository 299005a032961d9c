// internal/profile/resolver.go

package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// AnonymousName is the fallback label for users without a full name on file.
const AnonymousName = "Anonymous"

// Resolver turns user ids into display names. Resolved names are memoized
// for the life of the resolver; the cache is session-scoped with no
// invalidation, which is acceptable since names rarely change mid-session.
// It is not a correctness-critical cache.
type Resolver struct {
	repo Repository

	mu    sync.RWMutex
	cache map[string]string
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{
		repo:  repo,
		cache: make(map[string]string),
	}
}

// DisplayName returns the display name for a user. Every surface that shows
// a user (conversation list, thread header, activity feed) goes through
// this method so the same user never renders under two different names
// within one session.
func (r *Resolver) DisplayName(ctx context.Context, userID string) string {
	r.mu.RLock()
	name, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok {
		return name
	}

	profile, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			// A missing profile is a stable answer; cache it
			r.store(userID, AnonymousName)
		}
		// Transient errors fall back without caching so the next
		// lookup retries
		return AnonymousName
	}

	name = FormatDisplayName(profile.FullName)
	r.store(userID, name)
	return name
}

func (r *Resolver) store(userID, name string) {
	r.mu.Lock()
	r.cache[userID] = name
	r.mu.Unlock()
}

// FormatDisplayName renders a full name as first name plus last initial,
// e.g. "Maria Gonzalez Diaz" -> "Maria D.". Single-token names are used
// as-is; empty names fall back to AnonymousName.
func FormatDisplayName(fullName *string) string {
	if fullName == nil {
		return AnonymousName
	}

	tokens := strings.Fields(*fullName)
	switch len(tokens) {
	case 0:
		return AnonymousName
	case 1:
		return tokens[0]
	default:
		last := []rune(tokens[len(tokens)-1])
		return tokens[0] + " " + string(last[0]) + "."
	}
}
