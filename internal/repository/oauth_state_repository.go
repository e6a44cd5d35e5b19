package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const oauthStatePrefix = "oauth:state:"

// OAuthStateRepository stores one-time OAuth state tokens in Redis for CSRF
// protection during the sign-in handshake. Redis TTL handles expiry.
type OAuthStateRepository struct {
	client *redis.Client
}

// NewOAuthStateRepository constructs the repository.
func NewOAuthStateRepository(client *redis.Client) *OAuthStateRepository {
	return &OAuthStateRepository{client: client}
}

// Save stores a state token with the post-login return path and a TTL.
func (r *OAuthStateRepository) Save(ctx context.Context, state, returnTo string, ttl time.Duration) error {
	if err := r.client.Set(ctx, oauthStatePrefix+state, returnTo, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume validates and deletes a state token in one step (one-time use).
// Returns the stored return path and whether the state was known.
func (r *OAuthStateRepository) Consume(ctx context.Context, state string) (string, bool, error) {
	returnTo, err := r.client.GetDel(ctx, oauthStatePrefix+state).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("consume oauth state: %w", err)
	}
	return returnTo, true, nil
}
