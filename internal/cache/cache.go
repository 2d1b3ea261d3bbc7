package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const takenUsernamesKey = "usernames:taken"

// ErrSessionNotFound is returned when no token is stored for a username.
var ErrSessionNotFound = errors.New("session not found")

// UsernameCache remembers usernames that are already stored. Records are
// never deleted, so a hit is authoritative and a miss means "ask the store".
type UsernameCache struct {
	rdb *redis.Client
}

func NewUsernameCache(rdb *redis.Client) *UsernameCache {
	return &UsernameCache{rdb: rdb}
}

func (c *UsernameCache) IsTaken(ctx context.Context, username string) (bool, error) {
	return c.rdb.SIsMember(ctx, takenUsernamesKey, username).Result()
}

func (c *UsernameCache) MarkTaken(ctx context.Context, username string) error {
	return c.rdb.SAdd(ctx, takenUsernamesKey, username).Err()
}

// SessionStore keeps the last JWT issued per username.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(username string) string {
	return fmt.Sprintf("session:%s", username)
}

func (s *SessionStore) Save(ctx context.Context, username, token string) error {
	return s.rdb.Set(ctx, sessionKey(username), token, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, username string) (string, error) {
	token, err := s.rdb.Get(ctx, sessionKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return token, nil
}
