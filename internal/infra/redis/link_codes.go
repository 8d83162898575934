package redis

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.LinkCodeStore = (*LinkCodeStore)(nil)

// LinkCodeStore keeps Telegram link codes as single-use keys.
type LinkCodeStore struct {
	client RedisClient
}

func NewLinkCodeStore(client RedisClient) *LinkCodeStore {
	return &LinkCodeStore{client: client}
}

func linkKey(code string) string { return "tglink:" + code }

// Issue returns a 32 character hex code, valid as a /start payload.
func (s *LinkCodeStore) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.client.Set(ctx, linkKey(code), userID, ttl); err != nil {
		return "", err
	}
	return code, nil
}

func (s *LinkCodeStore) Redeem(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.ErrNotFound
	}
	userID, err := s.client.GetDel(ctx, linkKey(code))
	if IsNil(err) {
		return "", domain.ErrNotFound
	}
	return userID, err
}
