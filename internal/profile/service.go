package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"fluxo/internal/storage"
)

const maxAvatarURLLen = 2048

var ErrInvalidAvatarURL = errors.New("avatar URL must be an absolute http or https URL")

type Profile struct {
	UserID    string `json:"userId"`
	AvatarURL string `json:"avatarUrl"`
}

// Service stores avatar URLs and broadcasts every change.
type Service struct {
	store  storage.ProfileStore
	broker *Broker
	now    func() time.Time
}

func NewService(store storage.ProfileStore, broker *Broker) *Service {
	return &Service{store: store, broker: broker, now: time.Now}
}

// Broker exposes the broker for subscription.
func (s *Service) Broker() *Broker {
	return s.broker
}

func (s *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	u, err := s.store.GetAvatarURL(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return Profile{UserID: userID, AvatarURL: u}, nil
}

// ValidateAvatarURL accepts absolute http(s) URLs with a host.
func ValidateAvatarURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAvatarURLLen {
		return "", ErrInvalidAvatarURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidAvatarURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidAvatarURL
	}
	return u.String(), nil
}

func (s *Service) SetAvatar(ctx context.Context, userID, rawURL string) (Profile, error) {
	u, err := ValidateAvatarURL(rawURL)
	if err != nil {
		return Profile{}, err
	}
	return s.write(ctx, userID, u)
}

func (s *Service) ClearAvatar(ctx context.Context, userID string) (Profile, error) {
	return s.write(ctx, userID, "")
}

func (s *Service) write(ctx context.Context, userID, avatarURL string) (Profile, error) {
	if err := s.store.SetAvatarURL(ctx, userID, avatarURL); err != nil {
		return Profile{}, fmt.Errorf("save avatar: %w", err)
	}
	n := s.broker.Publish(AvatarUpdate{UserID: userID, AvatarURL: avatarURL, UpdatedAt: s.now().UTC()})
	slog.DebugContext(ctx, "Avatar update broadcast", "component", "profile", "user_id", userID, "subscribers", n)
	return Profile{UserID: userID, AvatarURL: avatarURL}, nil
}
