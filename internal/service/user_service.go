package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlexZx-05/Multiple-step-form/internal/cache"
	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
	"github.com/AlexZx-05/Multiple-step-form/internal/metrics"
	"github.com/AlexZx-05/Multiple-step-form/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	UpsertUser(ctx context.Context, user *entity.User) (*entity.User, error)
}

type UsernameCache interface {
	IsTaken(ctx context.Context, username string) (bool, error)
	MarkTaken(ctx context.Context, username string) error
}

type SessionStore interface {
	Save(ctx context.Context, username, token string) error
	Get(ctx context.Context, username string) (string, error)
}

// EventWriter is satisfied by *kafka.Writer.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// UserService implements availability checks, profile writes and logins.
// cache, sessions and events may be nil.
type UserService struct {
	repo     UserRepository
	cache    UsernameCache
	sessions SessionStore
	events   EventWriter
	metrics  *metrics.Metrics
	tokens   TokenConfig
	hasher   PasswordHasher
	now      func() time.Time
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserRepository, cache UsernameCache, sessions SessionStore, events EventWriter, m *metrics.Metrics, tokens TokenConfig) *UserService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &UserService{
		repo:     repo,
		cache:    cache,
		sessions: sessions,
		events:   events,
		metrics:  m,
		tokens:   tokens,
		hasher:   PasswordHasher{Cost: bcrypt.DefaultCost},
		now:      time.Now,
	}
}

// CheckUsername reports whether username is free to take.
func (s *UserService) CheckUsername(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, fmt.Errorf("%w: username is required", ErrValidation)
	}

	if s.cache != nil {
		taken, err := s.cache.IsTaken(ctx, username)
		if err != nil {
			logger.Warn().Err(err).Msgf("Username cache lookup failed for %s", username)
		} else if taken {
			s.metrics.UsernameChecks.WithLabelValues("cached_taken").Inc()
			return false, nil
		}
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		logger.Error().Err(err).Msgf("Error checking username %s", username)
		return false, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if exists {
		s.markTaken(ctx, username)
		s.metrics.UsernameChecks.WithLabelValues("taken").Inc()
		return false, nil
	}

	s.metrics.UsernameChecks.WithLabelValues("available").Inc()
	return true, nil
}

// CreateUser inserts a brand new user. A taken username is a conflict.
func (s *UserService) CreateUser(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error) {
	user, err := s.buildUser(sub, nil)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.ProfileWrites.WithLabelValues("create", "conflict").Inc()
			return nil, fmt.Errorf("%w: Username already exists. Please choose another.", ErrConflict)
		}
		logger.Error().Err(err).Msg("Error creating user")
		s.metrics.ProfileWrites.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	s.metrics.ProfileWrites.WithLabelValues("create", "ok").Inc()
	s.markTaken(ctx, created.Username)
	s.publishProfileEvent(ctx, created, entity.EventProfileCreated)
	return created, nil
}

// UpsertProfile replaces the profile stored under the submission's username,
// or creates it.
func (s *UserService) UpsertProfile(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error) {
	return s.upsert(ctx, sub, "update", entity.EventProfileUpdated)
}

// SubmitForm stores the final multi-step form submission. Unlike
// UpsertProfile it enforces the profession rule table.
func (s *UserService) SubmitForm(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error) {
	if missing := sub.MissingForProfession(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: Company name is required for the selected profession.", ErrValidation)
	}
	return s.upsert(ctx, sub, "submit", entity.EventProfileSubmitted)
}

func (s *UserService) upsert(ctx context.Context, sub entity.ProfileSubmission, operation, eventType string) (*entity.User, error) {
	username := strings.TrimSpace(sub.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: Username is required", ErrValidation)
	}

	existing, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error().Err(err).Msgf("Error loading user %s", username)
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	user, err := s.buildUser(sub, existing)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.UpsertUser(ctx, user)
	if err != nil {
		logger.Error().Err(err).Msgf("Error saving user profile %s", username)
		s.metrics.ProfileWrites.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	s.metrics.ProfileWrites.WithLabelValues(operation, "ok").Inc()
	s.markTaken(ctx, stored.Username)
	if existing == nil {
		eventType = entity.EventProfileCreated
	}
	s.publishProfileEvent(ctx, stored, eventType)
	return stored, nil
}

// buildUser validates the submission and derives the record to store. The
// existing hash is kept when no password is given or the given password
// already matches it, which keeps repeated identical writes idempotent.
func (s *UserService) buildUser(sub entity.ProfileSubmission, existing *entity.User) (*entity.User, error) {
	username := strings.TrimSpace(sub.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: Username is required", ErrValidation)
	}
	if !entity.ValidPlan(sub.SubscriptionPlan) {
		return nil, fmt.Errorf("%w: unknown subscription plan %q", ErrValidation, sub.SubscriptionPlan)
	}

	var hash string
	password := sub.Password()
	switch {
	case password == "" && existing != nil:
		hash = existing.PasswordHash
	case password == "":
	case existing != nil && s.hasher.Matches(existing.PasswordHash, password):
		hash = existing.PasswordHash
	default:
		var err error
		hash, err = s.hasher.Hash(password)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return nil, fmt.Errorf("%w: password is too long", ErrValidation)
			}
			return nil, err
		}
	}

	return &entity.User{
		Username:         username,
		PasswordHash:     hash,
		Profession:       sub.Profession,
		CompanyName:      sub.CompanyName,
		AddressLine1:     sub.AddressLine1,
		Country:          sub.Country,
		State:            sub.State,
		City:             sub.City,
		SubscriptionPlan: sub.SubscriptionPlan,
		Newsletter:       sub.Newsletter,
		ProfilePhoto:     sub.ProfilePhoto,
	}, nil
}

// Login checks the password and issues a session token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !s.hasher.Matches(user.PasswordHash, password) {
		return "", fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokens.TTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokens.Secret)
	if err != nil {
		return "", err
	}

	if s.sessions != nil {
		if err := s.sessions.Save(ctx, user.Username, token); err != nil {
			logger.Error().Err(err).Msgf("Error storing session for %s", user.Username)
			return "", fmt.Errorf("%w: %v", ErrStore, err)
		}
	}

	return token, nil
}

// ValidateSession checks that token is the latest one issued to username.
func (s *UserService) ValidateSession(ctx context.Context, username, token string) error {
	if s.sessions == nil {
		return nil
	}
	stored, err := s.sessions.Get(ctx, username)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return fmt.Errorf("%w: session not found", ErrUnauthorized)
		}
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if stored != token {
		return fmt.Errorf("%w: session superseded", ErrUnauthorized)
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return user, nil
}

func (s *UserService) markTaken(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkTaken(ctx, username); err != nil {
		logger.Warn().Err(err).Msgf("Error caching taken username %s", username)
	}
}

// publishProfileEvent hands the stored profile to Kafka. Failures are logged
// only; the record is already stored.
func (s *UserService) publishProfileEvent(ctx context.Context, user *entity.User, eventType string) {
	if s.events == nil {
		return
	}

	event := entity.ProfileEvent{
		ID:         ulid.Make().String(),
		Type:       eventType,
		Username:   user.Username,
		OccurredAt: s.now().UTC(),
		User:       user,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msgf("Error encoding profile event for %s", user.Username)
		return
	}

	msg := kafka.Message{
		Key:     []byte(user.Username),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(eventType)}},
	}
	if err := s.events.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msgf("Error publishing profile %s event for %s", eventType, user.Username)
		s.metrics.Events.WithLabelValues(eventType, "error").Inc()
		return
	}
	s.metrics.Events.WithLabelValues(eventType, "ok").Inc()
}
