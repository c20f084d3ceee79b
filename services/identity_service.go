package services

import (
	"context"
	"log/slog"

	"chat-core/auth"
	"chat-core/domain"
	"chat-core/errors"
	"chat-core/repositories"
	"chat-core/search"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IIdentityService interface {
	ResolveOrCreate(identity auth.Identity) (domain.User, error)
	SetOnline(identity auth.Identity, online bool) error
	Me(identity auth.Identity) (domain.User, error)
	ByID(id uuid.UUID) (domain.User, error)
	All(identity auth.Identity) ([]domain.User, error)
	Search(ctx context.Context, identity auth.Identity, query string) ([]domain.User, error)
}

type IdentityService struct {
	users repositories.IUserRepository
	index *search.UserIndex
	log   *slog.Logger
}

func NewIdentityService(users repositories.IUserRepository, index *search.UserIndex, log *slog.Logger) *IdentityService {
	return &IdentityService{users: users, index: index, log: log}
}

// ResolveOrCreate is called on every sign-in. Known subjects get their
// display claims refreshed, but an absent claim never erases the prior
// value. Either way the caller comes out online. Idempotent.
func (s *IdentityService) ResolveOrCreate(identity auth.Identity) (domain.User, error) {
	if identity.Anonymous() {
		return domain.User{}, errors.ErrUnauthenticated
	}

	user, err := s.users.GetByExternalKey(identity.Subject)
	switch {
	case err == nil:
		user.Name = lo.CoalesceOrEmpty(identity.Name, user.Name)
		user.Email = lo.CoalesceOrEmpty(identity.Email, user.Email)
		user.AvatarURL = lo.CoalesceOrEmpty(identity.AvatarURL, user.AvatarURL)
		user.IsOnline = true
	case isNotFound(err):
		user = domain.User{
			ID:                  uuid.New(),
			ExternalIdentityKey: identity.Subject,
			Name:                lo.CoalesceOrEmpty(identity.Name, "Unknown"),
			Email:               identity.Email,
			AvatarURL:           identity.AvatarURL,
			IsOnline:            true,
		}
		s.log.Info("New user from external identity", "user_id", user.ID)
	default:
		return domain.User{}, err
	}

	if err := s.users.Upsert(user); err != nil {
		return domain.User{}, err
	}
	if err := s.index.Index(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SetOnline flips presence. Unknown or anonymous callers are a no-op.
func (s *IdentityService) SetOnline(identity auth.Identity, online bool) error {
	if identity.Anonymous() {
		return nil
	}
	user, err := s.users.GetByExternalKey(identity.Subject)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.users.SetOnline(user.ID, online)
}

func (s *IdentityService) Me(identity auth.Identity) (domain.User, error) {
	return resolveCaller(s.users, identity)
}

func (s *IdentityService) ByID(id uuid.UUID) (domain.User, error) {
	return s.users.GetByID(id)
}

// All returns every user except the caller. Anonymous callers get an
// empty result, never an error.
func (s *IdentityService) All(identity auth.Identity) ([]domain.User, error) {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return nil, nil
	}
	users, err := s.users.List()
	if err != nil {
		return nil, err
	}
	return lo.Filter(users, func(u domain.User, _ int) bool {
		return u.ID != me.ID
	}), nil
}

// Search resolves the index hits back to user records, excluding the
// caller. Blank queries and anonymous callers yield empty results.
func (s *IdentityService) Search(ctx context.Context, identity auth.Identity, query string) ([]domain.User, error) {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return nil, nil
	}
	ids, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	var users []domain.User
	for _, id := range ids {
		if id == me.ID {
			continue
		}
		user, err := s.users.GetByID(id)
		if err != nil {
			// The index can lag behind the store; skip ghosts.
			s.log.Warn("Indexed user missing from store", "user_id", id)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}
