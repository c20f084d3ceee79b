package services

import (
	stderrors "errors"
	"fmt"

	"chat-core/auth"
	"chat-core/domain"
	"chat-core/errors"
	"chat-core/repositories"
)

func isNotFound(err error) bool {
	return stderrors.Is(err, errors.ErrNotFound)
}

// resolveCaller maps a verified identity to its user record. A caller
// that never went through ResolveOrCreate is indistinguishable from an
// unauthenticated one as far as the core is concerned.
func resolveCaller(users repositories.IUserRepository, identity auth.Identity) (domain.User, error) {
	if identity.Anonymous() {
		return domain.User{}, errors.ErrUnauthenticated
	}
	user, err := users.GetByExternalKey(identity.Subject)
	if err != nil {
		return domain.User{}, fmt.Errorf("unknown subject %q: %w", identity.Subject, errors.ErrUnauthenticated)
	}
	return user, nil
}
