package identity

import (
	"context"
	"errors"

	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/repository"
)

// requestProvider reads and ends the session carried by one request
type requestProvider struct {
	svc     *Service
	carrier TokenCarrier
}

var _ scratch.IdentityProvider = (*requestProvider)(nil)

// CurrentSession returns scratch.ErrNoCurrentUser for a missing, expired
// or revoked session and clears a stale cookie. A token that fails
// verification or a store failure is returned as is.
func (p *requestProvider) CurrentSession(ctx context.Context) (scratch.Session, error) {
	token := p.carrier.Token()
	if token == "" {
		return nil, scratch.ErrNoCurrentUser
	}

	claims, err := p.svc.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			p.carrier.ClearToken()
			return nil, scratch.ErrNoCurrentUser
		}
		return nil, err
	}

	record, err := p.svc.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			p.carrier.ClearToken()
			return nil, scratch.ErrNoCurrentUser
		}
		return nil, err
	}

	if !record.Active(p.svc.now()) {
		p.carrier.ClearToken()
		return nil, scratch.ErrNoCurrentUser
	}

	return sessionFromClaims(claims), nil
}

// SignOut revokes the session record and clears the cookie. When the store
// fails the cookie is kept so the caller can retry.
func (p *requestProvider) SignOut(ctx context.Context) error {
	token := p.carrier.Token()
	if token == "" {
		return nil
	}

	claims, err := p.svc.tokens.Validate(token)
	if err == nil {
		err = p.svc.sessions.Revoke(ctx, claims.ID, p.svc.now())
		if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return err
		}
		p.svc.logger.Info("signed out", "user_id", claims.UID)
	}

	p.carrier.ClearToken()
	return nil
}
