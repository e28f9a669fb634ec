// Package port — signup_port.go define as dependências do wizard de cadastro.
// O SignupService depende dessas interfaces e não dos clients concretos.
package port

import (
	"context"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	signupdomain "github.com/boddenberg/pm-backoffice-bfa-go/internal/signup/domain"
)

// TokenIssuer emite o access token do usuário dono ao final do cadastro.
// O service.TokenService implementa essa interface.
type TokenIssuer interface {
	Issue(u *domain.User) (*domain.AccessToken, error)
}

// SessionStore guarda as sessões em andamento (cache com TTL).
type SessionStore interface {
	Get(ctx context.Context, key string) (*signupdomain.Session, bool)
	Set(ctx context.Context, key string, value *signupdomain.Session)
	Delete(ctx context.Context, key string)
}
