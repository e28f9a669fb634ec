package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/pm-backoffice-bfa-go/internal/domain"
	"github.com/boddenberg/pm-backoffice-bfa-go/internal/service"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := service.NewTokenService("secret", time.Hour)

	tok, err := svc.Issue(&domain.User{ID: "u1", TenantID: "t1", Email: "ana@pousada.com", Role: "owner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Validate(tok.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.TenantID != "t1" || claims.Subject != "u1" || claims.Email != "ana@pousada.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	svc := service.NewTokenService("secret", time.Hour)
	tok, _ := svc.Issue(&domain.User{ID: "u1", TenantID: "t1"})
	expired, _ := service.NewTokenService("secret", -time.Minute).Issue(&domain.User{ID: "u1", TenantID: "t1"})
	foreign, _ := service.NewTokenService("other", time.Hour).Issue(&domain.User{ID: "u1", TenantID: "t1"})
	noTenant, _ := svc.Issue(&domain.User{ID: "u1"})

	cases := map[string]string{
		"garbage":   "not-a-jwt",
		"tampered":  tok.AccessToken + "x",
		"expired":   expired.AccessToken,
		"foreign":   foreign.AccessToken,
		"no tenant": noTenant.AccessToken,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(raw)
			var ue *domain.ErrUnauthorized
			if !errors.As(err, &ue) {
				t.Errorf("expected unauthorized, got %v", err)
			}
		})
	}
}
