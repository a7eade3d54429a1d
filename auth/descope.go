package auth

import (
	"context"
	"fmt"

	"github.com/descope/go-sdk/descope"
	"github.com/descope/go-sdk/descope/client"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/errs"
)

// sessionValidator is the part of the Descope auth API the verifier uses.
type sessionValidator interface {
	ValidateSessionWithToken(ctx context.Context, sessionToken string) (bool, *descope.Token, error)
}

// DescopeVerifier accepts session tokens issued by a Descope project.
type DescopeVerifier struct {
	sessions sessionValidator
}

func NewDescopeVerifier(projectID, managementKey string) (*DescopeVerifier, error) {
	descopeClient, err := client.NewWithConfig(&client.Config{
		ProjectID:     projectID,
		ManagementKey: managementKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create descope client: %w", err)
	}
	return &DescopeVerifier{sessions: descopeClient.Auth}, nil
}

func (d *DescopeVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	ok, session, err := d.sessions.ValidateSessionWithToken(ctx, token)
	if err != nil || !ok || session == nil {
		log.Debug().Err(err).Msg("descope session rejected")
		return Identity{}, errs.NewInvalidTokenError()
	}

	email, _ := session.Claims["email"].(string)
	return Identity{Subject: session.ID, Email: email}, nil
}
