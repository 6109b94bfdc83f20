package usecase

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type AuthUseCase struct {
	authenticator interfaces.Authenticator
}

// Login verifies staff credentials. Unknown users and wrong passwords both
// fail with model.ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*model.Principal, error) {
	if uc.authenticator == nil {
		return nil, goerr.Wrap(ErrAuthenticatorNotConfigured, "cannot log in", goerr.V("username", username))
	}

	p, err := uc.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		logging.From(ctx).Warn("login failed", "username", username)
		return nil, goerr.Wrap(err, "failed to authenticate", goerr.V("username", username))
	}

	logging.From(ctx).Info("login succeeded", "username", p.Username, "role", p.Role)
	return p, nil
}
