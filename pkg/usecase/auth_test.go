package usecase_test

import (
	"context"
	"testing"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/repository/memory"
	"github.com/hrmonitor/hrmonitor/pkg/service/auth"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/m-mizutani/gt"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthUseCase_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	gt.NoError(t, err).Required()

	authenticator := auth.NewAuthenticator([]model.Account{
		{Username: "alice", PasswordHash: string(hash), Role: "admin"},
	})
	uc := usecase.New(memory.New(), usecase.WithAuthenticator(authenticator))
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		p, err := uc.Auth.Login(ctx, "alice", "correct horse")
		gt.NoError(t, err).Required()
		gt.Value(t, p.Username).Equal("alice")
		gt.Value(t, p.Role).Equal("admin")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := uc.Auth.Login(ctx, "alice", "battery staple")
		gt.Error(t, err).Is(model.ErrUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.Auth.Login(ctx, "mallory", "correct horse")
		gt.Error(t, err).Is(model.ErrUnauthorized)
	})

	t.Run("no authenticator", func(t *testing.T) {
		_, err := usecase.New(memory.New()).Auth.Login(ctx, "alice", "correct horse")
		gt.Error(t, err).Is(usecase.ErrAuthenticatorNotConfigured)
	})
}
