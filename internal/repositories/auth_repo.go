package repositories

import (
	"context"
	"net/http"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/data/api"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

// AuthRepository cobre login e cadastro na API remota.
type AuthRepository interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RequestRegistrationToken(ctx context.Context, req models.RegisterTokenRequest) error
	ConfirmRegistration(ctx context.Context, req models.RegisterConfirmRequest) error
}

type apiAuthRepository struct {
	client api.Doer
}

func NewAPIAuthRepository(client api.Doer) AuthRepository {
	if client == nil {
		appLogger.Fatalf("api.Doer não pode ser nil para NewAPIAuthRepository")
	}
	return &apiAuthRepository{client: client}
}

func (r *apiAuthRepository) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := r.client.Do(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, appErrors.WrapErrorf(err, "falha no login de '%s'", req.Email)
	}
	return &out, nil
}

func (r *apiAuthRepository) RequestRegistrationToken(ctx context.Context, req models.RegisterTokenRequest) error {
	if err := r.client.Do(ctx, http.MethodPost, "/auth/register/request-token", nil, req, nil); err != nil {
		return appErrors.WrapErrorf(err, "falha ao solicitar código de cadastro para '%s'", req.Email)
	}
	return nil
}

func (r *apiAuthRepository) ConfirmRegistration(ctx context.Context, req models.RegisterConfirmRequest) error {
	if err := r.client.Do(ctx, http.MethodPost, "/auth/register/confirm", nil, req, nil); err != nil {
		return appErrors.WrapErrorf(err, "falha ao confirmar cadastro de '%s'", req.Email)
	}
	return nil
}
