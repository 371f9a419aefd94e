package repositories

import (
	"context"
	"net/http"
	"net/url"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/data/api"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

const empresasPath = "/api/empresas"

// EmpresaRepository acessa as empresas mantidas pela API remota.
type EmpresaRepository interface {
	List(ctx context.Context) ([]models.Empresa, error)
	GetByID(ctx context.Context, id int64) (*models.Empresa, error)
	// SearchByCNPJ aceita o CNPJ com ou sem máscara.
	SearchByCNPJ(ctx context.Context, cnpj string) (*models.Empresa, error)
	Exists(ctx context.Context, tipo types.TipoPessoa, numeroDocumento string) (bool, error)
	Create(ctx context.Context, payload models.EmpresaPayload) (*models.Empresa, error)
	Update(ctx context.Context, id int64, payload models.EmpresaPayload) (*models.Empresa, error)
	Delete(ctx context.Context, id int64) error
}

type apiEmpresaRepository struct {
	client api.Doer
}

// NewAPIEmpresaRepository cria o repositório sobre o cliente da API.
func NewAPIEmpresaRepository(client api.Doer) EmpresaRepository {
	if client == nil {
		appLogger.Fatalf("api.Doer não pode ser nil para NewAPIEmpresaRepository")
	}
	return &apiEmpresaRepository{client: client}
}

func (r *apiEmpresaRepository) List(ctx context.Context) ([]models.Empresa, error) {
	var out []models.Empresa
	if err := r.client.Do(ctx, http.MethodGet, empresasPath, nil, nil, &out); err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao listar empresas")
	}
	if out == nil {
		out = []models.Empresa{}
	}
	return out, nil
}

func (r *apiEmpresaRepository) GetByID(ctx context.Context, id int64) (*models.Empresa, error) {
	var out models.Empresa
	if err := r.client.Do(ctx, http.MethodGet, api.PathID(empresasPath, id), nil, nil, &out); err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao buscar empresa %d", id)
	}
	return &out, nil
}

func (r *apiEmpresaRepository) SearchByCNPJ(ctx context.Context, cnpj string) (*models.Empresa, error) {
	digits := utils.OnlyDigits(cnpj)
	if digits == "" {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "CNPJ vazio para busca")
	}
	var out models.Empresa
	q := url.Values{"cnpj": {digits}}
	if err := r.client.Do(ctx, http.MethodGet, empresasPath+"/search", q, nil, &out); err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao buscar empresa pelo CNPJ %s", digits)
	}
	return &out, nil
}

func (r *apiEmpresaRepository) Exists(ctx context.Context, tipo types.TipoPessoa, numeroDocumento string) (bool, error) {
	digits := utils.OnlyDigits(numeroDocumento)
	if digits == "" {
		return false, nil
	}
	var out models.ExistsResponse
	q := url.Values{"tipoPessoa": {tipo.String()}, "numeroDocumento": {digits}}
	if err := r.client.Do(ctx, http.MethodGet, empresasPath+"/exists", q, nil, &out); err != nil {
		return false, appErrors.WrapErrorf(err, "falha ao verificar documento %s", digits)
	}
	return out.Exists, nil
}

func (r *apiEmpresaRepository) Create(ctx context.Context, payload models.EmpresaPayload) (*models.Empresa, error) {
	var out models.Empresa
	if err := r.client.Do(ctx, http.MethodPost, empresasPath, nil, payload, &out); err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao criar empresa")
	}
	return &out, nil
}

func (r *apiEmpresaRepository) Update(ctx context.Context, id int64, payload models.EmpresaPayload) (*models.Empresa, error) {
	var out models.Empresa
	if err := r.client.Do(ctx, http.MethodPut, api.PathID(empresasPath, id), nil, payload, &out); err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao atualizar empresa %d", id)
	}
	return &out, nil
}

func (r *apiEmpresaRepository) Delete(ctx context.Context, id int64) error {
	if err := r.client.Do(ctx, http.MethodDelete, api.PathID(empresasPath, id), nil, nil, nil); err != nil {
		return appErrors.WrapErrorf(err, "falha ao excluir empresa %d", id)
	}
	return nil
}
