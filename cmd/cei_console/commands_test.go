package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/ui/pages"
)

func TestDescribeError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validação lista campos em ordem",
			err: appErrors.NewValidationError("Dados inválidos.", map[string]string{
				"nomeRazaoSocial": "obrigatório",
				"email":           "inválido",
			}),
			want: "Dados inválidos.\n  email: inválido\n  nomeRazaoSocial: obrigatório",
		},
		{
			name: "falha de rede",
			err:  fmt.Errorf("listar: %w", &appErrors.APIError{Status: 0}),
			want: pages.MsgConnectivity,
		},
		{
			name: "403",
			err:  &appErrors.APIError{Status: 403, Detail: "proibido"},
			want: pages.MsgPermissionDenied,
		},
		{
			name: "sessão ausente",
			err:  appErrors.ErrInvalidSession,
			want: "Sessão ausente ou expirada. Use 'cei_console login'.",
		},
		{
			name: "problem detail com campos",
			err: &appErrors.APIError{
				Status:      409,
				Title:       "Conflict",
				Detail:      "Documento já cadastrado.",
				FieldErrors: map[string][]string{"numeroDocumento": {"duplicado", "em uso"}},
			},
			want: "API respondeu 409: Documento já cadastrado.\n  numeroDocumento: duplicado; em uso",
		},
		{
			name: "problem detail só com título",
			err:  &appErrors.APIError{Status: 500, Title: "Internal Server Error"},
			want: "API respondeu 500: Internal Server Error",
		},
		{
			name: "erro comum",
			err:  fmt.Errorf("%w: ID inválido 'x'", appErrors.ErrInvalidInput),
			want: fmt.Sprintf("%v: ID inválido 'x'", appErrors.ErrInvalidInput),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, describeError(tc.err))
		})
	}
}

func TestPayloadFlagsApplyOnlyChanged(t *testing.T) {
	fs := newFlagSet("empresas update", &bytes.Buffer{})
	pf := newPayloadFlags(fs)
	require.NoError(t, fs.Parse([]string{"--razao", "Acme Indústria Ltda", "--uf", "rs", "--fantasia", ""}))

	current := models.Empresa{
		TipoPessoa:      "CNPJ",
		NumeroDocumento: "12345678000195",
		NomeRazaoSocial: "Acme Ltda",
		NomeFantasia:    "Acme",
		Cidade:          "Porto Alegre",
		Estado:          "SC",
	}
	payload := models.PayloadFromEmpresa(current)
	pf.apply(&payload)

	assert.Equal(t, "Acme Indústria Ltda", payload.NomeRazaoSocial)
	assert.Equal(t, "rs", payload.Estado)
	assert.Equal(t, "", payload.NomeFantasia, "flag informada vazia limpa o campo")
	assert.Equal(t, "12345678000195", payload.NumeroDocumento)
	assert.Equal(t, "Porto Alegre", payload.Cidade)

	payload.Normalize()
	assert.Equal(t, "RS", payload.Estado)
	assert.Equal(t, "Acme Indústria Ltda", payload.NomeFantasia)
}

func TestParseEmpresaID(t *testing.T) {
	id, err := parseEmpresaID([]string{"42"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, args := range [][]string{nil, {"abc"}, {"0"}, {"-3"}} {
		_, err := parseEmpresaID(args)
		assert.ErrorIs(t, err, appErrors.ErrInvalidInput, "%v", args)
	}
}

func TestCmdEmpresasRejectsUnknownSubcommand(t *testing.T) {
	err := cmdEmpresas(&console{}, []string{"renomear"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)

	err = cmdEmpresas(&console{}, nil)
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"voar"}, &bytes.Buffer{}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Comando desconhecido: voar")
	assert.Contains(t, stderr.String(), "empresas")
}
