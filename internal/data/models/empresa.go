package models

import (
	"strings"
	"time"

	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// Empresa é o registro de empresa como devolvido pela API remota.
// NumeroDocumento trafega sempre só com dígitos.
type Empresa struct {
	ID              int64      `json:"id"`
	TipoPessoa      string     `json:"tipoPessoa"`
	NumeroDocumento string     `json:"numeroDocumento"`
	NomeRazaoSocial string     `json:"nomeRazaoSocial"`
	NomeFantasia    string     `json:"nomeFantasia,omitempty"`
	TipoAtividade   string     `json:"tipoAtividade,omitempty"`
	CNAE            string     `json:"cnae,omitempty"`
	DataAbertura    string     `json:"dataAbertura,omitempty"` // yyyy-MM-dd
	Situacao        string     `json:"situacao,omitempty"`
	Endereco        string     `json:"endereco,omitempty"`
	Cidade          string     `json:"cidade,omitempty"`
	Estado          string     `json:"estado,omitempty"`
	Telefone        string     `json:"telefone,omitempty"`
	Email           string     `json:"email,omitempty"`
	Bloqueada       bool       `json:"bloqueada"`
	CriadoEm        *time.Time `json:"criadoEm,omitempty"`
	AtualizadoEm    *time.Time `json:"atualizadoEm,omitempty"`
}

// Tipo devolve o tipo de pessoa já normalizado.
func (e Empresa) Tipo() types.TipoPessoa {
	return types.ParseTipoPessoa(e.TipoPessoa)
}

// DocumentoFormatado devolve o documento mascarado para exibição.
func (e Empresa) DocumentoFormatado() string {
	return utils.FormatDocumentoExibicao(e.Tipo(), e.NumeroDocumento)
}

// EmpresaPayload é o corpo de criação e de atualização.
type EmpresaPayload struct {
	TipoPessoa      string `json:"tipoPessoa"`
	NumeroDocumento string `json:"numeroDocumento"`
	NomeRazaoSocial string `json:"nomeRazaoSocial"`
	NomeFantasia    string `json:"nomeFantasia,omitempty"`
	TipoAtividade   string `json:"tipoAtividade,omitempty"`
	CNAE            string `json:"cnae,omitempty"`
	DataAbertura    string `json:"dataAbertura,omitempty"`
	Situacao        string `json:"situacao,omitempty"`
	Endereco        string `json:"endereco,omitempty"`
	Cidade          string `json:"cidade,omitempty"`
	Estado          string `json:"estado,omitempty"`
	Telefone        string `json:"telefone,omitempty"`
	Email           string `json:"email,omitempty"`
}

// Normalize deixa o payload no formato canônico da API: tipo em maiúsculas,
// documento e telefone só com dígitos, textos sem espaços nas pontas.
// Nome fantasia vazio herda a razão social.
func (p *EmpresaPayload) Normalize() {
	p.TipoPessoa = types.ParseTipoPessoa(p.TipoPessoa).String()
	p.NumeroDocumento = utils.OnlyDigits(p.NumeroDocumento)
	p.NomeRazaoSocial = strings.TrimSpace(p.NomeRazaoSocial)
	p.NomeFantasia = strings.TrimSpace(p.NomeFantasia)
	if p.NomeFantasia == "" {
		p.NomeFantasia = p.NomeRazaoSocial
	}
	p.TipoAtividade = strings.TrimSpace(p.TipoAtividade)
	p.CNAE = strings.TrimSpace(p.CNAE)
	p.DataAbertura = strings.TrimSpace(p.DataAbertura)
	p.Situacao = strings.TrimSpace(p.Situacao)
	p.Endereco = strings.TrimSpace(p.Endereco)
	p.Cidade = strings.TrimSpace(p.Cidade)
	p.Estado = strings.ToUpper(strings.TrimSpace(p.Estado))
	p.Telefone = utils.OnlyDigits(p.Telefone)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
}

// PayloadFromEmpresa copia os campos editáveis de um registro existente.
func PayloadFromEmpresa(e Empresa) EmpresaPayload {
	return EmpresaPayload{
		TipoPessoa:      e.TipoPessoa,
		NumeroDocumento: e.NumeroDocumento,
		NomeRazaoSocial: e.NomeRazaoSocial,
		NomeFantasia:    e.NomeFantasia,
		TipoAtividade:   e.TipoAtividade,
		CNAE:            e.CNAE,
		DataAbertura:    e.DataAbertura,
		Situacao:        e.Situacao,
		Endereco:        e.Endereco,
		Cidade:          e.Cidade,
		Estado:          e.Estado,
		Telefone:        e.Telefone,
		Email:           e.Email,
	}
}

// ExistsResponse é a resposta de GET /api/empresas/exists.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}
