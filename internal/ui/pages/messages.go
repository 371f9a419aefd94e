package pages

import (
	"errors"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

// Mensagens exibidas ao usuário.
const (
	MsgConnectivity      = "Não foi possível conectar ao servidor. Verifique se a API está em execução."
	MsgLoginInvalid      = "E-mail ou senha incorretos."
	MsgLoginNotFound     = `Usuário não cadastrado. Clique em "Criar uma conta".`
	MsgLoginFailed       = "Falha ao entrar. Tente novamente."
	MsgLoginRequired     = "Informe e-mail e senha."
	MsgTokenSent         = "Enviamos um código por e-mail e SMS."
	MsgTokenResent       = "Código reenviado."
	MsgTokenSendFailed   = "Não foi possível enviar o código. Tente novamente."
	MsgTokenResendFailed = "Não foi possível reenviar o código."
	MsgConfirmed         = "Cadastro confirmado! Faça login."
	MsgConfirmFailed     = "Não foi possível confirmar o cadastro. Verifique o código e tente novamente."
	MsgEmailExists       = "E-mail já cadastrado. Faça login."
	MsgDocumentExists    = "Documento já cadastrado. Utilize outro documento ou faça login."
	MsgDocumentDuplicate = "Documento já cadastrado."
	MsgRecordExists      = "Registro já existe com este documento."
	MsgNothingToSave     = "Nada para salvar."
	MsgSaveFailed        = "Falha ao salvar. Tente novamente."
	MsgEmpresaCreated    = "Empresa criada com sucesso."
	MsgEmpresaUpdated    = "Empresa atualizada com sucesso."
	MsgEmpresaDeleted    = "Empresa excluída com sucesso."
	MsgDeleteFailed      = "Falha ao excluir. Tente novamente."
	MsgLoadFailed        = "Falha ao carregar empresas. Tente novamente."
	MsgEmpresaNotFound   = "Empresa não encontrada."
	MsgExportFailed      = "Falha ao exportar. Tente novamente."
	MsgPermissionDenied  = "Você não tem permissão para esta operação."
	MsgLogoutFailed      = "Falha ao encerrar a sessão."
	MsgCheckFields       = "Verifique os campos destacados."
	MsgExportDone        = "Arquivo exportado em %s"
)

// LoginErrorMessage escolhe a mensagem da tela de login pelo status da resposta.
func LoginErrorMessage(err error) string {
	if errors.Is(err, appErrors.ErrValidation) {
		if _, isAPI := appErrors.AsAPIError(err); !isAPI {
			return MsgLoginRequired
		}
	}
	apiErr, ok := appErrors.AsAPIError(err)
	if !ok {
		return MsgLoginFailed
	}
	switch apiErr.Status {
	case 401:
		return MsgLoginInvalid
	case 404:
		return MsgLoginNotFound
	case 0:
		return MsgConnectivity
	}
	return detailOr(err, MsgLoginFailed)
}

// detailOr devolve o detail da API, ou fallback.
func detailOr(err error, fallback string) string {
	if apiErr, ok := appErrors.AsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// genericMessage trata falha de conexão antes de cair no detail ou no fallback.
func genericMessage(err error, fallback string) string {
	if errors.Is(err, appErrors.ErrNetwork) {
		return MsgConnectivity
	}
	return detailOr(err, fallback)
}

// fieldErrors junta os erros de campo da API e os da validação local.
func fieldErrors(err error) map[string][]string {
	if apiErr, ok := appErrors.AsAPIError(err); ok && len(apiErr.FieldErrors) > 0 {
		return apiErr.FieldErrors
	}
	var ve *appErrors.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		out := make(map[string][]string, len(ve.Fields))
		for k, v := range ve.Fields {
			out[k] = []string{v}
		}
		return out
	}
	return nil
}

func isUsuarioJaExiste(err error) bool {
	apiErr, ok := appErrors.AsAPIError(err)
	return ok && apiErr.Status == 409 && apiErr.Detail == models.DetailUsuarioJaExiste
}
