package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Erros sentinela para os tipos comuns de falha do console.
// Verifique-os com errors.Is(err, ErrNotFound).
var (
	// --- Erros Gerais ---
	ErrInternal        = errors.New("erro interno da aplicação")
	ErrConfiguration   = errors.New("erro de configuração da aplicação")
	ErrResourceLoading = errors.New("falha ao carregar recurso essencial")

	// --- Comunicação com a API ---
	ErrNetwork = errors.New("não foi possível conectar ao servidor")

	// --- Autenticação e Sessão ---
	ErrUnauthorized       = errors.New("não autenticado")
	ErrInvalidCredentials = errors.New("credenciais inválidas (e-mail ou senha)")
	ErrInvalidSession     = errors.New("sessão inválida ou não encontrada")

	// --- Autorização ---
	ErrPermissionDenied = errors.New("permissão negada")
	ErrPermissionConfig = errors.New("erro na configuração interna de permissões")

	// --- Banco local / Repositórios ---
	ErrDatabase = errors.New("erro na operação com o banco de dados")
	ErrNotFound = errors.New("registro não encontrado")
	ErrConflict = errors.New("conflito de dados (registro duplicado)")

	// --- Validação e Entrada ---
	ErrValidation   = errors.New("erro de validação nos dados fornecidos")
	ErrInvalidInput = errors.New("entrada de dados inválida ou mal formatada")

	// --- Específicos do console ---
	ErrExport        = errors.New("falha ao exportar dados")
	ErrDataImport    = errors.New("falha ao importar dados")
	ErrNothingToSave = errors.New("nada para salvar")
	ErrBusy          = errors.New("operação em andamento")
)

// ValidationError contém detalhes sobre os campos que falharam na validação.
type ValidationError struct {
	// Message é uma mensagem geral sobre a falha de validação.
	Message string
	// Fields mapeia nomes de campos para suas respectivas mensagens de erro.
	Fields map[string]string
	// Underlying é o erro original (opcional).
	Underlying error
}

// NewValidationError cria uma nova instância de ValidationError.
func NewValidationError(message string, fields map[string]string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Message != "" {
		sb.WriteString(ve.Message)
	} else {
		sb.WriteString("Erro de validação")
	}

	if len(ve.Fields) > 0 {
		keys := make([]string, 0, len(ve.Fields))
		for field := range ve.Fields {
			keys = append(keys, field)
		}
		sort.Strings(keys)
		fieldErrors := make([]string, 0, len(keys))
		for _, field := range keys {
			fieldErrors = append(fieldErrors, fmt.Sprintf("%s: %s", field, ve.Fields[field]))
		}
		sb.WriteString(" (Detalhes: ")
		sb.WriteString(strings.Join(fieldErrors, ", "))
		sb.WriteString(")")
	}
	if ve.Underlying != nil {
		sb.WriteString(fmt.Sprintf(" | Erro original: %v", ve.Underlying))
	}
	return sb.String()
}

func (ve *ValidationError) Unwrap() error {
	return ve.Underlying
}

// Is faz `errors.Is(err, ErrValidation)` funcionar para qualquer *ValidationError.
func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// APIError representa uma resposta de erro da API remota (ProblemDetail).
// Status 0 indica falha de transporte: o servidor não foi alcançado.
type APIError struct {
	Status      int
	Title       string
	Detail      string
	FieldErrors map[string][]string
	Underlying  error
}

func (ae *APIError) Error() string {
	if ae.Status == 0 {
		if ae.Underlying != nil {
			return fmt.Sprintf("%v: %v", ErrNetwork, ae.Underlying)
		}
		return ErrNetwork.Error()
	}
	msg := ae.Detail
	if msg == "" {
		msg = ae.Title
	}
	if msg == "" {
		return fmt.Sprintf("api respondeu com status %d", ae.Status)
	}
	return fmt.Sprintf("api respondeu com status %d: %s", ae.Status, msg)
}

func (ae *APIError) Unwrap() error {
	return ae.Underlying
}

// Is mapeia o status HTTP para os erros sentinela.
func (ae *APIError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return ae.Status == 0
	case ErrInvalidCredentials, ErrUnauthorized:
		return ae.Status == 401
	case ErrPermissionDenied:
		return ae.Status == 403
	case ErrNotFound:
		return ae.Status == 404
	case ErrConflict:
		return ae.Status == 409
	case ErrValidation:
		return ae.Status == 400 || ae.Status == 422
	}
	return false
}

// HasFieldError informa se a API apontou erro para o campo.
func (ae *APIError) HasFieldError(field string) bool {
	_, ok := ae.FieldErrors[field]
	return ok
}

// AsAPIError extrai um *APIError da cadeia de erros.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// DatabaseErrorDetail carrega informações sobre uma falha no banco local.
type DatabaseErrorDetail struct {
	// Operation descreve a operação que estava sendo realizada (ex: "gravando estado").
	Operation string
	Err       error
}

// NewDatabaseErrorDetail cria um novo DatabaseErrorDetail.
func NewDatabaseErrorDetail(operation string, originalErr error) *DatabaseErrorDetail {
	if originalErr == nil {
		originalErr = ErrDatabase
	}
	return &DatabaseErrorDetail{Operation: operation, Err: originalErr}
}

func (de *DatabaseErrorDetail) Error() string {
	return fmt.Sprintf("erro de banco de dados durante %s: %v", de.Operation, de.Err)
}

func (de *DatabaseErrorDetail) Unwrap() error {
	return de.Err
}

// Is trata todo DatabaseErrorDetail como ErrDatabase.
func (de *DatabaseErrorDetail) Is(target error) bool {
	if target == ErrDatabase {
		return true
	}
	return errors.Is(de.Err, target)
}

// WrapErrorf envolve um erro existente com uma mensagem formatada,
// preservando-o para `errors.Is` e `errors.As`.
func WrapErrorf(originalErr error, format string, args ...interface{}) error {
	if originalErr == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), originalErr)
}
