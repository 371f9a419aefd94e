package forms

import (
	"strings"
	"unicode/utf8"

	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// ErrorTag identifica um erro de campo. Vazio significa válido.
type ErrorTag string

const (
	TagNone        ErrorTag = ""
	TagRequired    ErrorTag = "required"
	TagCPFInvalid  ErrorTag = "cpfInvalid"
	TagCNPJInvalid ErrorTag = "cnpjInvalid"
	TagMinLength   ErrorTag = "minlength"
	TagEmail       ErrorTag = "email"
	TagTelefone    ErrorTag = "telefone"
	TagServer      ErrorTag = "server"
	TagDuplicado   ErrorTag = "duplicado"
)

// Rule avalia um valor e devolve TagNone ou o erro encontrado.
type Rule func(value string) ErrorTag

// ValidateDocumento devolve TagNone ou exatamente um entre required, cpfInvalid
// e cnpjInvalid. Valor vazio é sempre required, qualquer que seja o tipo.
func ValidateDocumento(tipo types.TipoPessoa, raw string) ErrorTag {
	digits := utils.OnlyDigits(raw)
	if digits == "" {
		return TagRequired
	}
	if tipo == types.TipoCPF {
		if !utils.IsValidCPF(digits) {
			return TagCPFInvalid
		}
		return TagNone
	}
	if !utils.IsValidCNPJ(digits) {
		return TagCNPJInvalid
	}
	return TagNone
}

// DocumentoRule fixa o tipo em uma Rule.
func DocumentoRule(tipo types.TipoPessoa) Rule {
	return func(value string) ErrorTag { return ValidateDocumento(tipo, value) }
}

func Required() Rule {
	return func(value string) ErrorTag {
		if strings.TrimSpace(value) == "" {
			return TagRequired
		}
		return TagNone
	}
}

// MinLength ignora valores vazios; combine com Required quando necessário.
func MinLength(n int) Rule {
	return func(value string) ErrorTag {
		if value != "" && utf8.RuneCountInString(value) < n {
			return TagMinLength
		}
		return TagNone
	}
}

// Email ignora valores vazios.
func Email() Rule {
	return func(value string) ErrorTag {
		if strings.TrimSpace(value) == "" {
			return TagNone
		}
		if utils.ValidateEmail(value) != nil {
			return TagEmail
		}
		return TagNone
	}
}

// Telefone exige DDD + 8 ou 9 dígitos; ignora valores vazios.
func Telefone() Rule {
	return func(value string) ErrorTag {
		digits := strings.TrimPrefix(utils.OnlyDigits(value), "55")
		if digits == "" {
			return TagNone
		}
		if len(digits) < 10 || len(digits) > 11 {
			return TagTelefone
		}
		return TagNone
	}
}
