package utils

import (
	"net/mail"
	"strings"
	"unicode"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/core/types"
)

// --- Validadores de documento ---

// IsValidDocumento valida os dígitos verificadores do documento conforme o tipo.
// Caracteres não numéricos são descartados antes da verificação.
func IsValidDocumento(tipo types.TipoPessoa, documento string) bool {
	switch tipo {
	case types.TipoCPF:
		return IsValidCPF(documento)
	case types.TipoCNPJ:
		return IsValidCNPJ(documento)
	}
	return false
}

// IsValidCPF verifica um CPF (11 dígitos, com ou sem máscara).
func IsValidCPF(cpf string) bool {
	d := digitsOf(cpf)
	if len(d) != 11 || allDigitsEqual(d) {
		return false
	}
	// Pesos 10..2 sobre os 9 primeiros; depois 11..2 sobre os 10 primeiros.
	if checkDigit(d[:9], descendingWeights(10, 9)) != d[9] {
		return false
	}
	return checkDigit(d[:10], descendingWeights(11, 10)) == d[10]
}

// IsValidCNPJ verifica um CNPJ (14 dígitos, com ou sem máscara).
func IsValidCNPJ(cnpj string) bool {
	d := digitsOf(cnpj)
	if len(d) != 14 || allDigitsEqual(d) {
		return false
	}
	if checkDigit(d[:12], cnpjWeights(12)) != d[12] {
		return false
	}
	return checkDigit(d[:13], cnpjWeights(13)) == d[13]
}

// checkDigit calcula o dígito verificador módulo 11: resto < 2 vira 0, senão 11 - resto.
func checkDigit(digits, weights []int) int {
	sum := 0
	for i, digit := range digits {
		sum += digit * weights[i]
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

func descendingWeights(start, n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = start - i
	}
	return w
}

// cnpjWeights aplica o ciclo 2..9 da direita para a esquerda.
func cnpjWeights(n int) []int {
	w := make([]int, n)
	weight := 2
	for i := n - 1; i >= 0; i-- {
		w[i] = weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	return w
}

func digitsOf(s string) []int {
	d := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			d = append(d, int(r-'0'))
		}
	}
	return d
}

// allDigitsEqual verifica se todos os dígitos são iguais (ex: 000.000.000-00).
func allDigitsEqual(d []int) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// --- Validador de E-mail ---

// ValidateEmail verifica se um e-mail é válido.
// Retorna nil se válido, ou um *appErrors.ValidationError.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return appErrors.NewValidationError("E-mail é obrigatório.", map[string]string{"email": "obrigatório"})
	}
	if len(email) > 254 {
		return appErrors.NewValidationError("E-mail excede 254 caracteres.", map[string]string{"email": "muito longo"})
	}

	// ParseAddress aceita "Nome <x@y>"; exigimos o endereço puro.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return appErrors.NewValidationError("Formato de e-mail inválido.", map[string]string{"email": "formato inválido"})
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return appErrors.NewValidationError("Formato de e-mail inválido.", map[string]string{"email": "formato inválido"})
	}
	return nil
}

// --- Sanitização ---

// SanitizeInput remove caracteres de controle e colapsa espaços repetidos.
func SanitizeInput(inputStr string) string {
	if inputStr == "" {
		return ""
	}
	var sb strings.Builder
	lastWasSpace := false
	for _, r := range inputStr {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				sb.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		sb.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(sb.String())
}
