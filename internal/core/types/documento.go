package types

import "strings"

// TipoPessoa identifica o tipo do documento: CPF (pessoa física) ou CNPJ (pessoa jurídica).
type TipoPessoa string

const (
	TipoCPF  TipoPessoa = "CPF"
	TipoCNPJ TipoPessoa = "CNPJ"
)

// ParseTipoPessoa aceita qualquer caixa; valores desconhecidos ou vazios viram CNPJ,
// o padrão dos formulários.
func ParseTipoPessoa(s string) TipoPessoa {
	if strings.EqualFold(strings.TrimSpace(s), string(TipoCPF)) {
		return TipoCPF
	}
	return TipoCNPJ
}

// Valid informa se o valor é um dos tipos conhecidos.
func (t TipoPessoa) Valid() bool {
	return t == TipoCPF || t == TipoCNPJ
}

// DigitCount é o número de dígitos do documento completo.
func (t TipoPessoa) DigitCount() int {
	if t == TipoCPF {
		return 11
	}
	return 14
}

func (t TipoPessoa) String() string {
	return string(t)
}
