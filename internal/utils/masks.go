package utils

import (
	"fmt"
	"strings"

	"github.com/ceidigital/cei_console_go/internal/core/types"
)

// OnlyDigits remove todo caractere que não seja dígito.
func OnlyDigits(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// separator é um literal inserido antes do dígito de índice pos.
type separator struct {
	pos int
	lit string
}

var (
	cpfMask  = []separator{{3, "."}, {6, "."}, {9, "-"}}
	cnpjMask = []separator{{2, "."}, {5, "."}, {8, "/"}, {12, "-"}}
)

// MaskDocumento formata os dígitos conforme o tipo, de forma progressiva:
// separadores só aparecem quando existe um dígito depois deles.
func MaskDocumento(tipo types.TipoPessoa, value string) string {
	digits := OnlyDigits(value)
	if len(digits) > tipo.DigitCount() {
		digits = digits[:tipo.DigitCount()]
	}
	seps := cnpjMask
	if tipo == types.TipoCPF {
		seps = cpfMask
	}
	return applyMask(digits, seps)
}

func applyMask(digits string, seps []separator) string {
	var sb strings.Builder
	next := 0
	for i, r := range digits {
		if next < len(seps) && seps[next].pos == i {
			sb.WriteString(seps[next].lit)
			next++
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// DocumentoPlaceholder devolve o exemplo exibido no campo vazio.
func DocumentoPlaceholder(tipo types.TipoPessoa) string {
	if tipo == types.TipoCPF {
		return "000.000.000-00"
	}
	return "00.000.000/0000-00"
}

// FormatDocumentoExibicao é usado nas listagens: só aplica a máscara a documentos
// completos, devolve o valor cru nos demais casos e "-" quando vazio.
func FormatDocumentoExibicao(tipo types.TipoPessoa, documento string) string {
	digits := OnlyDigits(documento)
	if digits == "" {
		return "-"
	}
	if len(digits) == tipo.DigitCount() {
		return MaskDocumento(tipo, digits)
	}
	return documento
}

// MaskTelefone formata um telefone brasileiro como "+55 (DD) XXXXX-XXXX"
// (11 dígitos) ou "+55 (DD) XXXX-XXXX". Um "55" inicial é tratado como DDI.
func MaskTelefone(value string) string {
	digits := OnlyDigits(value)
	digits = strings.TrimPrefix(digits, "55")
	if len(digits) > 11 {
		digits = digits[:11]
	}

	switch n := len(digits); {
	case n <= 2:
		return digits
	case n <= 6:
		return fmt.Sprintf("+55 (%s) %s", digits[:2], digits[2:])
	case n <= 10:
		return fmt.Sprintf("+55 (%s) %s-%s", digits[:2], digits[2:6], digits[6:])
	default:
		return fmt.Sprintf("+55 (%s) %s-%s", digits[:2], digits[2:7], digits[7:])
	}
}

// FormatSeconds formata segundos como MM:SS. Valores negativos viram 00:00.
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
