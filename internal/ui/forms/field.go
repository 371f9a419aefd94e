// Package forms implementa o estado de formulários sem interface gráfica:
// valores, regras, erros de cliente e erros vindos do servidor.
package forms

import (
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// Field é um controle de formulário.
// Erros de servidor ficam separados dos erros de regra e somem quando o usuário edita o campo.
type Field struct {
	name     string
	value    string
	rules    []Rule
	mask     func(string) string
	tag      ErrorTag
	server   []string
	extra    []ErrorTag
	dirty    bool
	disabled bool
}

// NewField cria um campo com valor inicial e regras.
func NewField(name, initial string, rules ...Rule) *Field {
	f := &Field{name: name, rules: rules}
	f.value = initial
	f.Validate()
	return f
}

// WithMask aplica mask a todo valor digitado.
func (f *Field) WithMask(mask func(string) string) *Field {
	f.mask = mask
	f.value = f.apply(f.value)
	f.Validate()
	return f
}

func (f *Field) apply(v string) string {
	if f.mask != nil {
		return f.mask(v)
	}
	return v
}

func (f *Field) Name() string  { return f.name }
func (f *Field) Value() string { return f.value }

// SetValue registra uma edição do usuário: aplica a máscara, marca o campo
// como alterado, descarta erros de servidor e revalida.
func (f *Field) SetValue(v string) {
	f.value = f.apply(v)
	f.dirty = true
	f.ClearServerErrors()
	f.Validate()
}

// Reset define o valor programaticamente e volta o campo a pristine.
func (f *Field) Reset(v string) {
	f.value = f.apply(v)
	f.dirty = false
	f.ClearServerErrors()
	f.Validate()
}

// SetRules troca as regras e revalida.
func (f *Field) SetRules(rules ...Rule) {
	f.rules = rules
	f.Validate()
}

// Validate reavalia as regras e guarda o primeiro erro. Campos desabilitados são válidos.
func (f *Field) Validate() ErrorTag {
	f.tag = TagNone
	if f.disabled {
		return TagNone
	}
	for _, rule := range f.rules {
		if tag := rule(f.value); tag != TagNone {
			f.tag = tag
			break
		}
	}
	return f.tag
}

// Error devolve o erro de regra atual, ou TagServer quando só há erro de servidor.
func (f *Field) Error() ErrorTag {
	if f.tag != TagNone {
		return f.tag
	}
	if len(f.server) > 0 || len(f.extra) > 0 {
		return TagServer
	}
	return TagNone
}

// HasError informa se o campo tem o erro tag, de regra ou de servidor.
func (f *Field) HasError(tag ErrorTag) bool {
	if tag == TagNone {
		return false
	}
	if f.tag == tag {
		return true
	}
	if tag == TagServer {
		return len(f.server) > 0 || len(f.extra) > 0
	}
	for _, t := range f.extra {
		if t == tag {
			return true
		}
	}
	return false
}

// Valid é verdadeiro sem erros de regra nem de servidor.
func (f *Field) Valid() bool { return f.Error() == TagNone }

// SetServerErrors marca o campo com erro de origem servidor. extra permite
// etiquetas adicionais, como TagDuplicado.
func (f *Field) SetServerErrors(messages []string, extra ...ErrorTag) {
	f.server = append([]string(nil), messages...)
	if len(f.server) == 0 {
		f.server = []string{""}
	}
	f.extra = append([]ErrorTag(nil), extra...)
}

// ServerMessages devolve as mensagens do servidor (não vazias).
func (f *Field) ServerMessages() []string {
	var out []string
	for _, m := range f.server {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (f *Field) ClearServerErrors() {
	f.server = nil
	f.extra = nil
}

func (f *Field) Dirty() bool    { return f.dirty }
func (f *Field) Disabled() bool { return f.disabled }

// SetDisabled (des)habilita o campo. Edições em campos desabilitados são ignoradas pelas páginas.
func (f *Field) SetDisabled(disabled bool) {
	f.disabled = disabled
	f.Validate()
}

// DocumentoField é o par tipo de pessoa + documento. A regra do documento é
// sempre ValidateDocumento com o tipo atual.
type DocumentoField struct {
	*Field
	tipo types.TipoPessoa
}

// NewDocumentoField cria o campo já mascarado para o tipo.
func NewDocumentoField(name string, tipo types.TipoPessoa, initial string) *DocumentoField {
	d := &DocumentoField{Field: &Field{name: name}, tipo: tipo}
	d.bind()
	d.Field.value = d.Field.apply(initial)
	d.Field.Validate()
	return d
}

func (d *DocumentoField) bind() {
	tipo := d.tipo
	d.Field.mask = func(v string) string { return utils.MaskDocumento(tipo, v) }
	d.Field.rules = []Rule{DocumentoRule(tipo)}
}

// Tipo devolve o tipo atual.
func (d *DocumentoField) Tipo() types.TipoPessoa { return d.tipo }

// SetTipo troca o tipo: limpa o valor e qualquer erro anterior, depois revalida.
// Devolve false quando o tipo não mudou.
func (d *DocumentoField) SetTipo(tipo types.TipoPessoa) bool {
	if tipo == d.tipo {
		return false
	}
	d.tipo = tipo
	d.bind()
	d.Field.value = ""
	d.Field.dirty = true
	d.Field.ClearServerErrors()
	d.Field.Validate()
	return true
}

// Digits devolve o valor canônico (só dígitos).
func (d *DocumentoField) Digits() string { return utils.OnlyDigits(d.Field.value) }

// Placeholder devolve o exemplo de máscara do tipo atual.
func (d *DocumentoField) Placeholder() string { return utils.DocumentoPlaceholder(d.tipo) }
