package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

func TestValidateDocumento(t *testing.T) {
	cases := []struct {
		tipo types.TipoPessoa
		raw  string
		want ErrorTag
	}{
		{types.TipoCPF, "", TagRequired},
		{types.TipoCNPJ, "", TagRequired},
		{types.TipoCPF, "..-", TagRequired},
		{types.TipoCPF, "529.982.247-25", TagNone},
		{types.TipoCPF, "529.982.247-26", TagCPFInvalid},
		{types.TipoCPF, "529.982", TagCPFInvalid},
		{types.TipoCPF, "12345678000195", TagCPFInvalid},
		{types.TipoCNPJ, "12.345.678/0001-95", TagNone},
		{types.TipoCNPJ, "52998224725", TagCNPJInvalid},
		{types.TipoCNPJ, "00.000.000/0000-00", TagCNPJInvalid},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidateDocumento(tc.tipo, tc.raw), "%s %q", tc.tipo, tc.raw)
	}
}

func TestDocumentoFieldMasksInput(t *testing.T) {
	d := NewDocumentoField("documento", types.TipoCNPJ, "")
	assert.Equal(t, TagRequired, d.Error())
	assert.Equal(t, "00.000.000/0000-00", d.Placeholder())

	d.SetValue("12345678")
	assert.Equal(t, "12.345.678", d.Value())
	assert.Equal(t, TagCNPJInvalid, d.Error())

	d.SetValue("12345678000195")
	assert.Equal(t, "12.345.678/0001-95", d.Value())
	assert.Equal(t, "12345678000195", d.Digits())
	assert.True(t, d.Valid())
}

func TestSwitchingTipoClearsValueAndErrors(t *testing.T) {
	d := NewDocumentoField("documento", types.TipoCPF, "")
	d.SetValue("52998224726")
	require.True(t, d.HasError(TagCPFInvalid))

	assert.True(t, d.SetTipo(types.TipoCNPJ))
	assert.Equal(t, "", d.Value())
	assert.False(t, d.HasError(TagCPFInvalid))
	assert.False(t, d.HasError(TagCNPJInvalid))
	assert.Equal(t, TagRequired, d.Error())

	d.SetValue("52998224725")
	assert.Equal(t, TagCNPJInvalid, d.Error(), "regra acompanha o novo tipo")
	assert.False(t, d.SetTipo(types.TipoCNPJ))
}

func TestSwitchingTipoClearsServerErrors(t *testing.T) {
	d := NewDocumentoField("documento", types.TipoCNPJ, "12345678000195")
	d.SetServerErrors([]string{"Documento já cadastrado."}, TagDuplicado)
	require.True(t, d.HasError(TagDuplicado))

	d.SetTipo(types.TipoCPF)
	assert.False(t, d.HasError(TagServer))
	assert.False(t, d.HasError(TagDuplicado))
}

func TestServerErrorsClearedOnEdit(t *testing.T) {
	nome := NewField("nomeRazaoSocial", "Acme", Required())
	email := NewField("email", "x@acme.com.br", Email())
	form := NewForm(nome, email)

	unknown := form.ApplyServerErrors(map[string][]string{
		"nomeRazaoSocial": {"muito curto"},
		"email":           {"inválido"},
		"inexistente":     {"?"},
	})
	assert.Equal(t, []string{"inexistente"}, unknown)
	assert.False(t, form.Valid())
	assert.Equal(t, TagServer, nome.Error())
	assert.Equal(t, []string{"muito curto"}, nome.ServerMessages())

	nome.SetValue("Acme Ltda")
	assert.True(t, nome.Valid())
	assert.True(t, email.HasError(TagServer), "outros campos mantêm seus erros")

	form.ClearServerErrors()
	assert.True(t, form.Valid())
}

func TestFormDirtyAndPristine(t *testing.T) {
	nome := NewField("nome", "Acme", Required())
	form := NewForm(nome)
	assert.True(t, form.Pristine())

	nome.SetValue("Outra")
	assert.True(t, form.Dirty())

	form.MarkPristine()
	assert.True(t, form.Pristine())

	nome.Reset("")
	assert.True(t, form.Pristine())
	assert.False(t, form.Validate())
	assert.Equal(t, map[string]ErrorTag{"nome": TagRequired}, form.Errors())
}

func TestDisabledFieldIsValid(t *testing.T) {
	f := NewField("documento", "", Required())
	assert.False(t, f.Valid())
	f.SetDisabled(true)
	assert.True(t, f.Valid())
	f.SetDisabled(false)
	assert.Equal(t, TagRequired, f.Error())
}

func TestRules(t *testing.T) {
	assert.Equal(t, TagMinLength, MinLength(6)("abc"))
	assert.Equal(t, TagNone, MinLength(6)(""))
	assert.Equal(t, TagNone, MinLength(3)("abc"))

	assert.Equal(t, TagEmail, Email()("nope"))
	assert.Equal(t, TagNone, Email()(""))

	assert.Equal(t, TagNone, Telefone()("+55 (51) 98765-4321"))
	assert.Equal(t, TagNone, Telefone()("(51) 3234-5678"))
	assert.Equal(t, TagTelefone, Telefone()("+55 (51) 9876"))
}

func TestFieldWithMask(t *testing.T) {
	tel := NewField("telefone", "", Telefone()).WithMask(utils.MaskTelefone)
	tel.SetValue("51987654321")
	assert.Equal(t, "+55 (51) 98765-4321", tel.Value())
	assert.True(t, tel.Valid())
}
