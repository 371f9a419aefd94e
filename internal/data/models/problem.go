package models

import (
	"encoding/json"
	"sort"
)

// DetailUsuarioJaExiste é o detail enviado pela API quando o e-mail já possui usuário.
const DetailUsuarioJaExiste = "usuario.ja.existe"

// ProblemDetail é o corpo de erro (RFC 7807) devolvido pela API.
// O campo errors pode trazer, por campo, uma mensagem ou uma lista delas.
type ProblemDetail struct {
	Type   string      `json:"type,omitempty"`
	Title  string      `json:"title,omitempty"`
	Status int         `json:"status,omitempty"`
	Detail string      `json:"detail,omitempty"`
	Errors FieldErrors `json:"errors,omitempty"`
}

// FieldErrors normaliza o mapa campo → mensagens.
type FieldErrors map[string][]string

// UnmarshalJSON aceita string, lista de strings ou null para cada campo.
func (fe *FieldErrors) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FieldErrors, len(raw))
	for field, value := range raw {
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			out[field] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			out[field] = many
			continue
		}
		out[field] = []string{}
	}
	*fe = out
	return nil
}

// Fields devolve os nomes de campo em ordem alfabética.
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
