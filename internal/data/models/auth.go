package models

// LoginRequest é o corpo de POST /auth/login.
type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// LoginResponse é a resposta de login bem-sucedido.
type LoginResponse struct {
	TokenType   string   `json:"tokenType"`
	AccessToken string   `json:"accessToken"`
	ExpiresIn   int64    `json:"expiresIn"`
	Roles       []string `json:"roles"`
}

// RegisterTokenRequest solicita o envio do código de confirmação por e-mail e SMS.
type RegisterTokenRequest struct {
	Email           string `json:"email"`
	Telefone        string `json:"telefone"`
	TipoPessoa      string `json:"tipoPessoa,omitempty"`
	NumeroDocumento string `json:"numeroDocumento,omitempty"`
}

// RegisterConfirmRequest confirma o código e cria o usuário.
type RegisterConfirmRequest struct {
	Email           string `json:"email"`
	Nome            string `json:"nome"`
	Senha           string `json:"senha"`
	Token           string `json:"token"`
	TipoPessoa      string `json:"tipoPessoa,omitempty"`
	NumeroDocumento string `json:"numeroDocumento,omitempty"`
}

// Roles conhecidas pela API.
const (
	RoleMaster    = "MASTER"
	RoleAdminMain = "ADMIN_MAIN"
	RoleAdmin     = "ADMIN"
	RoleUser      = "USER"
)
