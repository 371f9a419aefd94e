// Package testutil reúne dublês usados pelos testes dos demais pacotes.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// DefaultRegistrationCode é o código que o FakeAPI "envia" por e-mail/SMS.
const DefaultRegistrationCode = "123456"

// FakeUser é um usuário cadastrado no FakeAPI.
type FakeUser struct {
	Nome  string
	Email string
	Senha string
	Roles []string
}

// RecordedRequest registra o que chegou ao FakeAPI.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type forcedResponse struct {
	status int
	body   interface{}
}

// FakeAPI simula a API REST do CEI em memória, com as mesmas rotas, códigos
// e corpos ProblemDetail.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]FakeUser
	tokens   map[string]string // access token -> e-mail
	codes    map[string]models.RegisterTokenRequest
	empresas map[int64]models.Empresa
	nextID   int64
	forced   map[string]forcedResponse
	requests []RecordedRequest

	RegistrationCode string
}

// NewFakeAPI sobe o servidor de teste. Feche com Close.
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		users:            make(map[string]FakeUser),
		tokens:           make(map[string]string),
		codes:            make(map[string]models.RegisterTokenRequest),
		empresas:         make(map[int64]models.Empresa),
		forced:           make(map[string]forcedResponse),
		RegistrationCode: DefaultRegistrationCode,
	}
	f.Server = httptest.NewServer(f.routes())
	return f
}

func (f *FakeAPI) URL() string { return f.Server.URL }

func (f *FakeAPI) Close() { f.Server.Close() }

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)
	r.Use(f.forcedMiddleware)

	r.Post("/auth/login", f.handleLogin)
	r.Route("/auth/register", func(r chi.Router) {
		r.Post("/request-token", f.handleRequestToken)
		r.Post("/confirm", f.handleConfirm)
	})

	r.Route("/api/empresas", func(r chi.Router) {
		// A checagem de existência é pública: o cadastro a usa antes do login.
		r.Get("/exists", f.handleExists)
		r.Group(func(r chi.Router) {
			r.Use(f.requireToken)
			r.Get("/", f.handleListEmpresas)
			r.Post("/", f.handleCreateEmpresa)
			r.Get("/search", f.handleSearch)
			r.Get("/{id}", f.handleGetEmpresa)
			r.Put("/{id}", f.handleUpdateEmpresa)
			r.Delete("/{id}", f.handleDeleteEmpresa)
		})
	})
	return r
}

// --- Configuração dos cenários ---

// AddUser cadastra um usuário e devolve o token que o login devolverá.
func (f *FakeAPI) AddUser(u FakeUser) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if len(u.Roles) == 0 {
		u.Roles = []string{models.RoleUser}
	}
	f.users[u.Email] = u
	token := "tok-" + u.Email
	f.tokens[token] = u.Email
	return token
}

// AddEmpresa grava uma empresa diretamente e devolve o registro com ID.
func (f *FakeAPI) AddEmpresa(e models.Empresa) models.Empresa {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(e)
}

// Fail força a próxima chamada a "METHOD /path" a responder status com body.
func (f *FakeAPI) Fail(method, path string, status int, body interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced[method+" "+path] = forcedResponse{status: status, body: body}
}

// Requests devolve uma cópia das requisições recebidas.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// CountRequests conta requisições por método e caminho.
func (f *FakeAPI) CountRequests(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Empresas devolve as empresas em ordem de ID.
func (f *FakeAPI) Empresas() []models.Empresa {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked()
}

// User devolve um usuário pelo e-mail.
func (f *FakeAPI) User(email string) (FakeUser, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.ToLower(email)]
	return u, ok
}

// PendingCode devolve o pedido de código pendente para o e-mail.
func (f *FakeAPI) PendingCode(email string) (models.RegisterTokenRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.codes[strings.ToLower(email)]
	return req, ok
}

// --- Middlewares ---

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) forcedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		forced, ok := f.forced[key]
		if ok {
			delete(f.forced, key)
		}
		f.mu.Unlock()
		if ok {
			writeJSON(w, forced.status, forced.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		_, ok := f.tokens[token]
		f.mu.Unlock()
		if token == "" || !ok {
			writeProblem(w, http.StatusUnauthorized, "Não autenticado", "", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Auth ---

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Requisição inválida", err.Error(), nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	f.mu.Lock()
	u, ok := f.users[email]
	f.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Não encontrado", "usuario.nao.encontrado", nil)
		return
	}
	if u.Senha != body.Senha {
		writeProblem(w, http.StatusUnauthorized, "Não autorizado", "credenciais.invalidas", nil)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{
		TokenType:   "Bearer",
		AccessToken: "tok-" + email,
		ExpiresIn:   3600,
		Roles:       u.Roles,
	})
}

func (f *FakeAPI) handleRequestToken(w http.ResponseWriter, r *http.Request) {
	var body models.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Requisição inválida", err.Error(), nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "must not be blank"
	}
	if strings.TrimSpace(body.Telefone) == "" {
		fields["telefone"] = "must not be blank"
	}
	if len(fields) > 0 {
		writeProblem(w, http.StatusBadRequest, "Falha de validação", "", fields)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"detail": models.DetailUsuarioJaExiste})
		return
	}
	digits := utils.OnlyDigits(body.NumeroDocumento)
	if digits != "" && f.docExistsLocked(body.TipoPessoa, digits) {
		writeProblem(w, http.StatusConflict, "Conflito", "Documento já cadastrado.",
			map[string]string{"numeroDocumento": "Documento já cadastrado."})
		return
	}
	body.Email = email
	f.codes[email] = body
	w.WriteHeader(http.StatusOK)
}

func (f *FakeAPI) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var body models.RegisterConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Requisição inválida", err.Error(), nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"detail": models.DetailUsuarioJaExiste})
		return
	}
	pending, ok := f.codes[email]
	if !ok || body.Token != f.RegistrationCode {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "token.invalido.ou.expirado"})
		return
	}
	delete(f.codes, email)

	tipo := strings.ToUpper(strings.TrimSpace(body.TipoPessoa))
	if tipo == "" {
		tipo = pending.TipoPessoa
	}
	digits := utils.OnlyDigits(body.NumeroDocumento)
	if digits == "" {
		digits = utils.OnlyDigits(pending.NumeroDocumento)
	}
	if tipo != "" && digits != "" && !f.docExistsLocked(tipo, digits) {
		nome := body.Nome
		if nome == "" {
			nome = email
		}
		f.insertLocked(models.Empresa{
			TipoPessoa:      tipo,
			NumeroDocumento: digits,
			NomeRazaoSocial: nome,
			Situacao:        "Ativa",
			Email:           email,
			Bloqueada:       true,
		})
	}
	f.users[email] = FakeUser{Nome: body.Nome, Email: email, Senha: body.Senha, Roles: []string{models.RoleUser}}
	f.tokens["tok-"+email] = email
	w.WriteHeader(http.StatusCreated)
}

// --- Empresas ---

func (f *FakeAPI) handleListEmpresas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, f.Empresas())
}

func (f *FakeAPI) handleGetEmpresa(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	e, found := f.empresas[id]
	f.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (f *FakeAPI) handleSearch(w http.ResponseWriter, r *http.Request) {
	digits := utils.OnlyDigits(r.URL.Query().Get("cnpj"))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.sortedLocked() {
		if e.NumeroDocumento == digits && strings.EqualFold(e.TipoPessoa, "CNPJ") {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *FakeAPI) handleExists(w http.ResponseWriter, r *http.Request) {
	tipo := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("tipoPessoa")))
	digits := utils.OnlyDigits(r.URL.Query().Get("numeroDocumento"))
	if tipo == "" || digits == "" {
		writeJSON(w, http.StatusOK, models.ExistsResponse{Exists: false})
		return
	}
	f.mu.Lock()
	found := f.docExistsLocked(tipo, digits)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.ExistsResponse{Exists: found})
}

func (f *FakeAPI) handleCreateEmpresa(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docExistsLocked(payload.TipoPessoa, payload.NumeroDocumento) {
		writeDuplicate(w)
		return
	}
	created := f.insertLocked(empresaFromPayload(0, payload))
	w.Header().Set("Location", fmt.Sprintf("%s/api/empresas/%d", f.Server.URL, created.ID))
	writeJSON(w, http.StatusCreated, created)
}

func (f *FakeAPI) handleUpdateEmpresa(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	current, found := f.empresas[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	for otherID, e := range f.empresas {
		if otherID != id && strings.EqualFold(e.TipoPessoa, payload.TipoPessoa) && e.NumeroDocumento == payload.NumeroDocumento {
			writeDuplicate(w)
			return
		}
	}
	updated := empresaFromPayload(id, payload)
	updated.Bloqueada = current.Bloqueada
	updated.CriadoEm = current.CriadoEm
	now := time.Now().UTC()
	updated.AtualizadoEm = &now
	f.empresas[id] = updated
	writeJSON(w, http.StatusOK, updated)
}

func (f *FakeAPI) handleDeleteEmpresa(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	_, found := f.empresas[id]
	delete(f.empresas, id)
	f.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Auxiliares ---

func (f *FakeAPI) insertLocked(e models.Empresa) models.Empresa {
	f.nextID++
	e.ID = f.nextID
	e.TipoPessoa = strings.ToUpper(e.TipoPessoa)
	e.NumeroDocumento = utils.OnlyDigits(e.NumeroDocumento)
	now := time.Now().UTC()
	e.CriadoEm = &now
	e.AtualizadoEm = &now
	f.empresas[e.ID] = e
	return e
}

func (f *FakeAPI) docExistsLocked(tipo, digits string) bool {
	for _, e := range f.empresas {
		if strings.EqualFold(e.TipoPessoa, tipo) && e.NumeroDocumento == digits {
			return true
		}
	}
	return false
}

func (f *FakeAPI) sortedLocked() []models.Empresa {
	out := make([]models.Empresa, 0, len(f.empresas))
	for _, e := range f.empresas {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func decodePayload(w http.ResponseWriter, r *http.Request) (models.EmpresaPayload, bool) {
	var p models.EmpresaPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Requisição inválida", err.Error(), nil)
		return p, false
	}
	p.TipoPessoa = strings.ToUpper(strings.TrimSpace(p.TipoPessoa))
	p.NumeroDocumento = utils.OnlyDigits(p.NumeroDocumento)
	fields := map[string]string{}
	if p.TipoPessoa == "" {
		fields["tipoPessoa"] = "must not be blank"
	}
	if p.NumeroDocumento == "" {
		fields["numeroDocumento"] = "must not be blank"
	}
	if strings.TrimSpace(p.NomeRazaoSocial) == "" {
		fields["nomeRazaoSocial"] = "must not be blank"
	}
	if len(fields) > 0 {
		writeProblem(w, http.StatusBadRequest, "Falha de validação", "", fields)
		return p, false
	}
	return p, true
}

func empresaFromPayload(id int64, p models.EmpresaPayload) models.Empresa {
	return models.Empresa{
		ID:              id,
		TipoPessoa:      p.TipoPessoa,
		NumeroDocumento: p.NumeroDocumento,
		NomeRazaoSocial: p.NomeRazaoSocial,
		NomeFantasia:    p.NomeFantasia,
		TipoAtividade:   p.TipoAtividade,
		CNAE:            p.CNAE,
		DataAbertura:    p.DataAbertura,
		Situacao:        p.Situacao,
		Endereco:        p.Endereco,
		Cidade:          p.Cidade,
		Estado:          p.Estado,
		Telefone:        p.Telefone,
		Email:           p.Email,
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Requisição inválida", "id inválido", nil)
		return 0, false
	}
	return id, true
}

func writeDuplicate(w http.ResponseWriter) {
	writeProblem(w, http.StatusConflict, "Conflito", "Documento já cadastrado.",
		map[string]string{"numeroDocumento": "Documento já cadastrado."})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string, fields map[string]string) {
	body := map[string]interface{}{"status": status, "title": title}
	if detail != "" {
		body["detail"] = detail
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
