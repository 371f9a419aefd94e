// Package api fala com a API REST do CEI: JSON sobre HTTP, token Bearer e
// erros no formato ProblemDetail.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

const (
	DefaultTimeout  = 15 * time.Second
	RequestIDHeader = "X-Request-ID"

	// Limite lido de um corpo de erro.
	maxErrorBody = 64 << 10
)

// TokenSource fornece o token de acesso atual; string vazia significa anônimo.
type TokenSource interface {
	Token() string
}

// TokenFunc adapta uma função a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Doer executa uma chamada à API. *Client implementa Doer; os repositórios dependem só dele.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error
}

// Client é o cliente HTTP da API remota.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

var _ Doer = (*Client)(nil)

// NewClient cria o cliente. tokens pode ser nil (sem Authorization).
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

// BaseURL devolve a URL base sem barra final.
func (c *Client) BaseURL() string { return c.baseURL }

// Do envia in como JSON (quando não nil) e decodifica a resposta 2xx em out
// (quando não nil). Respostas de erro viram *appErrors.APIError; falhas de
// transporte viram APIError com Status 0.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao serializar requisição %s %s: %v", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return appErrors.WrapErrorf(appErrors.ErrInternal, "falha ao montar requisição %s %s: %v", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := appLogger.WithFields(logrus.Fields{"component": "api", "method": method, "path": path, "request_id": requestID})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Falha de comunicação com a API")
		return &appErrors.APIError{Status: 0, Underlying: err}
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed_ms": time.Since(start).Milliseconds()})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeProblem(resp)
		log.WithField("detail", apiErr.Detail).Info("API respondeu com erro")
		return apiErr
	}
	log.Debug("Chamada à API concluída")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return appErrors.WrapErrorf(appErrors.ErrInternal, "resposta inválida da API em %s %s: %v", method, path, err)
	}
	return nil
}

// decodeProblem lê o corpo de erro. Corpos vazios ou fora do formato
// ProblemDetail ainda geram um APIError com o status.
func decodeProblem(resp *http.Response) *appErrors.APIError {
	apiErr := &appErrors.APIError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return apiErr
	}
	var problem models.ProblemDetail
	if err := json.Unmarshal(raw, &problem); err != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}
	apiErr.Title = problem.Title
	apiErr.Detail = problem.Detail
	if len(problem.Errors) > 0 {
		apiErr.FieldErrors = map[string][]string(problem.Errors)
	}
	return apiErr
}

// PathID monta "/prefix/{id}".
func PathID(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
