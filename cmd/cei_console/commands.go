package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/core/types"
	"github.com/ceidigital/cei_console_go/internal/navigation"
	"github.com/ceidigital/cei_console_go/internal/ui"
	"github.com/ceidigital/cei_console_go/internal/ui/forms"
	"github.com/ceidigital/cei_console_go/internal/ui/pages"
	"github.com/ceidigital/cei_console_go/internal/ui/snackbar"
)

const pollInterval = 25 * time.Millisecond

func newFlagSet(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// withApp roda fn com a aplicação ativa: o Loop processa em segundo plano e
// é encerrado ao final.
func (c *console) withApp(fn func(a *ui.App) error) error {
	a := ui.NewApp(c.cfg, ui.Dependencies{
		Authenticator: c.authn,
		Sessions:      c.sessions,
		Permissions:   c.perms,
		Empresas:      c.empresas,
		Registration:  c.registration,
	})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = a.Run(ctx)
	}()
	defer func() {
		cancel()
		a.Close()
		<-stopped
		a.Wait()
	}()
	return fn(a)
}

// waitFor consulta cond na thread da interface até ser verdadeira ou o prazo acabar.
func (c *console) waitFor(a *ui.App, cond func() bool) error {
	deadline := time.Now().Add(c.cfg.APITimeout + 5*time.Second)
	for {
		var ok bool
		if !a.Call(func() { ok = cond() }) {
			return fmt.Errorf("%w: aplicação encerrada", appErrors.ErrInternal)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: tempo esgotado aguardando a API", appErrors.ErrBusy)
		}
		time.Sleep(pollInterval)
	}
}

// prompt lê uma linha da entrada padrão quando value está vazio.
func (c *console) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: %s não informado", appErrors.ErrInvalidInput, strings.TrimSuffix(strings.TrimSpace(label), ":"))
	}
	return line, nil
}

func snackLines(a *ui.App) []string {
	var out []string
	a.Call(func() {
		for _, s := range a.Snackbar().Snapshot() {
			out = append(out, s.Message)
		}
	})
	return out
}

func hasSnack(a *ui.App, kind snackbar.Kind, message string) bool {
	found := false
	a.Call(func() {
		for _, s := range a.Snackbar().Snapshot() {
			if s.Kind == kind && s.Message == message {
				found = true
			}
		}
	})
	return found
}

// --- login / logout / whoami ---

func cmdLogin(c *console, args []string) error {
	fs := newFlagSet("login", c.out)
	email := fs.String("email", "", "e-mail (padrão: último usado)")
	senha := fs.String("senha", "", "senha (solicitada se omitida)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		*email = c.sessions.LastEmail()
	}
	var err error
	if *email, err = c.prompt("E-mail: ", *email); err != nil {
		return err
	}
	if *senha, err = c.prompt("Senha: ", *senha); err != nil {
		return err
	}

	return c.withApp(func(a *ui.App) error {
		a.Call(func() {
			a.Router().NavigateTo(navigation.PageLogin, navigation.LoginParams{Email: *email})
			a.Login.SetEmail(*email)
			a.Login.SetSenha(*senha)
			a.Login.Submit()
		})
		if err := c.waitFor(a, func() bool { return !a.Login.Loading() }); err != nil {
			return err
		}
		var msg string
		var page navigation.PageID
		a.Call(func() {
			msg = a.Login.ErrorText()
			page = a.Router().CurrentPageID()
		})
		if msg != "" || page != navigation.PageMain {
			if msg == "" {
				msg = pages.MsgLoginFailed
			}
			return errors.New(msg)
		}
		s := c.sessions.Current()
		fmt.Fprintf(c.out, "Sessão iniciada: %s (%s)\n", s.Email, strings.Join(s.Roles, ", "))
		return nil
	})
}

func cmdLogout(c *console, args []string) error {
	if !c.sessions.IsAuthenticated() {
		fmt.Fprintln(c.out, "Nenhuma sessão ativa.")
		return nil
	}
	if err := c.authn.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Sessão encerrada.")
	return nil
}

func cmdWhoami(c *console, args []string) error {
	s := c.sessions.Current()
	if s == nil {
		fmt.Fprintln(c.out, "Nenhuma sessão ativa.")
		return nil
	}
	fmt.Fprintf(c.out, "E-mail:     %s\n", s.Email)
	fmt.Fprintf(c.out, "Perfis:     %s\n", strings.Join(s.Roles, ", "))
	fmt.Fprintf(c.out, "Desde:      %s\n", s.CreatedAt.Local().Format("02/01/2006 15:04"))
	perms := c.perms.PermissionsFor(s.Roles)
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	fmt.Fprintf(c.out, "Permissões: %s\n", strings.Join(names, ", "))
	return nil
}

// --- register ---

func cmdRegister(c *console, args []string) error {
	fs := newFlagSet("register", c.out)
	email := fs.String("email", "", "e-mail")
	telefone := fs.String("telefone", "", "telefone com DDD")
	tipo := fs.String("tipo", "CNPJ", "tipo de pessoa: CPF ou CNPJ")
	documento := fs.String("documento", "", "CPF ou CNPJ")
	nome := fs.String("nome", "", "nome do responsável")
	senha := fs.String("senha", "", "senha (mínimo 6 caracteres)")
	codigo := fs.String("codigo", "", "código recebido (solicitado se omitido)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return c.withApp(func(a *ui.App) error {
		rp := a.Registration
		a.Call(func() {
			a.Router().NavigateTo(navigation.PageRegistration, navigation.LoginParams{Email: *email})
			rp.SetTelefone(*telefone)
			rp.SetTipoPessoa(types.ParseTipoPessoa(*tipo))
			rp.SetDocumento(*documento)
			rp.RequestToken()
		})
		if err := c.waitFor(a, func() bool { return !rp.Loading() }); err != nil {
			return err
		}
		var step pages.RegistrationStep
		var formErrs map[string]string
		a.Call(func() {
			step = rp.Step()
			formErrs = describeForm(rp.RequestForm())
		})
		if step != pages.StepConfirm {
			return registrationFailure(a, formErrs)
		}

		var expira string
		a.Call(func() { expira = rp.TokenExpiresIn() })
		fmt.Fprintf(c.out, "%s Validade do código: %s\n", pages.MsgTokenSent, expira)

		var err error
		if *nome, err = c.prompt("Nome: ", *nome); err != nil {
			return err
		}
		if *senha, err = c.prompt("Senha: ", *senha); err != nil {
			return err
		}
		if *codigo, err = c.prompt("Código: ", *codigo); err != nil {
			return err
		}

		a.Call(func() {
			rp.SetNome(*nome)
			rp.SetSenha(*senha)
			rp.SetToken(*codigo)
			rp.Confirm()
		})
		if err := c.waitFor(a, func() bool { return !rp.Loading() }); err != nil {
			return err
		}
		if !hasSnack(a, snackbar.KindSuccess, pages.MsgConfirmed) {
			a.Call(func() { formErrs = describeForm(rp.ConfirmForm()) })
			return registrationFailure(a, formErrs)
		}
		fmt.Fprintln(c.out, pages.MsgConfirmed)
		return nil
	})
}

func registrationFailure(a *ui.App, formErrs map[string]string) error {
	parts := snackLines(a)
	names := make([]string, 0, len(formErrs))
	for name := range formErrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, formErrs[name]))
	}
	if len(parts) == 0 {
		parts = append(parts, pages.MsgTokenSendFailed)
	}
	return errors.New(strings.Join(parts, "\n"))
}

// describeForm traduz os erros dos campos para texto.
func describeForm(form *forms.Form) map[string]string {
	out := make(map[string]string)
	for name, tag := range form.Errors() {
		if tag == forms.TagServer {
			if msgs := form.Field(name).ServerMessages(); len(msgs) > 0 {
				out[name] = strings.Join(msgs, "; ")
				continue
			}
		}
		out[name] = tagMessages[tag]
	}
	return out
}

var tagMessages = map[forms.ErrorTag]string{
	forms.TagRequired:    "obrigatório",
	forms.TagCPFInvalid:  "CPF inválido",
	forms.TagCNPJInvalid: "CNPJ inválido",
	forms.TagMinLength:   "muito curto",
	forms.TagEmail:       "e-mail inválido",
	forms.TagTelefone:    "telefone inválido",
	forms.TagServer:      "rejeitado pelo servidor",
	forms.TagDuplicado:   "já cadastrado",
}

// --- audit ---

func cmdAudit(c *console, args []string) error {
	fs := newFlagSet("audit", c.out)
	limite := fs.IntP("limite", "n", 20, "quantidade de entradas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entries, err := c.audit.Recent(*limite)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUANDO\tNÍVEL\tUSUÁRIO\tAÇÃO\tDESCRIÇÃO")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("02/01/2006 15:04:05"), e.Severity, e.Username, e.Action, e.Description)
	}
	return tw.Flush()
}

// describeError escolhe a mensagem final exibida ao usuário.
func describeError(err error) string {
	var ve *appErrors.ValidationError
	if errors.As(err, &ve) {
		lines := []string{ve.Message}
		names := make([]string, 0, len(ve.Fields))
		for name := range ve.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %s: %s", name, ve.Fields[name]))
		}
		return strings.Join(lines, "\n")
	}
	switch {
	case errors.Is(err, appErrors.ErrNetwork):
		return pages.MsgConnectivity
	case errors.Is(err, appErrors.ErrPermissionDenied):
		return pages.MsgPermissionDenied
	case errors.Is(err, appErrors.ErrUnauthorized), errors.Is(err, appErrors.ErrInvalidSession):
		return "Sessão ausente ou expirada. Use 'cei_console login'."
	}
	if apiErr, ok := appErrors.AsAPIError(err); ok {
		lines := []string{fmt.Sprintf("API respondeu %d: %s", apiErr.Status, firstNonEmpty(apiErr.Detail, apiErr.Title))}
		for _, field := range sortedFieldNames(apiErr.FieldErrors) {
			lines = append(lines, fmt.Sprintf("  %s: %s", field, strings.Join(apiErr.FieldErrors[field], "; ")))
		}
		return strings.Join(lines, "\n")
	}
	return err.Error()
}

func sortedFieldNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
