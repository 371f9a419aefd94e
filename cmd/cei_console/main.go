// Comando cei_console: cliente de linha de comando da API de empresas do CEI.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/ceidigital/cei_console_go/internal/auth"
	"github.com/ceidigital/cei_console_go/internal/core"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/data"
	"github.com/ceidigital/cei_console_go/internal/data/api"
	"github.com/ceidigital/cei_console_go/internal/repositories"
	"github.com/ceidigital/cei_console_go/internal/services"
)

// console reúne as dependências montadas para os comandos.
type console struct {
	cfg          *core.Config
	db           *gorm.DB
	sessions     *auth.SessionManager
	perms        *auth.PermissionManager
	authn        auth.AuthenticatorInterface
	audit        services.AuditLogService
	empresas     services.EmpresaService
	registration services.RegistrationService
	imports      services.ImportService

	out io.Writer
	in  *bufio.Reader
}

type command struct {
	summary string
	run     func(c *console, args []string) error
}

var commands = map[string]command{
	"login":    {"Inicia uma sessão (--email, --senha)", cmdLogin},
	"logout":   {"Encerra a sessão atual", cmdLogout},
	"whoami":   {"Mostra a sessão atual e suas permissões", cmdWhoami},
	"register": {"Cadastro em duas etapas com código por e-mail/SMS", cmdRegister},
	"empresas": {"list|show|create|update|delete|exists|export|import", cmdEmpresas},
	"audit":    {"Lista as últimas ações registradas (--limite)", cmdAudit},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("cei_console", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	envPath := flags.String("env", ".env", "arquivo .env com as configurações")
	flags.Usage = func() { usage(stderr, flags) }
	if err := flags.Parse(args); err != nil {
		return 2
	}
	rest := flags.Args()
	if len(rest) == 0 {
		usage(stderr, flags)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Comando desconhecido: %s\n\n", rest[0])
		usage(stderr, flags)
		return 2
	}

	c, err := newConsole(*envPath, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Erro ao iniciar: %v\n", err)
		return 1
	}
	defer c.close()

	if err := cmd.run(c, rest[1:]); err != nil {
		appLogger.Errorf("Comando '%s' falhou: %v", rest[0], err)
		fmt.Fprintln(stderr, describeError(err))
		return 1
	}
	return 0
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "Uso: cei_console [--env ARQUIVO] COMANDO [opções]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Comandos:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Opções globais:")
	fmt.Fprint(w, flags.FlagUsages())
}

// newConsole monta config → logger → banco → repositórios → auth → serviços.
func newConsole(envPath string, stdin io.Reader, stdout io.Writer) (*console, error) {
	cfg, err := core.LoadConfig(envPath)
	if err != nil {
		return nil, err
	}
	if err := appLogger.SetupLogger(cfg); err != nil {
		log.Printf("Erro ao configurar logger: %v", err)
		return nil, err
	}
	appLogger.Infof("Iniciando %s v%s (API %s)", cfg.AppName, cfg.AppVersion, cfg.APIBaseURL)

	db, err := data.InitializeDB(cfg)
	if err != nil {
		return nil, err
	}

	enc, err := auth.NewEncryptor(cfg.SecretKey)
	if err != nil {
		_ = data.CloseDB(db)
		return nil, err
	}
	sessions := auth.NewSessionManager(repositories.NewGormStateRepository(db), enc)
	perms := auth.NewPermissionManager()
	audit := services.NewAuditLogService(repositories.NewGormAuditLogRepository(db), sessions, perms)

	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, sessions)
	authRepo := repositories.NewAPIAuthRepository(client)
	empresaRepo := repositories.NewAPIEmpresaRepository(client)

	return &console{
		cfg:          cfg,
		db:           db,
		sessions:     sessions,
		perms:        perms,
		authn:        auth.NewAuthenticator(authRepo, sessions, audit),
		audit:        audit,
		empresas:     services.NewEmpresaService(cfg, empresaRepo, audit, perms),
		registration: services.NewRegistrationService(authRepo, empresaRepo, audit),
		imports:      services.NewImportService(empresaRepo, audit, perms),
		out:          stdout,
		in:           bufio.NewReader(stdin),
	}, nil
}

func (c *console) close() {
	if err := data.CloseDB(c.db); err != nil {
		appLogger.Errorf("Erro ao fechar conexão com banco de dados: %v", err)
	}
}
