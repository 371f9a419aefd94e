package core

import (
	"errors"
	"fmt"
	"log" // Usado para logs iniciais antes que o logger da aplicação esteja configurado
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSecretKey = "default_secret_key_please_change_this_in_production_12345"

// Config armazena todas as configurações do console.
type Config struct {
	AppName    string
	AppVersion string
	AppDebug   bool
	SecretKey  string

	// API remota
	APIBaseURL string
	APITimeout time.Duration

	// Banco local (estado do cliente e auditoria)
	DBEngine   string
	DBName     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string

	// Logging
	LogDir         string
	LogLevel       string
	LogMaxBytes    int
	LogBackupCount int
	LogToConsole   bool

	// Fluxo de cadastro
	ResendCooldownSeconds int
	TokenExpirySeconds    int
	DocumentCheckDebounce time.Duration

	// Notificações (snackbar)
	SnackSuccessTTL time.Duration
	SnackErrorTTL   time.Duration
	SnackInfoTTL    time.Duration

	// Export
	ExportDir string
}

// LoadConfig carrega as configurações do arquivo .env especificado ou encontrado na árvore de diretórios.
func LoadConfig(envPath string) (*Config, error) {
	foundEnvPath, err := findEnvFile(envPath)
	if err != nil {
		log.Printf("Aviso: Arquivo .env em '%s' não encontrado: %v. Usando variáveis de ambiente e defaults.", envPath, err)
	} else if err := godotenv.Load(foundEnvPath); err != nil {
		log.Printf("Aviso: Erro ao carregar arquivo .env de '%s': %v. Usando variáveis de ambiente e defaults.", foundEnvPath, err)
	}

	cfg := FromEnv()

	if !cfg.AppDebug && cfg.SecretKey == defaultSecretKey {
		return nil, errors.New("FATAL: SECRET_KEY não pode ser o valor padrão em ambiente de não depuração (APP_DEBUG=false)")
	}
	if len(cfg.SecretKey) < 32 && !cfg.AppDebug {
		log.Printf("AVISO: SECRET_KEY tem menos de 32 caracteres (%d).", len(cfg.SecretKey))
	}
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, fmt.Errorf("APP_API_BASE_URL inválida: '%s'", cfg.APIBaseURL)
	}

	if err := ensureDir(cfg.LogDir, true); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de log essencial '%s': %w", cfg.LogDir, err)
	}
	if cfg.DBEngine == "sqlite" {
		sqliteDir := filepath.Dir(cfg.DBName)
		if sqliteDir != "." && sqliteDir != string(filepath.Separator) {
			if err := ensureDir(sqliteDir, true); err != nil {
				return nil, fmt.Errorf("falha ao criar diretório para banco de dados SQLite '%s': %w", sqliteDir, err)
			}
		}
	}
	_ = ensureDir(cfg.ExportDir, false)

	return cfg, nil
}

// FromEnv monta a configuração apenas a partir do ambiente atual, sem validações
// nem criação de diretórios. Útil em testes.
func FromEnv() *Config {
	cfg := &Config{}

	cfg.AppName = getEnv("APP_NAME", "CEI Console")
	cfg.AppVersion = getEnv("APP_VERSION", "1.0.0")
	cfg.AppDebug = getEnvAsBool("APP_DEBUG", false)
	cfg.SecretKey = getEnv("SECRET_KEY", defaultSecretKey)

	cfg.APIBaseURL = strings.TrimRight(getEnv("APP_API_BASE_URL", "http://localhost:8080"), "/")
	cfg.APITimeout = getEnvAsDuration("APP_API_TIMEOUT", 15)

	cfg.DBEngine = getEnv("APP_DB_ENGINE", "sqlite")
	cfg.DBName = getEnv("APP_DB_NAME", "cei_console.db")
	cfg.DBHost = getEnv("APP_DB_HOST", "localhost")
	cfg.DBPort = getEnvAsInt("APP_DB_PORT", 5432)
	cfg.DBUser = getEnv("APP_DB_USER", "user")
	cfg.DBPassword = getEnv("APP_DB_PASSWORD", "password")

	cfg.LogDir = getEnv("APP_LOG_DIR", "./app_logs")
	cfg.LogLevel = strings.ToUpper(getEnv("APP_LOG_LEVEL", "INFO"))
	cfg.LogMaxBytes = getEnvAsInt("APP_LOG_MAX_BYTES", 5*1024*1024)
	cfg.LogBackupCount = getEnvAsInt("APP_LOG_BACKUP_COUNT", 7)
	cfg.LogToConsole = getEnvAsBool("APP_LOG_TO_CONSOLE", false)

	cfg.ResendCooldownSeconds = getEnvAsInt("APP_RESEND_COOLDOWN", 60)
	cfg.TokenExpirySeconds = getEnvAsInt("APP_TOKEN_EXPIRY", 600)
	cfg.DocumentCheckDebounce = getEnvAsMillis("APP_DOCUMENT_CHECK_DEBOUNCE_MS", 300)

	cfg.SnackSuccessTTL = getEnvAsMillis("APP_SNACK_SUCCESS_MS", 3000)
	cfg.SnackErrorTTL = getEnvAsMillis("APP_SNACK_ERROR_MS", 4000)
	cfg.SnackInfoTTL = getEnvAsMillis("APP_SNACK_INFO_MS", 3500)

	cfg.ExportDir = getEnv("APP_EXPORT_DIR", "./app_exports")
	return cfg
}

// findEnvFile tenta localizar o arquivo .env.
// Primeiro no path fornecido, depois subindo na árvore de diretórios a partir do CWD.
func findEnvFile(envPath string) (string, error) {
	if _, err := os.Stat(envPath); err == nil {
		absPath, _ := filepath.Abs(envPath)
		return absPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("não foi possível obter o diretório de trabalho atual: %w", err)
	}

	for i := 0; i < 5; i++ {
		tryPath := filepath.Join(cwd, ".env")
		if _, err := os.Stat(tryPath); err == nil {
			return tryPath, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return "", fmt.Errorf("arquivo .env não encontrado no caminho '%s' ou nos diretórios pais", envPath)
}

// ensureDir garante que um diretório exista, criando-o se necessário.
// Se 'critical' for true, retorna erro em caso de falha. Caso contrário, apenas loga um aviso.
func ensureDir(dirPath string, critical bool) error {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		msg := fmt.Sprintf("Não foi possível resolver o caminho absoluto para '%s': %v", dirPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
		return nil
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		msg := fmt.Sprintf("Não foi possível criar o diretório '%s': %v", absPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration lê uma duração em segundos.
func getEnvAsDuration(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallbackSeconds)) * time.Second
}

// getEnvAsMillis lê uma duração em milissegundos.
func getEnvAsMillis(key string, fallbackMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallbackMillis)) * time.Millisecond
}
