package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ceidigital/cei_console_go/internal/core"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

// InitializeDB abre o banco local (estado do cliente e auditoria) e executa as migrações.
func InitializeDB(cfg *core.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	appLogger.Infof("Inicializando conexão com banco de dados: %s", cfg.DBEngine)

	gormLogLevel := gormlogger.Silent
	if cfg.AppDebug {
		gormLogLevel = gormlogger.Info
	}
	newGormLogger := gormlogger.New(
		appLogger.WithFields(logrus.Fields{"component": "gorm"}),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger: newGormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	switch cfg.DBEngine {
	case "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
		appLogger.Infof("Conectando ao PostgreSQL: host=%s dbname=%s user=%s port=%d", cfg.DBHost, cfg.DBName, cfg.DBUser, cfg.DBPort)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName + "?_foreign_keys=on")
		appLogger.Infof("Usando banco de dados SQLite: %s", cfg.DBName)
	default:
		return nil, fmt.Errorf("motor de banco de dados não suportado: %s", cfg.DBEngine)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		appLogger.Errorf("Falha ao conectar ao banco de dados %s: %v", cfg.DBEngine, err)
		return nil, fmt.Errorf("falha ao abrir conexão com %s: %w", cfg.DBEngine, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Falha ao obter instância *sql.DB do GORM: %v", err)
		return nil, fmt.Errorf("falha ao configurar pool de conexões: %w", err)
	}
	if cfg.DBEngine == "sqlite" {
		// SQLite aceita um único escritor; uma conexão evita "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	appLogger.Info("Conexão com banco de dados estabelecida.")

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate cria ou atualiza as tabelas locais.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("instância de banco de dados é nil, não é possível criar tabelas")
	}
	appLogger.Info("Executando migrações automáticas do GORM...")
	if err := db.AutoMigrate(
		&models.DBStateEntry{},
		&models.AuditLogEntry{},
	); err != nil {
		appLogger.Errorf("Falha durante AutoMigrate: %v", err)
		return fmt.Errorf("falha na migração do esquema do banco de dados: %w", err)
	}
	appLogger.Info("Migrações automáticas do GORM concluídas.")
	return nil
}

// CloseDB fecha a conexão com o banco de dados.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		appLogger.Warn("Tentativa de fechar conexão DB nula.")
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Erro ao obter *sql.DB para fechar: %v", err)
		return err
	}
	appLogger.Info("Fechando conexão com o banco de dados...")
	return sqlDB.Close()
}

type DBSessionFunc func(tx *gorm.DB) error

// WithTransaction executa fn dentro de uma transação: commit se fn não
// retornar erro, rollback caso contrário.
func WithTransaction(db *gorm.DB, fn DBSessionFunc) error {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("erro ao executar função (%v) E erro no rollback (%w)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("falha ao commitar transação: %w", err)
	}
	return nil
}
