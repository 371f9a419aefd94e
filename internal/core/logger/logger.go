package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ceidigital/cei_console_go/internal/core"
)

var (
	mu  sync.RWMutex
	log *logrus.Logger
)

// SetupLogger configura o logger global: JSON em arquivo rotacionado pelo
// lumberjack e, opcionalmente, espelhado no stderr.
// Deve ser chamado uma vez no início.
func SetupLogger(cfg *core.Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		fmt.Fprintf(os.Stderr, "Nível de log inválido '%s', usando INFO: %v\n", cfg.LogLevel, err)
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	logFilePath := filepath.Join(cfg.LogDir, strings.ToLower(strings.ReplaceAll(cfg.AppName, " ", "_"))+".log")
	if err := os.MkdirAll(cfg.LogDir, os.ModePerm); err != nil {
		return fmt.Errorf("falha ao criar diretório de log '%s': %w", cfg.LogDir, err)
	}

	maxSizeMB := cfg.LogMaxBytes / (1024 * 1024)
	if maxSizeMB < 1 {
		maxSizeMB = 1
	}
	writers := []io.Writer{&lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxSizeMB,
		MaxBackups: cfg.LogBackupCount,
		MaxAge:     28, // dias
		Compress:   true,
	}}
	if cfg.LogToConsole {
		writers = append(writers, os.Stderr)
	}
	l.SetOutput(io.MultiWriter(writers...))

	mu.Lock()
	log = l
	mu.Unlock()

	l.Infof("Logger configurado. Nível: %s. Arquivo: %s", level.String(), logFilePath)
	return nil
}

// UseLogger substitui o logger global (testes usam para capturar a saída).
func UseLogger(l *logrus.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// current devolve o logger configurado ou, antes do SetupLogger, um logger
// de texto no stderr.
func current() *logrus.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func Debug(args ...interface{})                 { current().Debug(args...) }
func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }
func Info(args ...interface{})                  { current().Info(args...) }
func Infof(format string, args ...interface{})  { current().Infof(format, args...) }
func Warn(args ...interface{})                  { current().Warn(args...) }
func Warnf(format string, args ...interface{})  { current().Warnf(format, args...) }
func Error(args ...interface{})                 { current().Error(args...) }
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }
func Fatal(args ...interface{})                 { current().Fatal(args...) }
func Fatalf(format string, args ...interface{}) { current().Fatalf(format, args...) }

// WithFields devolve uma entry com campos estruturados.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return current().WithFields(fields)
}
