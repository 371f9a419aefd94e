package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	appLogger "github.com/ceidigital/cei_console_go/internal/core/logger"
	"github.com/ceidigital/cei_console_go/internal/data"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

// StateRepository persiste o estado local do cliente em pares chave/valor.
type StateRepository interface {
	// Get devolve ErrNotFound quando a chave não existe.
	Get(key string) (string, error)
	Set(key, value string) error
	// SetMany grava todas as chaves numa única transação.
	SetMany(values map[string]string) error
	Delete(keys ...string) error
}

type gormStateRepository struct {
	db *gorm.DB
}

func NewGormStateRepository(db *gorm.DB) StateRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormStateRepository")
	}
	return &gormStateRepository{db: db}
}

func (r *gormStateRepository) Get(key string) (string, error) {
	var entry models.DBStateEntry
	err := r.db.Where("state_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", appErrors.ErrNotFound
		}
		appLogger.Errorf("Erro ao ler estado '%s': %v", key, err)
		return "", appErrors.NewDatabaseErrorDetail("lendo estado "+key, err)
	}
	return entry.Value, nil
}

func (r *gormStateRepository) Set(key, value string) error {
	return r.SetMany(map[string]string{key: value})
}

func (r *gormStateRepository) SetMany(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now().UTC()
	err := data.WithTransaction(r.db, func(tx *gorm.DB) error {
		for key, value := range values {
			entry := models.DBStateEntry{Key: key, Value: value, UpdatedAt: now}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "state_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		appLogger.Errorf("Erro ao gravar estado local: %v", err)
		return appErrors.NewDatabaseErrorDetail("gravando estado", err)
	}
	return nil
}

func (r *gormStateRepository) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.Where("state_key IN ?", keys).Delete(&models.DBStateEntry{}).Error; err != nil {
		appLogger.Errorf("Erro ao remover estado %v: %v", keys, err)
		return appErrors.NewDatabaseErrorDetail("removendo estado", err)
	}
	return nil
}
