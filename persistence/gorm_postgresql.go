package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/flowerzone/models"
)

// GormPostgreSQL stores rounds through GORM.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormPostgreSQL, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormRound{}, &models.GormRoundPlayer{}); err != nil {
		return nil, err
	}
	return &GormPostgreSQL{db: db}, nil
}

// SaveRoundRecord writes the round and its players in one transaction.
func (p *GormPostgreSQL) SaveRoundRecord(ctx context.Context, rec *models.RoundRecord) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(models.NewGormRound(rec)).Error
	})
}

type statsRow struct {
	Rounds     int
	Wins       int
	TotalScore int
	BestScore  int
}

func (p *GormPostgreSQL) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	var row statsRow
	err := p.db.WithContext(ctx).
		Model(&models.GormRoundPlayer{}).
		Select(`COUNT(*) AS rounds,
            COALESCE(SUM(CASE WHEN winner THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(score), 0) AS total_score,
            COALESCE(MAX(score), 0) AS best_score`).
		Where("name = ?", name).
		Scan(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if row.Rounds == 0 {
		return nil, ErrRecordNotFound
	}
	return &models.PlayerStats{
		Name:       name,
		Rounds:     row.Rounds,
		Wins:       row.Wins,
		TotalScore: row.TotalScore,
		BestScore:  row.BestScore,
	}, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
