// Package gormstore persists games through gorm, on SQLite or PostgreSQL.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/store"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to the database and migrates the schema.
func Open(driver, dsn string, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&gameRecord{}, &roundRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database ready", zap.String("driver", driver))
	return &Store{db: db, log: log}, nil
}

func orderedRounds(db *gorm.DB) *gorm.DB {
	return db.Order("round_number ASC")
}

func (s *Store) Create(ctx context.Context, g *engine.Game) error {
	rec := toRecord(g)
	err := s.db.WithContext(ctx).Create(&rec).Error
	if isDuplicate(err) {
		return store.ErrCodeTaken
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*engine.Game, error) {
	return s.first(s.db.WithContext(ctx), "id = ?", id)
}

func (s *Store) GetByCode(ctx context.Context, code string) (*engine.Game, error) {
	return s.first(s.db.WithContext(ctx), "join_code = ?", code)
}

func (s *Store) first(db *gorm.DB, query string, arg any) (*engine.Game, error) {
	var rec gameRecord
	err := db.Preload("Rounds", orderedRounds).First(&rec, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toGame(), nil
}

func (s *Store) Update(ctx context.Context, id string, fn store.UpdateFunc) (*engine.Game, error) {
	var out *engine.Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == DriverPostgres {
			var locked gameRecord
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&locked, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			if err != nil {
				return err
			}
		}

		g, err := s.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}

		rec := toRecord(g)
		if err := tx.Omit(clause.Associations).Save(&rec).Error; err != nil {
			return err
		}

		numbers := make([]int, 0, len(rec.Rounds))
		for _, r := range rec.Rounds {
			numbers = append(numbers, r.RoundNumber)
		}
		stale := tx.Where("game_id = ?", id)
		if len(numbers) > 0 {
			stale = stale.Where("round_number NOT IN ?", numbers)
		}
		if err := stale.Delete(&roundRecord{}).Error; err != nil {
			return err
		}

		if len(rec.Rounds) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "game_id"}, {Name: "round_number"}},
				UpdateAll: true,
			}).Create(&rec.Rounds).Error
			if err != nil {
				return err
			}
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", id).Delete(&roundRecord{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&gameRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) List(ctx context.Context, q store.ListQuery) (store.Page, error) {
	q = q.Normalize()
	base := s.db.WithContext(ctx).Model(&gameRecord{})
	if q.State != "" {
		base = base.Where("state = ?", string(q.State))
	}

	var page store.Page
	if err := base.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return store.Page{}, err
	}

	var recs []gameRecord
	err := base.Session(&gorm.Session{}).
		Preload("Rounds", orderedRounds).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN state = ? THEN 0 ELSE 1 END, created_at DESC",
			Vars:               []any{string(engine.StateActive)},
			WithoutParentheses: true,
		}}).
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&recs).Error
	if err != nil {
		return store.Page{}, err
	}

	page.Games = make([]*engine.Game, 0, len(recs))
	for i := range recs {
		page.Games = append(page.Games, recs[i].toGame())
	}
	return page, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
