package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erraggy/oasbot/oaserrors"
)

// apiRecord is the table row for an Entry.
type apiRecord struct {
	gorm.Model
	UUID string `gorm:"size:36;uniqueIndex;not null"`
	Name string `gorm:"uniqueIndex;not null"`
	URL  string `gorm:"uniqueIndex;not null"`
}

func (apiRecord) TableName() string {
	return "apis"
}

func (r apiRecord) entry() Entry {
	id, _ := uuid.Parse(r.UUID)
	return Entry{
		ID:        id,
		Name:      r.Name,
		URL:       r.URL,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// Postgres is a Registry backed by a PostgreSQL table managed through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects with dsn and migrates the apis table.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, &oaserrors.ConfigError{Option: "registry.dsn", Message: "postgres driver requires a DSN"}
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("registry: failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.WithContext(ctx).AutoMigrate(&apiRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("registry: failed to migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) List(ctx context.Context) ([]Entry, error) {
	var records []apiRecord
	if err := p.db.WithContext(ctx).Order("id asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

func (p *Postgres) Lookup(ctx context.Context, name string) (Entry, error) {
	entries, err := p.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	e, ok := Match(entries, name)
	if !ok {
		return Entry{}, notFound(name)
	}
	return e, nil
}

func (p *Postgres) Create(ctx context.Context, name, url string) (Entry, error) {
	db := p.db.WithContext(ctx)
	if err := p.conflict(db, name, url); err != nil {
		return Entry{}, err
	}

	rec := apiRecord{UUID: uuid.NewString(), Name: name, URL: url}
	if err := db.Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent create; report which field.
			if cerr := p.conflict(db, name, url); cerr != nil {
				return Entry{}, cerr
			}
			return Entry{}, oaserrors.NameConflict(name)
		}
		return Entry{}, fmt.Errorf("registry: %w", err)
	}
	return rec.entry(), nil
}

func (p *Postgres) conflict(db *gorm.DB, name, url string) error {
	var count int64
	if err := db.Model(&apiRecord{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if count > 0 {
		return oaserrors.NameConflict(name)
	}
	if err := db.Model(&apiRecord{}).Where("url = ?", url).Count(&count).Error; err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if count > 0 {
		return oaserrors.URLConflict(url)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, name string) error {
	res := p.db.WithContext(ctx).Unscoped().Where("name = ?", name).Delete(&apiRecord{})
	if res.Error != nil {
		return fmt.Errorf("registry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(name)
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
