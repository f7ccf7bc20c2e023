// Package database opens the GORM connection and prepares the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"ruangpena/internal/credentials"
	"ruangpena/internal/models"
	"ruangpena/internal/repositories"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by driver ("postgres" or
// "sqlite") and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.WithField("driver", driver).Info("database connected")
	return db, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Journal{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Demo account created by SeedDemo.
const (
	DemoEmail    = "demo@ruangpena.com"
	DemoPassword = "Password123"
)

var demoJournals = []models.Journal{
	{
		Title:   "Jurnal Harian Pertama",
		Content: "Hari ini adalah hari yang baik. Saya belajar banyak hal baru tentang pengembangan web.",
		Type:    models.JournalDaily,
		Tags:    []string{"belajar", "teknologi", "web-development"},
	},
	{
		Title:   "Hal-hal yang Disyukuri",
		Content: "Hari ini saya bersyukur untuk:\n1. Kesehatan yang baik\n2. Keluarga yang mendukung\n3. Kesempatan belajar teknologi baru",
		Type:    models.JournalGratitude,
		Tags:    []string{"syukur", "keluarga", "kesehatan"},
	},
	{
		Title:   "Mimpi Malam Ini",
		Content: "Malam ini saya bermimpi tentang masa depan sebagai developer yang sukses.",
		Type:    models.JournalDream,
		Tags:    []string{"mimpi", "masa-depan", "karier"},
	},
	{
		Content: "• Bangun pagi jam 6\n• Olahraga 30 menit\n• Meeting tim jam 9\n• Tidur jam 10",
		Type:    models.JournalBullet,
		Tags:    []string{"rutinitas", "produktivitas", "planning"},
	},
	{
		Title:   "Refleksi Mingguan",
		Content: "Minggu ini sudah berhasil menyelesaikan beberapa task penting.\n\nMinggu depan fokus pada testing dan dokumentasi.",
		Type:    models.JournalDaily,
		Tags:    []string{"refleksi", "mingguan", "progress", "planning"},
	},
}

// SeedDemo creates the demo account and its sample journals. It does
// nothing when the account already exists.
func SeedDemo(ctx context.Context, users repositories.UserRepository, journals repositories.JournalRepository, bcryptCost int) error {
	existing, err := users.GetByEmail(ctx, DemoEmail)
	if err != nil {
		return fmt.Errorf("failed to look up demo user: %w", err)
	}
	if existing != nil {
		log.WithField("email", DemoEmail).Debug("demo user already seeded")
		return nil
	}

	hash, err := credentials.HashPassword(DemoPassword, bcryptCost)
	if err != nil {
		return err
	}
	demo := &models.User{Email: DemoEmail, PasswordHash: hash, Name: "Demo User"}
	if err := users.Create(ctx, demo); err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	// Spread the entries over the last few days so the default order is stable.
	now := time.Now()
	for i := range demoJournals {
		journal := demoJournals[i]
		journal.UserID = demo.ID
		journal.Tags = append([]string(nil), journal.Tags...)
		journal.CreatedAt = now.Add(-time.Duration(len(demoJournals)-i) * 24 * time.Hour)
		if err := journals.Create(ctx, &journal); err != nil {
			return fmt.Errorf("failed to seed journal %q: %w", journal.Title, err)
		}
	}
	log.WithFields(log.Fields{"email": DemoEmail, "journals": len(demoJournals)}).Info("demo data seeded")
	return nil
}
