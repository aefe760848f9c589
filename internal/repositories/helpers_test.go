package repositories_test

import (
	"fmt"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database per test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newUser(name string) *models.User {
	return &models.User{
		FirstName: "First",
		LastName:  "Last",
		Username:  name,
		Gender:    "other",
		Email:     name + "@example.com",
		ImageFile: models.DefaultImageFile,
		Password:  "$2a$04$hash",
	}
}
