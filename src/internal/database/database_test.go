package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

func TestMigratePendingTransferIndex(t *testing.T) {
	cfg := viper.New()
	cfg.Set("database.type", "sqlite")
	cfg.Set("database.dsn", "file:databasetest?mode=memory&cache=shared")

	db, err := Initialize(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	cattleID := uuid.New()
	seller := uuid.New()
	buyer := uuid.New()

	first := &models.TransferRequest{CattleID: cattleID, FromOwnerID: seller, ToOwnerID: buyer}
	require.NoError(t, db.Create(first).Error)

	second := &models.TransferRequest{CattleID: cattleID, FromOwnerID: seller, ToOwnerID: buyer}
	assert.Error(t, db.Create(second).Error,
		"a second pending request for the same cattle must violate the index")

	require.NoError(t, db.Model(first).Update("status", models.TransferStatusAccepted).Error)

	third := &models.TransferRequest{CattleID: cattleID, FromOwnerID: seller, ToOwnerID: buyer}
	assert.NoError(t, db.Create(third).Error,
		"settled requests must not block a new pending one")
}
