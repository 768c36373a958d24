package transfer

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
	"github.com/geekskaran/Cattel-Backend/src/internal/notifications"
)

func setupTransferTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newTransferService(t *testing.T, db *gorm.DB) *Service {
	cfg := viper.New()
	cfg.Set("transfer.expiry_days", 30)

	logger := slog.Default()
	store := identity.NewStore(db)
	notifier := notifications.NewService(db, store, notifications.NewMailer(cfg), logger)
	return NewService(db, cfg, store, notifier, logger)
}

func createOwner(t *testing.T, db *gorm.DB, name string) *models.User {
	user := &models.User{
		Name:         name,
		Phone:        name,
		PasswordHash: "x",
		Role:         models.RoleFarmer,
		IsActive:     true,
		AddressState: "Texas",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTransferableCattle(t *testing.T, db *gorm.DB, ownerID uuid.UUID) *models.Cattle {
	cattle := &models.Cattle{
		TagNumber:          "EAR-9",
		OwnerID:            ownerID,
		LocationState:      "Texas",
		Lifecycle:          models.LifecycleActive,
		VerificationStatus: models.VerificationApproved,
		SubmittedAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(cattle).Error)
	return cattle
}

func TestInitiateTransfer(t *testing.T) {
	db := setupTransferTestDB(t)
	service := newTransferService(t, db)
	ctx := context.Background()

	seller := createOwner(t, db, "seller-1")
	buyer := createOwner(t, db, "buyer-1")

	t.Run("CreatesPendingRequest", func(t *testing.T) {
		cattle := createTransferableCattle(t, db, seller.ID)
		price := 1500.0

		before := time.Now().UTC()
		request, err := service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: buyer.ID,
			Type:      models.TransferTypeSell,
			Price:     &price,
		})
		require.NoError(t, err)

		assert.Equal(t, models.TransferStatusPending, request.Status)
		assert.Equal(t, models.TransferTypeSell, request.Type)
		assert.WithinDuration(t, before.Add(30*24*time.Hour), request.ExpiresAt, time.Minute)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("recipient_id = ? AND type = ?", buyer.ID, models.NotificationTransferRequested).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("RejectsSelfTransfer", func(t *testing.T) {
		cattle := createTransferableCattle(t, db, seller.ID)
		_, err := service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: seller.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("RejectsInactiveReceiver", func(t *testing.T) {
		dormant := &models.User{
			Name: "dormant", Phone: "dormant", PasswordHash: "x",
			Role: models.RoleFarmer, IsActive: false,
		}
		require.NoError(t, db.Create(dormant).Error)

		cattle := createTransferableCattle(t, db, seller.ID)
		_, err := service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: dormant.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("NonOwnerSeesNotFound", func(t *testing.T) {
		cattle := createTransferableCattle(t, db, seller.ID)
		stranger := createOwner(t, db, "stranger-1")

		_, err := service.Initiate(ctx, stranger.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: buyer.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("OnlyActiveCattleTransfer", func(t *testing.T) {
		cattle := createTransferableCattle(t, db, seller.ID)
		require.NoError(t, db.Model(&models.Cattle{}).
			Where("id = ?", cattle.ID).
			Update("lifecycle", models.LifecycleTransit).Error)

		_, err := service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: buyer.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("AtMostOnePendingPerCattle", func(t *testing.T) {
		cattle := createTransferableCattle(t, db, seller.ID)

		_, err := service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: buyer.ID,
		})
		require.NoError(t, err)

		other := createOwner(t, db, "buyer-2")
		_, err = service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: other.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})
}

func TestAcceptTransfer(t *testing.T) {
	db := setupTransferTestDB(t)
	service := newTransferService(t, db)
	ctx := context.Background()

	seller := createOwner(t, db, "seller-2")
	buyer := createOwner(t, db, "buyer-3")

	initiate := func(t *testing.T) (*models.Cattle, *models.TransferRequest) {
		cattle := createTransferableCattle(t, db, seller.ID)
		request, err := service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: buyer.ID,
			Type:      models.TransferTypeGift,
		})
		require.NoError(t, err)
		return cattle, request
	}

	t.Run("MovesOwnershipAndRecordsHistory", func(t *testing.T) {
		cattle, request := initiate(t)

		accepted, err := service.Accept(ctx, request.ID, buyer.ID, "thank you")
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusAccepted, accepted.Status)
		assert.Equal(t, "thank you", accepted.ResponseMessage)
		assert.NotNil(t, accepted.ProcessedAt)

		var reloaded models.Cattle
		require.NoError(t, db.First(&reloaded, "id = ?", cattle.ID).Error)
		assert.Equal(t, buyer.ID, reloaded.OwnerID)

		history, err := service.HistoryForCattle(ctx, cattle.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, seller.ID, history[0].FromOwnerID)
		assert.Equal(t, buyer.ID, history[0].ToOwnerID)
		assert.Equal(t, models.TransferTypeGift, history[0].Type)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("recipient_id = ? AND type = ?", seller.ID, models.NotificationTransferAccepted).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("SettledRequestCannotBeAcceptedAgain", func(t *testing.T) {
		_, request := initiate(t)

		_, err := service.Accept(ctx, request.ID, buyer.ID, "")
		require.NoError(t, err)
		_, err = service.Accept(ctx, request.ID, buyer.ID, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

		// Buyer now owns the animal again after the first accept; the
		// cattle owner must stay put after the failed second call.
		history, err := service.HistoryForCattle(ctx, request.CattleID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("OnlyReceiverMayAccept", func(t *testing.T) {
		_, request := initiate(t)

		_, err := service.Accept(ctx, request.ID, seller.ID, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("ExpiredRequestCannotBeAccepted", func(t *testing.T) {
		_, request := initiate(t)
		require.NoError(t, db.Model(&models.TransferRequest{}).
			Where("id = ?", request.ID).
			Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

		_, err := service.Accept(ctx, request.ID, buyer.ID, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("OwnershipChangeSinceCreationAborts", func(t *testing.T) {
		cattle, request := initiate(t)
		third := createOwner(t, db, "third-1")
		require.NoError(t, db.Model(&models.Cattle{}).
			Where("id = ?", cattle.ID).
			Update("owner_id", third.ID).Error)

		_, err := service.Accept(ctx, request.ID, buyer.ID, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

		// The aborted transaction must not leave the request accepted.
		reloaded, err := service.Get(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusPending, reloaded.Status)
	})
}

func TestConcurrentAcceptSettlesOnce(t *testing.T) {
	// A dedicated shared in-memory database with a busy timeout so the two
	// writers serialize on sqlite's lock instead of failing with busy errors.
	db, err := gorm.Open(sqlite.Open("file:transferacceptrace?mode=memory&cache=shared&_pragma=busy_timeout(10000)"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	service := newTransferService(t, db)
	ctx := context.Background()

	seller := createOwner(t, db, "seller-race")
	buyer := createOwner(t, db, "buyer-race")
	cattle := createTransferableCattle(t, db, seller.ID)

	request, err := service.Initiate(ctx, seller.ID, InitiateInput{
		CattleID:  cattle.ID,
		ToOwnerID: buyer.ID,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = service.Accept(ctx, request.ID, buyer.ID, "")
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.IsType(err, apperrors.ErrorTypeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	var reloaded models.Cattle
	require.NoError(t, db.First(&reloaded, "id = ?", cattle.ID).Error)
	assert.Equal(t, buyer.ID, reloaded.OwnerID)

	history, err := service.HistoryForCattle(ctx, cattle.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRejectAndCancelTransfer(t *testing.T) {
	db := setupTransferTestDB(t)
	service := newTransferService(t, db)
	ctx := context.Background()

	seller := createOwner(t, db, "seller-3")
	buyer := createOwner(t, db, "buyer-4")

	initiate := func(t *testing.T) (*models.Cattle, *models.TransferRequest) {
		cattle := createTransferableCattle(t, db, seller.ID)
		request, err := service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: buyer.ID,
		})
		require.NoError(t, err)
		return cattle, request
	}

	t.Run("RejectKeepsOwnership", func(t *testing.T) {
		cattle, request := initiate(t)

		rejected, err := service.Reject(ctx, request.ID, buyer.ID, "not interested")
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusRejected, rejected.Status)
		assert.Equal(t, "not interested", rejected.ResponseMessage)

		var reloaded models.Cattle
		require.NoError(t, db.First(&reloaded, "id = ?", cattle.ID).Error)
		assert.Equal(t, seller.ID, reloaded.OwnerID)

		history, err := service.HistoryForCattle(ctx, cattle.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("OnlyReceiverMayReject", func(t *testing.T) {
		_, request := initiate(t)
		_, err := service.Reject(ctx, request.ID, seller.ID, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("SenderCancelsWithDefaultMessage", func(t *testing.T) {
		_, request := initiate(t)

		cancelled, err := service.Cancel(ctx, request.ID, seller.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.TransferStatusCancelled, cancelled.Status)
		assert.Equal(t, "Cancelled by sender", cancelled.ResponseMessage)
	})

	t.Run("OnlySenderMayCancel", func(t *testing.T) {
		_, request := initiate(t)
		_, err := service.Cancel(ctx, request.ID, buyer.ID, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("NewTransferAllowedAfterSettling", func(t *testing.T) {
		cattle, request := initiate(t)
		_, err := service.Reject(ctx, request.ID, buyer.ID, "changed my mind")
		require.NoError(t, err)

		_, err = service.Initiate(ctx, seller.ID, InitiateInput{
			CattleID:  cattle.ID,
			ToOwnerID: buyer.ID,
		})
		require.NoError(t, err)
	})
}

func TestExpireStaleTransfers(t *testing.T) {
	db := setupTransferTestDB(t)
	service := newTransferService(t, db)
	ctx := context.Background()

	seller := createOwner(t, db, "seller-4")
	buyer := createOwner(t, db, "buyer-5")

	staleCattle := createTransferableCattle(t, db, seller.ID)
	stale, err := service.Initiate(ctx, seller.ID, InitiateInput{
		CattleID:  staleCattle.ID,
		ToOwnerID: buyer.ID,
	})
	require.NoError(t, err)

	freshCattle := createTransferableCattle(t, db, seller.ID)
	fresh, err := service.Initiate(ctx, seller.ID, InitiateInput{
		CattleID:  freshCattle.ID,
		ToOwnerID: buyer.ID,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.TransferRequest{}).
		Where("id = ?", stale.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	expired, err := service.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	reloaded, err := service.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusCancelled, reloaded.Status)
	assert.Equal(t, "Expired", reloaded.ResponseMessage)

	untouched, err := service.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusPending, untouched.Status)
}

func TestListForUser(t *testing.T) {
	db := setupTransferTestDB(t)
	service := newTransferService(t, db)
	ctx := context.Background()

	seller := createOwner(t, db, "seller-5")
	buyer := createOwner(t, db, "buyer-6")
	bystander := createOwner(t, db, "bystander-1")

	cattle := createTransferableCattle(t, db, seller.ID)
	request, err := service.Initiate(ctx, seller.ID, InitiateInput{
		CattleID:  cattle.ID,
		ToOwnerID: buyer.ID,
	})
	require.NoError(t, err)

	sent, err := service.ListForUser(ctx, seller.ID, "")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, request.ID, sent[0].ID)

	received, err := service.ListForUser(ctx, buyer.ID, models.TransferStatusPending)
	require.NoError(t, err)
	assert.Len(t, received, 1)

	none, err := service.ListForUser(ctx, bystander.ID, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
