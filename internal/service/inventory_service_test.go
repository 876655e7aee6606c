package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type inventoryFixture struct {
	svc          InventoryService
	accounts     *MockAccountStore
	collectibles *MockCollectibleStore
}

func newInventoryFixture(t *testing.T) (*inventoryFixture, sqlmock.Sqlmock) {
	t.Helper()

	db, sqlMock := newTxDB(t)
	f := &inventoryFixture{
		accounts:     &MockAccountStore{},
		collectibles: &MockCollectibleStore{},
	}

	svc, err := NewInventoryService(db, f.accounts, f.collectibles, nil)
	require.NoError(t, err)
	f.svc = svc

	t.Cleanup(func() {
		f.accounts.AssertExpectations(t)
		f.collectibles.AssertExpectations(t)
	})

	return f, sqlMock
}

func TestInventoryService_GrantStarter(t *testing.T) {
	f, _ := newInventoryFixture(t)
	accountID := uuid.New()

	f.collectibles.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Collectible) bool {
		return c.AccountID == accountID && c.Tier == domain.TierStarter && c.CustomName == "Fluffy"
	})).Return(nil)

	starter, err := f.svc.GrantStarter(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, 1, starter.Level)
	assert.Equal(t, 0, starter.Experience)
	assert.Equal(t, 1.0, starter.GenerationModifier)
	assert.Equal(t, 5.0, starter.GenerationRate())
}

func TestInventoryService_Mint(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	t.Run("mints a level 1 collectible", func(t *testing.T) {
		f, _ := newInventoryFixture(t)
		f.collectibles.On("Create", mock.Anything, mock.AnythingOfType("*domain.Collectible")).Return(nil)

		minted, err := f.svc.Mint(ctx, accountID, domain.TierGolden, "  Goldie ")
		require.NoError(t, err)
		assert.Equal(t, domain.TierGolden, minted.Tier)
		assert.Equal(t, "Goldie", minted.CustomName)
		assert.False(t, minted.IsFavorite)
	})

	t.Run("unknown tier is a validation error", func(t *testing.T) {
		f, _ := newInventoryFixture(t)

		_, err := f.svc.Mint(ctx, accountID, domain.Tier("alpaca"), "")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidTier)
	})

	t.Run("unknown account", func(t *testing.T) {
		f, _ := newInventoryFixture(t)
		f.collectibles.On("Create", mock.Anything, mock.Anything).Return(store.ErrAccountNotFound)

		_, err := f.svc.Mint(ctx, accountID, domain.TierMerino, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestInventoryService_SetFavorite(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	target := collectible(accountID, domain.TierSuffolk, 1)

	t.Run("locks the account then switches the favorite", func(t *testing.T) {
		f, sqlMock := newInventoryFixture(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		lock := f.accounts.On("GetForUpdate", mock.Anything, accountID).Return(&domain.Account{ID: accountID}, nil)
		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(&target, nil).NotBefore(lock)
		f.collectibles.On("SetFavorite", mock.Anything, accountID, target.ID).Return(nil).NotBefore(lock)

		require.NoError(t, f.svc.SetFavorite(ctx, accountID, target.ID))
	})

	t.Run("collectible owned by someone else", func(t *testing.T) {
		f, sqlMock := newInventoryFixture(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		f.accounts.On("GetForUpdate", mock.Anything, accountID).Return(&domain.Account{ID: accountID}, nil)
		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(nil, store.ErrCollectibleNotFound)

		err := f.svc.SetFavorite(ctx, accountID, target.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.collectibles.AssertNotCalled(t, "SetFavorite", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestInventoryService_Update(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	target := collectible(accountID, domain.TierCotswold, 2)

	t.Run("rename", func(t *testing.T) {
		f, sqlMock := newInventoryFixture(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		renamed := target
		renamed.CustomName = "Duchess"
		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(&target, nil).Once()
		f.collectibles.On("UpdateName", mock.Anything, accountID, target.ID, "Duchess").Return(nil)
		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(&renamed, nil).Once()

		name := " Duchess "
		got, err := f.svc.Update(ctx, accountID, target.ID, CollectibleUpdate{CustomName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Duchess", got.CustomName)
	})

	t.Run("favorite true goes through the account lock", func(t *testing.T) {
		f, sqlMock := newInventoryFixture(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		favorite := target
		favorite.IsFavorite = true
		f.accounts.On("GetForUpdate", mock.Anything, accountID).Return(&domain.Account{ID: accountID}, nil)
		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(&target, nil).Once()
		f.collectibles.On("SetFavorite", mock.Anything, accountID, target.ID).Return(nil)
		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(&favorite, nil).Once()

		yes := true
		got, err := f.svc.Update(ctx, accountID, target.ID, CollectibleUpdate{IsFavorite: &yes})
		require.NoError(t, err)
		assert.True(t, got.IsFavorite)
	})

	t.Run("favorite false clears only the target", func(t *testing.T) {
		f, sqlMock := newInventoryFixture(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(&target, nil)
		f.collectibles.On("ClearFavorite", mock.Anything, accountID, target.ID).Return(nil)

		no := false
		_, err := f.svc.Update(ctx, accountID, target.ID, CollectibleUpdate{IsFavorite: &no})
		require.NoError(t, err)
		f.accounts.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("name too long", func(t *testing.T) {
		f, _ := newInventoryFixture(t)

		name := "a name that is far too long for any sheep to carry around the farm"
		_, err := f.svc.Update(ctx, accountID, target.ID, CollectibleUpdate{CustomName: &name})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("not owned", func(t *testing.T) {
		f, sqlMock := newInventoryFixture(t)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		f.collectibles.On("GetByID", mock.Anything, accountID, target.ID).Return(nil, store.ErrCollectibleNotFound)

		name := "Duchess"
		_, err := f.svc.Update(ctx, accountID, target.ID, CollectibleUpdate{CustomName: &name})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestInventoryService_ListAndGet(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	owned := []domain.Collectible{collectible(accountID, domain.TierStarter, 1)}

	f, _ := newInventoryFixture(t)
	f.collectibles.On("ListByAccount", mock.Anything, accountID).Return(owned, nil)
	f.collectibles.On("GetByID", mock.Anything, accountID, owned[0].ID).Return(&owned[0], nil)

	list, err := f.svc.List(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := f.svc.Get(ctx, accountID, owned[0].ID)
	require.NoError(t, err)
	assert.Equal(t, owned[0].ID, got.ID)
}
