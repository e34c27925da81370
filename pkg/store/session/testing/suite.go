package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/store/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a test suite for SessionStore implementations.
//
// Expiry tests use short real TTLs (tens of milliseconds) rather than mock
// clocks, since the badger backend delegates expiry to the database.
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh SessionStore
	// instance for each test.
	NewStore func(t *testing.T) session.SessionStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("PutGet", suite.testPutGet)
	t.Run("Put_Invalid", suite.testPutInvalid)
	t.Run("Get_Unknown", suite.testGetUnknown)
	t.Run("Get_Expired", suite.testGetExpired)
	t.Run("Delete", suite.testDelete)
	t.Run("Delete_Unknown", suite.testDeleteUnknown)
	t.Run("Put_Overwrite", suite.testPutOverwrite)
}

func testContext() context.Context {
	return context.Background()
}

func (suite *StoreTestSuite) testPutGet(t *testing.T) {
	store := suite.NewStore(t)
	userID := uuid.New()

	require.NoError(t, store.Put(testContext(), "token-1", userID, time.Hour))

	got, err := store.Get(testContext(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func (suite *StoreTestSuite) testPutInvalid(t *testing.T) {
	store := suite.NewStore(t)

	err := store.Put(testContext(), "", uuid.New(), time.Hour)
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	err = store.Put(testContext(), "token", uuid.New(), 0)
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	err = store.Put(testContext(), "token", uuid.New(), -time.Second)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func (suite *StoreTestSuite) testGetUnknown(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Get(testContext(), "never-stored")
	assert.ErrorIs(t, err, session.ErrTokenNotFound)
}

func (suite *StoreTestSuite) testGetExpired(t *testing.T) {
	store := suite.NewStore(t)

	require.NoError(t, store.Put(testContext(), "short-lived", uuid.New(), 20*time.Millisecond))

	// Readable before the deadline.
	_, err := store.Get(testContext(), "short-lived")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	// Indistinguishable from a token that never existed.
	_, err = store.Get(testContext(), "short-lived")
	assert.ErrorIs(t, err, session.ErrTokenNotFound)
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.NewStore(t)

	require.NoError(t, store.Put(testContext(), "to-delete", uuid.New(), time.Hour))

	found, err := store.Delete(testContext(), "to-delete")
	require.NoError(t, err)
	assert.True(t, found)

	_, err = store.Get(testContext(), "to-delete")
	assert.ErrorIs(t, err, session.ErrTokenNotFound)
}

func (suite *StoreTestSuite) testDeleteUnknown(t *testing.T) {
	store := suite.NewStore(t)

	found, err := store.Delete(testContext(), "never-stored")
	require.NoError(t, err)
	assert.False(t, found)
}

func (suite *StoreTestSuite) testPutOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, store.Put(testContext(), "shared", first, time.Hour))
	require.NoError(t, store.Put(testContext(), "shared", second, time.Hour))

	got, err := store.Get(testContext(), "shared")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}
