package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunUserTests executes all user operation tests.
func (suite *StoreTestSuite) RunUserTests(t *testing.T) {
	t.Run("CreateUser_Success", suite.testCreateUserSuccess)
	t.Run("CreateUser_DuplicateEmail", suite.testCreateUserDuplicateEmail)
	t.Run("CreateUser_MissingFields", suite.testCreateUserMissingFields)
	t.Run("GetUserByEmail_NotFound", suite.testGetUserByEmailNotFound)
	t.Run("GetUserByID_Success", suite.testGetUserByIDSuccess)
	t.Run("GetUserByID_NotFound", suite.testGetUserByIDNotFound)
	t.Run("CountUsers", suite.testCountUsers)
}

func (suite *StoreTestSuite) testCreateUserSuccess(t *testing.T) {
	store := suite.NewStore(t)

	user, err := store.CreateUser(testContext(), "alice@example.com", []byte("hash"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, []byte("hash"), user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())

	// Lookup by email returns the same record.
	found, err := store.GetUserByEmail(testContext(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func (suite *StoreTestSuite) testCreateUserDuplicateEmail(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.CreateUser(testContext(), "bob@example.com", []byte("hash1"))
	require.NoError(t, err)

	_, err = store.CreateUser(testContext(), "bob@example.com", []byte("hash2"))
	assert.ErrorIs(t, err, metadata.ErrAlreadyExists)
}

func (suite *StoreTestSuite) testCreateUserMissingFields(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.CreateUser(testContext(), "", []byte("hash"))
	assert.ErrorIs(t, err, metadata.ErrInvalidArgument)

	_, err = store.CreateUser(testContext(), "carol@example.com", nil)
	assert.ErrorIs(t, err, metadata.ErrInvalidArgument)
}

func (suite *StoreTestSuite) testGetUserByEmailNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetUserByEmail(testContext(), "nobody@example.com")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testGetUserByIDSuccess(t *testing.T) {
	store := suite.NewStore(t)

	created, err := store.CreateUser(testContext(), "dave@example.com", []byte("hash"))
	require.NoError(t, err)

	found, err := store.GetUserByID(testContext(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, found.Email)
}

func (suite *StoreTestSuite) testGetUserByIDNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetUserByID(testContext(), uuid.New())
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testCountUsers(t *testing.T) {
	store := suite.NewStore(t)

	count, err := store.CountUsers(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	_, err = store.CreateUser(testContext(), "one@example.com", []byte("hash"))
	require.NoError(t, err)
	_, err = store.CreateUser(testContext(), "two@example.com", []byte("hash"))
	require.NoError(t, err)

	count, err = store.CountUsers(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
