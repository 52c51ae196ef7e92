package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/askbox-backend/internal/testdb"
	"github.com/angelmondragon/askbox-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Username: "Alice", Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	require.True(t, user.IsActive)
	require.False(t, user.IsAdmin)

	byName, err := repo.FindByUsername(ctx, "aLiCe")
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.ID)
	require.Equal(t, "Alice", byName.Username, "case is preserved on storage")

	byEmail, err := repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byLogin, err := repo.FindByLogin(ctx, " alice@example.com ")
	require.NoError(t, err)
	require.Equal(t, user.ID, byLogin.ID)

	byLogin, err = repo.FindByLogin(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, user.ID, byLogin.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryExistsIgnoresCase(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	for _, name := range []string{"bob", "BOB", "Bob"} {
		ok, err := repo.UsernameExists(ctx, name)
		require.NoError(t, err)
		require.True(t, ok, name)
	}
	ok, err := repo.UsernameExists(ctx, "bobby")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.EmailExists(ctx, "BOB@EXAMPLE.COM")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRepositoryCreateTranslatesUniqueViolations(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "carol", Email: "carol@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{Username: "CAROL", Email: "other@example.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.Create(ctx, CreateUserDTO{Username: "carol2", Email: "Carol@Example.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
	require.False(t, errors.Is(err, ErrDuplicateUsername))
}

func TestRepositoryRefusesEmptyHash(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())

	_, err := repo.Create(context.Background(), CreateUserDTO{Username: "dave", Email: "dave@example.com"})
	require.ErrorIs(t, err, ErrMissingPasswordHash)
}

func TestRepositoryPrivilegesAndLastLogin(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Username: "erin", Email: "erin@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	require.NoError(t, repo.SetPrivileges(ctx, user.ID, true, true))
	require.ErrorIs(t, repo.SetPrivileges(ctx, uuid.New(), true, true), gorm.ErrRecordNotFound)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsAdmin)
	require.True(t, reloaded.IsStaff)
	require.NotNil(t, reloaded.LastLoginAt)
	require.True(t, reloaded.LastLoginAt.Equal(at))

	dto := FromModel(reloaded)
	require.Equal(t, enums.SystemRoleAdmin, dto.Role)
	require.Nil(t, FromModel(nil))
}

func TestRepositorySetActive(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Username: "fay", Email: "fay@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, user.ID, false))
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsActive)

	require.ErrorIs(t, repo.SetActive(ctx, uuid.New(), true), gorm.ErrRecordNotFound)
}

func TestRepositoryFoldsNonASCIIUsernames(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Username: "Éloïse", Email: "eloise@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, "éloïse", user.UsernameNormalized)

	ok, err := repo.UsernameExists(ctx, "ÉLOÏSE")
	require.NoError(t, err)
	require.True(t, ok)

	found, err := repo.FindByLogin(ctx, "éloïse")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)
	require.Equal(t, "Éloïse", found.Username)

	_, err = repo.Create(ctx, CreateUserDTO{Username: "ÉLOÏSE", Email: "other@example.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrDuplicateUsername)
}
