package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/askbox-backend/internal/testdb"
	"github.com/angelmondragon/askbox-backend/pkg/db/models"
)

func TestBaseDBBindsContext(t *testing.T) {
	client := testdb.New(t)
	base := NewBase(client.DB())

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx.Statement)
	require.Equal(t, ctx, withCtx.Statement.Context)

	require.Same(t, client.DB(), base.DB(nil))
}

func TestBaseExists(t *testing.T) {
	client := testdb.New(t)
	base := NewBase(client.DB())
	ctx := context.Background()

	found, err := base.Exists(ctx, &models.User{}, "lower(email) = lower(?)", "nobody@example.com")
	require.NoError(t, err)
	require.False(t, found)

	user := &models.User{ID: uuid.New(), Username: "Lena", UsernameNormalized: "lena", Email: "lena@example.com", PasswordHash: "hash", IsActive: true}
	require.NoError(t, client.DB().Create(user).Error)

	found, err = base.Exists(ctx, &models.User{}, "lower(email) = lower(?)", "LENA@example.com")
	require.NoError(t, err)
	require.True(t, found)
}
