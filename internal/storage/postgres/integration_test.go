package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// TestPostgresIntegration runs the store against a disposable Postgres container.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("set INTEGRATION_TEST=1 to run against a Postgres container")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("servicedesk_test"),
		tcpostgres.WithUsername("servicedesk"),
		tcpostgres.WithPassword("servicedesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, Migrate(dsn))

	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user, err := store.CreateUser(ctx, models.User{Username: "ana", Email: "ana@example.com", Role: models.RoleStandard, Active: true})
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, models.User{Username: "ana", Email: "other@example.com", Role: models.RoleStandard})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = store.CreateUser(ctx, models.User{Username: "ana2", Email: "ANA@Example.com", Role: models.RoleStandard})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := store.FindByEmail(ctx, "Ana@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	t.Run("concurrent default provisioning", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.EnsureDefaultPermissions(ctx, user.ID, models.AllModules)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		perms, err := store.ListPermissions(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, perms, len(models.AllModules))
	})

	t.Run("upsert is visible immediately", func(t *testing.T) {
		_, err := store.UpsertPermission(ctx, models.Permission{UserID: user.ID, Module: models.ModuleClients, CanRead: true})
		require.NoError(t, err)
		p, err := store.FindPermission(ctx, user.ID, models.ModuleClients)
		require.NoError(t, err)
		assert.True(t, p.CanRead)
		assert.False(t, p.CanWrite)
	})

	t.Run("user referenced by logs cannot be deleted", func(t *testing.T) {
		require.NoError(t, store.RecordActivity(ctx, models.ActivityEntry{UserID: user.ID, Action: "login", Entity: "users", EntityID: user.ID}))
		assert.ErrorIs(t, store.DeleteUser(ctx, user.ID), storage.ErrReferenced)
	})

	t.Run("unknown client reference", func(t *testing.T) {
		_, err := store.CreateQuote(ctx, models.Quote{ClientID: 12345, Title: "x", Status: models.QuoteDraft, CreatedBy: user.ID})
		assert.ErrorIs(t, err, storage.ErrInvalidReference)
	})
}
