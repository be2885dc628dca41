package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapMemoryInbox(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("NOTIFICATIONS_NOTIFIER", "inbox")
	t.Setenv("LOG_LEVEL", "error")

	ctx := context.Background()
	a, err := bootstrap(ctx)
	require.NoError(t, err)

	assert.NotNil(t, a.inbox)
	assert.Equal(t, a.inbox, a.notifier)
	assert.Empty(t, a.store.Tasks())
	assert.Empty(t, a.scheduler.NotifiedIDs())
	assert.NoError(t, a.close(ctx))
}

func TestBootstrapRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	a, err := bootstrap(context.Background())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "timezone")
}
