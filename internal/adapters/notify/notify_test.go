package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
)

func TestInboxRequiresPermission(t *testing.T) {
	ctx := context.Background()
	inbox := NewInbox(10, false)

	assert.False(t, inbox.IsPermitted())
	assert.ErrorIs(t, inbox.Fire(ctx, "ignored", ""), entities.ErrPermissionDenied)
	assert.Empty(t, inbox.Alerts(false))

	require.NoError(t, inbox.RequestPermission(ctx))
	assert.True(t, inbox.IsPermitted())
	require.NoError(t, inbox.Fire(ctx, "Standup", "Due at 08:00"))

	alerts := inbox.Alerts(false)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Standup", alerts[0].Title)
	assert.Equal(t, "Due at 08:00", alerts[0].Body)
	assert.NotEmpty(t, alerts[0].ID)

	inbox.Revoke()
	assert.False(t, inbox.IsPermitted())
	assert.ErrorIs(t, inbox.Fire(ctx, "after revoke", ""), entities.ErrPermissionDenied)
	assert.Len(t, inbox.Alerts(false), 1)
}

func TestInboxSeenTracking(t *testing.T) {
	ctx := context.Background()
	inbox := NewInbox(10, true)
	fixed := time.Date(2024, time.January, 31, 7, 40, 0, 0, time.UTC)
	inbox.clock = func() time.Time { return fixed }

	require.NoError(t, inbox.Fire(ctx, "one", ""))
	require.NoError(t, inbox.Fire(ctx, "two", ""))
	assert.Len(t, inbox.Unseen(), 2)

	alerts := inbox.Alerts(true)
	require.Len(t, alerts, 2)
	assert.False(t, alerts[0].Seen)
	assert.Equal(t, fixed, alerts[0].FiredAt)
	assert.Empty(t, inbox.Unseen())

	require.NoError(t, inbox.Fire(ctx, "three", ""))
	unseen := inbox.Unseen()
	require.Len(t, unseen, 1)
	assert.Equal(t, "three", unseen[0].Title)
}

func TestInboxCapacity(t *testing.T) {
	ctx := context.Background()
	inbox := NewInbox(2, true)

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, inbox.Fire(ctx, title, ""))
	}

	alerts := inbox.Alerts(false)
	require.Len(t, alerts, 2)
	assert.Equal(t, "b", alerts[0].Title)
	assert.Equal(t, "c", alerts[1].Title)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	ctx := context.Background()

	n := NewLogNotifier(log, false)
	assert.ErrorIs(t, n.Fire(ctx, "hidden", ""), entities.ErrPermissionDenied)
	assert.Zero(t, logs.FilterMessage("Reminder").Len())

	require.NoError(t, n.RequestPermission(ctx))
	require.NoError(t, n.Fire(ctx, "Standup", "Due at 08:00"))

	entries := logs.FilterMessage("Reminder").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Standup", entries[0].ContextMap()["title"])
	assert.Equal(t, "notifier", entries[0].ContextMap()["component"])
}
