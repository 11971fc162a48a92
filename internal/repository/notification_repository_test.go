package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/testutil"
)

func TestNotificationRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	receiver := testutil.CreateUser(t, db)
	sender := testutil.CreateUser(t, db)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, db.Create(&models.Notification{
			ReceiverID: receiver.ID,
			SenderID:   sender.ID,
			Message:    msg,
		}).Error)
	}
	require.NoError(t, db.Create(&models.Notification{
		ReceiverID: sender.ID,
		SenderID:   receiver.ID,
		Message:    "elsewhere",
	}).Error)

	views, err := repo.ListForReceiver(ctx, receiver.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "three", views[0].Message)
	assert.Equal(t, sender.FirstName, views[0].SenderFirstName)

	unread, err := repo.CountUnread(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	changed, err := repo.MarkAllRead(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	unread, err = repo.CountUnread(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	unread, err = repo.CountUnread(ctx, sender.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
