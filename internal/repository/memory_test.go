package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func seedTrainee(t *testing.T, r *MemoryTraineeRepo, username string) uint64 {
	t.Helper()
	tr, err := r.Create(context.Background(), NewTrainee{
		Username: username,
		Password: "pw",
		Name:     "Hong Gildong",
		Birth:    "20010101",
		Cohort:   850,
	}, bcrypt.MinCost)
	require.NoError(t, err)
	return tr.ID
}

func TestLetterQueueFIFO(t *testing.T) {
	trainees := NewMemoryTraineeRepo()
	letters := NewMemoryLetterRepo(trainees)
	q := NewMemoryLetterQueue(letters)
	ctx := context.Background()

	uid := seedTrainee(t, trainees, "family1")
	var ids []uint64
	for _, title := range []string{"one", "two", "three"} {
		l, err := letters.Create(ctx, NewLetter{TraineeID: uid, SenderName: "a", Title: title, Contents: "x"})
		require.NoError(t, err)
		_, err = q.Insert(ctx, l.ID)
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	for _, want := range ids {
		head, err := q.FrontWithLetter(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, head.RefID)
		_, err = q.Pop(ctx)
		require.NoError(t, err)
	}

	empty, err := q.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestTraineeQueueReinsertGoesToTail(t *testing.T) {
	trainees := NewMemoryTraineeRepo()
	q := NewMemoryTraineeQueue(trainees)
	ctx := context.Background()

	a := seedTrainee(t, trainees, "a")
	b := seedTrainee(t, trainees, "b")
	_, err := q.Insert(ctx, a)
	require.NoError(t, err)
	_, err = q.Insert(ctx, b)
	require.NoError(t, err)

	// Rotate: pop a, re-insert it; b should now be at the front.
	_, err = q.Pop(ctx)
	require.NoError(t, err)
	_, err = q.Insert(ctx, a)
	require.NoError(t, err)

	head, err := q.FrontWithTrainee(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, head.RefID)
}

func TestQueueEntriesCarryInsertionTime(t *testing.T) {
	trainees := NewMemoryTraineeRepo()
	q := NewMemoryTraineeQueue(trainees)
	fixed := time.Date(2023, 9, 1, 12, 0, 0, 0, time.UTC)
	q.Now = func() time.Time { return fixed }

	uid := seedTrainee(t, trainees, "family1")
	e, err := q.Insert(context.Background(), uid)
	require.NoError(t, err)
	assert.True(t, e.CreatedAt.Equal(fixed))
}

func TestUpdateProfileIdentityEditClearsRouting(t *testing.T) {
	trainees := NewMemoryTraineeRepo()
	ctx := context.Background()
	uid := seedTrainee(t, trainees, "family1")
	require.NoError(t, trainees.UpdateRouting(ctx, uid, "12341234", "1111"))

	name := "Hong Gilsun"
	require.NoError(t, trainees.UpdateProfile(ctx, uid, ProfileEdit{Name: &name}))

	got, err := trainees.FindByID(ctx, uid)
	require.NoError(t, err)
	assert.False(t, got.Connected)
	assert.Nil(t, got.MemberCode)
	assert.Nil(t, got.UnitCode)
	assert.Equal(t, "Hong Gilsun", got.Name)
}

func TestUpdateProfileMessageKeepsRouting(t *testing.T) {
	trainees := NewMemoryTraineeRepo()
	ctx := context.Background()
	uid := seedTrainee(t, trainees, "family1")
	require.NoError(t, trainees.UpdateRouting(ctx, uid, "12341234", "1111"))

	msg := "see you at graduation"
	require.NoError(t, trainees.UpdateProfile(ctx, uid, ProfileEdit{Message: &msg}))

	got, err := trainees.FindByID(ctx, uid)
	require.NoError(t, err)
	assert.True(t, got.Connected)
	require.NotNil(t, got.MemberCode)
	assert.Equal(t, "see you at graduation", got.Message)
}

func TestMarkPostedKeepsFirstTimestamp(t *testing.T) {
	trainees := NewMemoryTraineeRepo()
	letters := NewMemoryLetterRepo(trainees)
	ctx := context.Background()
	uid := seedTrainee(t, trainees, "family1")
	l, err := letters.Create(ctx, NewLetter{TraineeID: uid, SenderName: "a", Title: "t", Contents: "x"})
	require.NoError(t, err)

	first := time.Date(2023, 9, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, letters.MarkPosted(ctx, l.ID, first))
	require.NoError(t, letters.MarkPosted(ctx, l.ID, first.Add(time.Hour)))

	got, err := letters.FindByID(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PostedAt)
	assert.True(t, got.PostedAt.Equal(first))
}
