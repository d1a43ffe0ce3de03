package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/window"
)

func TestAttemptSendBeforeWindow(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Before
	tr := f.addTrainee(t, "family1")
	l := f.addLetter(t, tr.ID, "first letter")

	out, err := f.mail.AttemptSendWithRetry(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, SendTooEarly, out)

	got, err := f.letters.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.False(t, got.Posted)
	assert.Equal(t, 0, f.letterQueueSize(t))
	assert.Equal(t, 0, f.roster.PostLetterCalls)
}

func TestAttemptSendProfileMissing(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	tr := f.addTrainee(t, "family1") // no routing identifiers
	l := f.addLetter(t, tr.ID, "first letter")

	out, err := f.mail.AttemptSendWithRetry(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, SendProfileMissing, out)

	got, err := f.letters.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.False(t, got.Posted)
	// Unlike ServerError/Rejected, nothing is enqueued: the cascade owns
	// this letter now.
	assert.Equal(t, 0, f.letterQueueSize(t))
	assert.Equal(t, 0, f.roster.PostLetterCalls)
}

func TestAttemptSendServerError(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetServerDown()
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "first letter")

	out, err := f.mail.AttemptSendWithRetry(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, SendServerError, out)

	got, err := f.letters.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.False(t, got.Posted)
	assert.Equal(t, 1, f.letterQueueSize(t))
}

func TestAttemptSendRejected(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(false)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "first letter")

	out, err := f.mail.AttemptSendWithRetry(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, SendRejected, out)
	assert.Equal(t, 1, f.letterQueueSize(t))
}

func TestAttemptSendSuccess(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "first letter")

	out, err := f.mail.AttemptSendWithRetry(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, SendSuccess, out)

	got, err := f.letters.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, got.Posted)
	require.NotNil(t, got.PostedAt)
	assert.Equal(t, 0, f.letterQueueSize(t))
	assert.Equal(t, 1, f.roster.PostLetterCalls)
}

// A second attempt on a posted letter is Success without another roster
// submission, and the posted timestamp stays put.
func TestAttemptSendIdempotent(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "first letter")

	out, err := f.mail.AttemptSend(context.Background(), l.ID)
	require.NoError(t, err)
	require.Equal(t, SendSuccess, out)
	first, err := f.letters.FindByID(context.Background(), l.ID)
	require.NoError(t, err)

	out, err = f.mail.AttemptSend(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, SendSuccess, out)

	second, err := f.letters.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PostedAt, second.PostedAt)
	assert.Equal(t, 1, f.roster.PostLetterCalls)
}

// Once the window has closed the letter is waived as delivered without
// contacting the roster at all.
func TestAttemptSendAfterWindowWaived(t *testing.T) {
	for _, phase := range []window.Phase{window.Ending, window.Working, window.Discharged} {
		t.Run(phase.String(), func(t *testing.T) {
			f := newFixture()
			f.phases[testCohort] = phase
			tr := f.addTrainee(t, "family1")
			l := f.addLetter(t, tr.ID, "late letter")

			out, err := f.mail.AttemptSendWithRetry(context.Background(), l.ID)
			require.NoError(t, err)
			assert.Equal(t, SendSuccess, out)

			got, err := f.letters.FindByID(context.Background(), l.ID)
			require.NoError(t, err)
			assert.True(t, got.Posted)
			assert.Equal(t, 0, f.roster.PostLetterCalls)
			assert.Equal(t, 0, f.letterQueueSize(t))
		})
	}
}

func TestAttemptSendUnknownLetter(t *testing.T) {
	f := newFixture()
	_, err := f.mail.AttemptSend(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// A backlog of 15 letters: the first ten get a live attempt, the last five
// go straight to the queue untried.
func TestFlushUnsentCapsLiveAttempts(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)

	for i := 0; i < 15; i++ {
		f.addLetter(t, tr.ID, fmt.Sprintf("letter %d", i))
	}

	require.NoError(t, f.mail.FlushUnsent(context.Background(), tr.ID))

	assert.Equal(t, 10, f.roster.PostLetterCalls)
	assert.Equal(t, 5, f.letterQueueSize(t))

	letters, err := f.letters.ListByTrainee(context.Background(), tr.ID)
	require.NoError(t, err)
	for i, l := range letters {
		assert.Equal(t, i < 10, l.Posted, "letter %d", i)
	}
}

func TestSendLetterConnectedPostsImmediately(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)

	id, err := f.mail.SendLetter(context.Background(), tr.ID, repository.NewLetter{
		SenderName: "Yuchan", Relationship: "friend", Title: "hi", Contents: "body", Password: "0000",
	})
	require.NoError(t, err)

	got, err := f.letters.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.Posted)
}

func TestSendLetterDisconnectedWaits(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	tr := f.addTrainee(t, "family1")

	id, err := f.mail.SendLetter(context.Background(), tr.ID, repository.NewLetter{
		SenderName: "Yuchan", Relationship: "friend", Title: "hi", Contents: "body", Password: "0000",
	})
	require.NoError(t, err)

	got, err := f.letters.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, got.Posted)
	assert.Equal(t, 0, f.letterQueueSize(t))
	assert.Equal(t, 0, f.roster.PostLetterCalls)
}
