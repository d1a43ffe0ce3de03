package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchankim/trainmail/internal/window"
)

func TestDrainLettersSendsQueuedLetter(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "delayed letter")
	_, err := f.letterQ.Insert(context.Background(), l.ID)
	require.NoError(t, err)

	require.NoError(t, f.retry.DrainLetters(context.Background()))

	got, err := f.letters.FindByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, got.Posted)
	assert.Equal(t, 0, f.letterQueueSize(t))
}

// A queued letter that was posted in the meantime is discarded without
// contacting the roster again.
func TestDrainLettersSkipsAlreadyPosted(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "delayed letter")
	_, err := f.letterQ.Insert(context.Background(), l.ID)
	require.NoError(t, err)
	require.NoError(t, f.letters.MarkPosted(context.Background(), l.ID, time.Now()))

	require.NoError(t, f.retry.DrainLetters(context.Background()))

	assert.Equal(t, 0, f.letterQueueSize(t))
	assert.Equal(t, 0, f.roster.PostLetterCalls)
}

// While the roster is down each entry is dispatched once, re-enqueued with a
// fresh timestamp, and not touched again in the same pass.
func TestDrainLettersServerErrorReenqueuesOnce(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetServerDown()
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "delayed letter")
	_, err := f.letterQ.Insert(context.Background(), l.ID)
	require.NoError(t, err)

	require.NoError(t, f.retry.DrainLetters(context.Background()))

	assert.Equal(t, 1, f.letterQueueSize(t))
	assert.Equal(t, 1, f.roster.PostLetterCalls)
}

// Entries timestamped after the pass cutoff are left for the next pass.
func TestDrainLettersHonorsCutoff(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	l := f.addLetter(t, tr.ID, "future letter")

	f.letterQ.Now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := f.letterQ.Insert(context.Background(), l.ID)
	require.NoError(t, err)
	f.letterQ.Now = nil

	require.NoError(t, f.retry.DrainLetters(context.Background()))

	assert.Equal(t, 1, f.letterQueueSize(t))
	assert.Equal(t, 0, f.roster.PostLetterCalls)
}

// Per-trainee fairness: with 12 entries of one account and 3 of another,
// one pass dispatches ten of the first and all of the second; the two
// over-cap entries stay queued for the next pass.
func TestDrainLettersFairnessCap(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetAccepting(true)
	a := f.addTrainee(t, "heavy")
	b := f.addTrainee(t, "light")
	f.connect(t, a.ID)
	f.connect(t, b.ID)

	var aLetters, bLetters []uint64
	for i := 0; i < 12; i++ {
		l := f.addLetter(t, a.ID, fmt.Sprintf("a%d", i))
		aLetters = append(aLetters, l.ID)
		_, err := f.letterQ.Insert(context.Background(), l.ID)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		l := f.addLetter(t, b.ID, fmt.Sprintf("b%d", i))
		bLetters = append(bLetters, l.ID)
		_, err := f.letterQ.Insert(context.Background(), l.ID)
		require.NoError(t, err)
	}

	require.NoError(t, f.retry.DrainLetters(context.Background()))

	assert.Equal(t, 13, f.roster.PostLetterCalls)
	assert.Equal(t, 2, f.letterQueueSize(t))

	for i, id := range aLetters {
		got, err := f.letters.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, i < 10, got.Posted, "letter a%d", i)
	}
	for i, id := range bLetters {
		got, err := f.letters.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, got.Posted, "letter b%d", i)
	}
}

func TestDrainProfilesResolvesAndCascades(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetMember("12341234", "1111")
	f.roster.SetAccepting(true)
	tr := f.addTrainee(t, "family1")
	stuck := f.addLetter(t, tr.ID, "stuck letter")
	_, err := f.traineeQ.Insert(context.Background(), tr.ID)
	require.NoError(t, err)

	require.NoError(t, f.retry.DrainProfiles(context.Background()))

	updated, err := f.trainees.FindByID(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.True(t, updated.Connected)

	got, err := f.letters.FindByID(context.Background(), stuck.ID)
	require.NoError(t, err)
	assert.True(t, got.Posted)
	assert.Equal(t, 0, f.traineeQueueSize(t))
}

func TestDrainProfilesSkipsConnected(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	tr := f.addTrainee(t, "family1")
	f.connect(t, tr.ID)
	_, err := f.traineeQ.Insert(context.Background(), tr.ID)
	require.NoError(t, err)

	require.NoError(t, f.retry.DrainProfiles(context.Background()))

	assert.Equal(t, 0, f.traineeQueueSize(t))
	assert.Equal(t, 0, f.roster.GetProfileCalls)
}

func TestDrainProfilesServerErrorReenqueues(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training
	f.roster.SetServerDown()
	tr := f.addTrainee(t, "family1")
	_, err := f.traineeQ.Insert(context.Background(), tr.ID)
	require.NoError(t, err)

	require.NoError(t, f.retry.DrainProfiles(context.Background()))

	assert.Equal(t, 1, f.traineeQueueSize(t))
	assert.Equal(t, 1, f.roster.GetProfileCalls)
}

// A NotFound while the trainee is still in the program is worth retrying.
func TestDrainProfilesNotFoundDuringTrainingReenqueues(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Training // roster knows nobody
	tr := f.addTrainee(t, "family1")
	_, err := f.traineeQ.Insert(context.Background(), tr.ID)
	require.NoError(t, err)

	require.NoError(t, f.retry.DrainProfiles(context.Background()))

	assert.Equal(t, 1, f.traineeQueueSize(t))
}

// A NotFound after completion is permanent: the entry is dropped, not
// re-enqueued.
func TestDrainProfilesNotFoundAfterCompletionDrops(t *testing.T) {
	f := newFixture()
	f.phases[testCohort] = window.Working // roster knows nobody
	tr := f.addTrainee(t, "family1")
	_, err := f.traineeQ.Insert(context.Background(), tr.ID)
	require.NoError(t, err)

	require.NoError(t, f.retry.DrainProfiles(context.Background()))

	assert.Equal(t, 0, f.traineeQueueSize(t))
	assert.Equal(t, 1, f.roster.GetProfileCalls)
}
