package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/yuchankim/trainmail/internal/model"
	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/roster"
	"github.com/yuchankim/trainmail/internal/window"

	"github.com/stretchr/testify/require"
)

const testCohort = 850

// fixture wires the coordinators against in-memory stores, a scripted
// roster client and a fixed phase provider.
type fixture struct {
	trainees *repository.MemoryTraineeRepo
	letters  *repository.MemoryLetterRepo
	letterQ  *repository.MemoryLetterQueue
	traineeQ *repository.MemoryTraineeQueue
	roster   *roster.MockClient
	phases   window.FixedProvider

	mail     *MailService
	accounts *TraineeService
	retry    *RetryService
}

func newFixture() *fixture {
	f := &fixture{
		trainees: repository.NewMemoryTraineeRepo(),
		roster:   roster.NewMockClient(),
		phases:   window.FixedProvider{},
	}
	f.letters = repository.NewMemoryLetterRepo(f.trainees)
	f.letterQ = repository.NewMemoryLetterQueue(f.letters)
	f.traineeQ = repository.NewMemoryTraineeQueue(f.trainees)

	f.mail = NewMailService(f.letters, f.trainees, f.letterQ, f.roster, f.phases, nil)
	f.accounts = NewTraineeService(f.trainees, f.traineeQ, f.roster, f.phases, f.mail, bcrypt.MinCost)
	f.retry = NewRetryService(f.letterQ, f.traineeQ, f.mail, f.accounts, f.phases)
	return f
}

// addTrainee creates an account directly through the store, bypassing the
// registration side effects.
func (f *fixture) addTrainee(t *testing.T, username string) model.Trainee {
	t.Helper()
	tr, err := f.trainees.Create(context.Background(), repository.NewTrainee{
		Username: username,
		Password: "password123",
		Name:     "Hong Gildong",
		Birth:    "20010101",
		Cohort:   testCohort,
		Message:  "hang in there",
	}, bcrypt.MinCost)
	require.NoError(t, err)
	return tr
}

// connect stores routing identifiers for the trainee.
func (f *fixture) connect(t *testing.T, traineeID uint64) {
	t.Helper()
	require.NoError(t, f.trainees.UpdateRouting(context.Background(), traineeID, "12341234", "1111"))
}

// addLetter authors a letter for the trainee without attempting delivery.
func (f *fixture) addLetter(t *testing.T, traineeID uint64, title string) model.Letter {
	t.Helper()
	l, err := f.letters.Create(context.Background(), repository.NewLetter{
		TraineeID:    traineeID,
		SenderName:   "Yuchan",
		Relationship: "friend",
		Title:        title,
		Contents:     "hello from home",
		Password:     "0000",
		IsPublic:     true,
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) letterQueueSize(t *testing.T) int {
	t.Helper()
	n, err := f.letterQ.Size(context.Background())
	require.NoError(t, err)
	return n
}

func (f *fixture) traineeQueueSize(t *testing.T) int {
	t.Helper()
	n, err := f.traineeQ.Size(context.Background())
	require.NoError(t, err)
	return n
}
