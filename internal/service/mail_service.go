package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yuchankim/trainmail/internal/events"
	"github.com/yuchankim/trainmail/internal/model"
	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/roster"
	"github.com/yuchankim/trainmail/internal/window"
)

// maxFlushPerCall bounds how many delivery attempts one flush may fire at
// the roster service; the rest of the backlog goes straight to the queue.
const maxFlushPerCall = 10

// MailService coordinates letter delivery: it consults the phase provider,
// conditionally calls the roster service, and classifies the result. All
// collaborators are injected; the service owns no state of its own.
type MailService struct {
	letters  repository.LetterRepo
	trainees repository.TraineeRepo
	queue    repository.LetterQueue
	roster   roster.Client
	phases   window.PhaseProvider
	events   events.Publisher // optional
	now      func() time.Time
}

func NewMailService(
	letters repository.LetterRepo,
	trainees repository.TraineeRepo,
	queue repository.LetterQueue,
	rosterClient roster.Client,
	phases window.PhaseProvider,
	publisher events.Publisher,
) *MailService {
	return &MailService{
		letters:  letters,
		trainees: trainees,
		queue:    queue,
		roster:   rosterClient,
		phases:   phases,
		events:   publisher,
		now:      time.Now,
	}
}

// SendLetter is the authoring path: persist the letter, then try an
// immediate delivery if the owner's routing identifiers are already known.
// Without them the letter waits for the resolution cascade.
func (s *MailService) SendLetter(ctx context.Context, traineeID uint64, l repository.NewLetter) (uint64, error) {
	trainee, err := s.trainees.FindByID(ctx, traineeID)
	if err != nil {
		return 0, fmt.Errorf("load trainee %d: %w", traineeID, err)
	}
	l.TraineeID = traineeID
	letter, err := s.letters.Create(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("store letter: %w", err)
	}

	if trainee.Connected {
		out, err := s.AttemptSendWithRetry(ctx, letter.ID)
		if err != nil {
			return 0, err
		}
		log.Printf("SendLetter: (%d) | %s", letter.ID, out)
	} else {
		log.Printf("SendLetter: (%d) | NotConnected", letter.ID)
	}
	return letter.ID, nil
}

// AttemptSend classifies and, when the window is open, performs one delivery
// attempt. It never touches the retry queue. Re-invoking it on an already
// posted letter is a no-op Success.
func (s *MailService) AttemptSend(ctx context.Context, letterID uint64) (SendOutcome, error) {
	letter, trainee, err := s.letters.FindByIDWithTrainee(ctx, letterID)
	if err != nil {
		return 0, fmt.Errorf("load letter %d: %w", letterID, err)
	}
	if letter.Posted {
		return SendSuccess, nil
	}

	phase, err := s.phases.Phase(trainee.Cohort)
	if err != nil {
		return 0, fmt.Errorf("phase of cohort %d: %w", trainee.Cohort, err)
	}

	switch phase {
	case window.Before, window.Beginning:
		return SendTooEarly, nil

	case window.Training:
		if trainee.MemberCode == nil || trainee.UnitCode == nil {
			return SendProfileMissing, nil
		}
		result, err := s.roster.PostLetter(ctx, roster.LetterPayload{
			SenderName:   letter.SenderName,
			Relationship: letter.Relationship,
			Title:        letter.Title,
			Contents:     letter.Contents,
			Password:     letter.Password,
			MemberCode:   *trainee.MemberCode,
			UnitCode:     *trainee.UnitCode,
		}, letter.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("submit letter %d: %w", letterID, err)
		}
		if !result.ServerOn {
			return SendServerError, nil
		}
		if !result.Accepted {
			return SendRejected, nil
		}
		postedAt := s.now()
		if err := s.letters.MarkPosted(ctx, letterID, postedAt); err != nil {
			return 0, fmt.Errorf("mark letter %d posted: %w", letterID, err)
		}
		s.publishPosted(ctx, letter, trainee, postedAt)
		return SendSuccess, nil

	default:
		// Ending, Working, Discharged: the window has definitively closed.
		// Delivery is waived rather than retried forever.
		if err := s.letters.MarkPosted(ctx, letterID, s.now()); err != nil {
			return 0, fmt.Errorf("mark letter %d posted: %w", letterID, err)
		}
		return SendSuccess, nil
	}
}

// AttemptSendWithRetry calls AttemptSend and enqueues the letter for a later
// drain pass when the roster was down or declined. TooEarly and
// ProfileMissing deliberately do not enqueue: those letters resurface only
// through an explicit re-scan or the resolution cascade.
func (s *MailService) AttemptSendWithRetry(ctx context.Context, letterID uint64) (SendOutcome, error) {
	out, err := s.AttemptSend(ctx, letterID)
	if err != nil {
		return out, err
	}
	if out == SendServerError || out == SendRejected {
		if _, err := s.queue.Insert(ctx, letterID); err != nil {
			return out, fmt.Errorf("enqueue letter %d: %w", letterID, err)
		}
	}
	return out, nil
}

// FlushUnsent re-attempts a trainee's unsent letters in creation order. Only
// the first maxFlushPerCall get a live attempt; the remainder is enqueued
// untried so a long backlog cannot burst against the roster service.
func (s *MailService) FlushUnsent(ctx context.Context, traineeID uint64) error {
	letters, err := s.letters.FindUnpostedByTrainee(ctx, traineeID)
	if err != nil {
		return fmt.Errorf("load unsent letters of trainee %d: %w", traineeID, err)
	}
	for i, letter := range letters {
		if i < maxFlushPerCall {
			out, err := s.AttemptSendWithRetry(ctx, letter.ID)
			if err != nil {
				return err
			}
			log.Printf("FlushUnsent: (%d) | %s", letter.ID, out)
		} else {
			if _, err := s.queue.Insert(ctx, letter.ID); err != nil {
				return fmt.Errorf("enqueue letter %d: %w", letter.ID, err)
			}
			log.Printf("FlushUnsent: (%d) | Limit", letter.ID)
		}
	}
	return nil
}

// publishPosted emits the letter.posted event. Best effort: the publisher
// already logged any failure and the posted state is durable regardless.
func (s *MailService) publishPosted(ctx context.Context, letter model.Letter, trainee model.Trainee, postedAt time.Time) {
	if s.events == nil {
		return
	}
	_ = s.events.LetterPosted(ctx, events.LetterPostedEvent{
		LetterID:   letter.ID,
		TraineeID:  trainee.ID,
		Username:   trainee.Username,
		Cohort:     trainee.Cohort,
		Title:      letter.Title,
		PostedAt:   postedAt.UTC().Format(time.RFC3339),
		MemberCode: *trainee.MemberCode,
		UnitCode:   *trainee.UnitCode,
	})
}
