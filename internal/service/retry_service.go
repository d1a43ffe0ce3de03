package service

import (
	"context"
	"log"
	"time"

	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/window"
)

// maxPerTrainee caps how many queue entries of one trainee a single drain
// pass may dispatch, so one heavy account cannot starve the rest of the
// queue within a pass. Entries over the cap move to the next pass.
const maxPerTrainee = 10

// RetryService drains the two durable queues. Both passes share the same
// shape: snapshot a cutoff timestamp, walk the queue head by head, dispatch
// or defer, and always pop. Entries inserted during the pass carry later
// timestamps and terminate the loop. Exactly one pass per queue is expected
// to run at a time; the scheduler owns that guarantee.
type RetryService struct {
	letterQueue  repository.LetterQueue
	traineeQueue repository.TraineeQueue
	mail         *MailService
	trainees     *TraineeService
	phases       window.PhaseProvider
	now          func() time.Time
}

func NewRetryService(
	letterQueue repository.LetterQueue,
	traineeQueue repository.TraineeQueue,
	mail *MailService,
	trainees *TraineeService,
	phases window.PhaseProvider,
) *RetryService {
	return &RetryService{
		letterQueue:  letterQueue,
		traineeQueue: traineeQueue,
		mail:         mail,
		trainees:     trainees,
		phases:       phases,
		now:          time.Now,
	}
}

// DrainLetters runs one pass over the letter-retry queue. A repository or
// queue failure aborts the remainder of the pass; whatever was already
// popped stays processed, the rest stays queued for the next pass.
func (s *RetryService) DrainLetters(ctx context.Context) error {
	cutoff := s.now()
	perTrainee := map[uint64]int{}

	size, err := s.letterQueue.Size(ctx)
	if err != nil {
		return err
	}

	i := 0
	for {
		empty, err := s.letterQueue.Empty(ctx)
		if err != nil {
			log.Printf("DrainLetters: %d/%d | %v", i, size, err)
			return err
		}
		if empty {
			return nil
		}

		head, err := s.letterQueue.FrontWithLetter(ctx)
		if err != nil {
			log.Printf("DrainLetters: %d/%d | %v", i, size, err)
			return err
		}
		// Only entries that existed before the pass began are processed;
		// re-enqueued failures carry later timestamps and stop the loop.
		if head.CreatedAt.After(cutoff) {
			return nil
		}
		i++

		switch {
		case head.Posted:
			log.Printf("DrainLetters: %d/%d (%d) | AlreadyPosted", i, size, head.RefID)
		case perTrainee[head.TraineeID] < maxPerTrainee:
			out, err := s.mail.AttemptSendWithRetry(ctx, head.RefID)
			if err != nil {
				log.Printf("DrainLetters: %d/%d (%d) | %v", i, size, head.RefID, err)
				return err
			}
			log.Printf("DrainLetters: %d/%d (%d) | %s", i, size, head.RefID, out)
		default:
			// Over the per-trainee cap: move the entry to the tail for the
			// next pass instead of dispatching.
			if _, err := s.letterQueue.Insert(ctx, head.RefID); err != nil {
				log.Printf("DrainLetters: %d/%d (%d) | %v", i, size, head.RefID, err)
				return err
			}
			log.Printf("DrainLetters: %d/%d (%d) | Limit", i, size, head.RefID)
		}

		perTrainee[head.TraineeID]++
		if _, err := s.letterQueue.Pop(ctx); err != nil {
			log.Printf("DrainLetters: %d/%d | %v", i, size, err)
			return err
		}
	}
}

// DrainProfiles runs one pass over the profile-retry queue. On a resolution
// it cascades into the trainee's unsent letters; a NotFound after program
// completion drops the entry for good, since a trainee who graduated without
// ever matching the roster will never resolve.
func (s *RetryService) DrainProfiles(ctx context.Context) error {
	cutoff := s.now()
	perTrainee := map[uint64]int{}

	size, err := s.traineeQueue.Size(ctx)
	if err != nil {
		return err
	}

	i := 0
	for {
		empty, err := s.traineeQueue.Empty(ctx)
		if err != nil {
			log.Printf("DrainProfiles: %d/%d | %v", i, size, err)
			return err
		}
		if empty {
			return nil
		}

		head, err := s.traineeQueue.FrontWithTrainee(ctx)
		if err != nil {
			log.Printf("DrainProfiles: %d/%d | %v", i, size, err)
			return err
		}
		if head.CreatedAt.After(cutoff) {
			return nil
		}
		i++

		switch {
		case head.Connected:
			log.Printf("DrainProfiles: %d/%d (%d) | AlreadyConnected", i, size, head.RefID)
		case perTrainee[head.RefID] < maxPerTrainee:
			if err := s.retryResolve(ctx, head); err != nil {
				log.Printf("DrainProfiles: %d/%d (%d) | %v", i, size, head.RefID, err)
				return err
			}
		default:
			if _, err := s.traineeQueue.Insert(ctx, head.RefID); err != nil {
				log.Printf("DrainProfiles: %d/%d (%d) | %v", i, size, head.RefID, err)
				return err
			}
			log.Printf("DrainProfiles: %d/%d (%d) | Limit", i, size, head.RefID)
		}

		perTrainee[head.RefID]++
		if _, err := s.traineeQueue.Pop(ctx); err != nil {
			log.Printf("DrainProfiles: %d/%d | %v", i, size, err)
			return err
		}
	}
}

// retryResolve dispatches one profile entry and applies the drain-side
// enqueue policy to the outcome.
func (s *RetryService) retryResolve(ctx context.Context, head repository.TraineeQueueHead) error {
	out, err := s.trainees.ResolveProfile(ctx, head.RefID)
	if err != nil {
		return err
	}

	switch out {
	case ResolveDone:
		// Fresh routing identifiers unblock letters stuck at
		// ProfileMissing.
		if err := s.mail.FlushUnsent(ctx, head.RefID); err != nil {
			return err
		}
	case ResolveTooEarly, ResolveServerError:
		if _, err := s.traineeQueue.Insert(ctx, head.RefID); err != nil {
			return err
		}
	case ResolveNotFound:
		phase, err := s.phases.Phase(head.Cohort)
		if err != nil {
			return err
		}
		if phase == window.Working || phase == window.Discharged {
			// Graduated without ever matching the roster: permanent
			// failure, entry is dropped.
			log.Printf("DrainProfiles: (%d) | Dropped", head.RefID)
		} else if _, err := s.traineeQueue.Insert(ctx, head.RefID); err != nil {
			return err
		}
	}
	log.Printf("DrainProfiles: (%d) | %s", head.RefID, out)
	return nil
}
