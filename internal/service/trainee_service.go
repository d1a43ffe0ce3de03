package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/roster"
	"github.com/yuchankim/trainmail/internal/window"
)

// TraineeService owns account registration and profile resolution. The
// resolver itself only classifies and persists; what to do with a non-final
// outcome (enqueue, drop, cascade) belongs to each caller, so the register
// path and the retry drain can apply different policies.
type TraineeService struct {
	trainees   repository.TraineeRepo
	queue      repository.TraineeQueue
	roster     roster.Client
	phases     window.PhaseProvider
	mail       *MailService
	bcryptCost int
}

func NewTraineeService(
	trainees repository.TraineeRepo,
	queue repository.TraineeQueue,
	rosterClient roster.Client,
	phases window.PhaseProvider,
	mail *MailService,
	bcryptCost int,
) *TraineeService {
	return &TraineeService{
		trainees:   trainees,
		queue:      queue,
		roster:     rosterClient,
		phases:     phases,
		mail:       mail,
		bcryptCost: bcryptCost,
	}
}

// Register creates the account and immediately tries to resolve its routing
// identifiers. Any outcome short of Resolved lands the trainee on the retry
// queue; later drain passes keep trying during the program.
func (s *TraineeService) Register(ctx context.Context, t repository.NewTrainee) (uint64, error) {
	if _, err := s.trainees.FindByUsername(ctx, t.Username); err == nil {
		return 0, repository.ErrUsernameExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return 0, err
	}

	trainee, err := s.trainees.Create(ctx, t, s.bcryptCost)
	if err != nil {
		return 0, err
	}

	out, err := s.syncProfile(ctx, trainee.ID)
	if err != nil {
		return 0, err
	}
	log.Printf("Register: %s (%d) | %s", trainee.Username, trainee.ID, out)
	return trainee.ID, nil
}

// ResolveProfile performs one resolution attempt: phase gate, roster lookup,
// then persisting the identifiers on a match. No enqueueing happens here.
func (s *TraineeService) ResolveProfile(ctx context.Context, traineeID uint64) (ResolveOutcome, error) {
	trainee, err := s.trainees.FindByID(ctx, traineeID)
	if err != nil {
		return 0, fmt.Errorf("load trainee %d: %w", traineeID, err)
	}

	phase, err := s.phases.Phase(trainee.Cohort)
	if err != nil {
		return 0, fmt.Errorf("phase of cohort %d: %w", trainee.Cohort, err)
	}
	if phase == window.Before || phase == window.Beginning {
		return ResolveTooEarly, nil
	}

	profile, err := s.roster.GetProfile(ctx, trainee.Name, trainee.Birth)
	if err != nil {
		return 0, fmt.Errorf("roster lookup for trainee %d: %w", traineeID, err)
	}
	if !profile.ServerOn {
		return ResolveServerError, nil
	}
	if profile.Member == nil {
		return ResolveNotFound, nil
	}

	if err := s.trainees.UpdateRouting(ctx, traineeID, profile.Member.MemberCode, profile.Member.UnitCode); err != nil {
		return 0, fmt.Errorf("store routing of trainee %d: %w", traineeID, err)
	}
	return ResolveDone, nil
}

// syncProfile is the register/edit policy around ResolveProfile: enqueue on
// anything but Resolved, cascade into the letter backlog on Resolved.
func (s *TraineeService) syncProfile(ctx context.Context, traineeID uint64) (ResolveOutcome, error) {
	out, err := s.ResolveProfile(ctx, traineeID)
	if err != nil {
		return out, err
	}
	if out == ResolveDone {
		if err := s.mail.FlushUnsent(ctx, traineeID); err != nil {
			return out, err
		}
		return out, nil
	}
	if _, err := s.queue.Insert(ctx, traineeID); err != nil {
		return out, fmt.Errorf("enqueue trainee %d: %w", traineeID, err)
	}
	return out, nil
}

// EditProfile applies the edit and, while the letter window is open,
// re-triggers resolution so a corrected name or birth date can connect the
// account. Outside the window only the stored fields change.
func (s *TraineeService) EditProfile(ctx context.Context, traineeID uint64, edit repository.ProfileEdit) error {
	if err := s.trainees.UpdateProfile(ctx, traineeID, edit); err != nil {
		return err
	}

	trainee, err := s.trainees.FindByID(ctx, traineeID)
	if err != nil {
		return err
	}
	phase, err := s.phases.Phase(trainee.Cohort)
	if err != nil {
		return fmt.Errorf("phase of cohort %d: %w", trainee.Cohort, err)
	}
	if phase != window.Training {
		log.Printf("EditProfile: %d | NotTrainTime", traineeID)
		return nil
	}

	out, err := s.syncProfile(ctx, traineeID)
	if err != nil {
		return err
	}
	log.Printf("EditProfile: %d | %s", traineeID, out)
	return nil
}

// EditPassword replaces the account password.
func (s *TraineeService) EditPassword(ctx context.Context, traineeID uint64, password string) error {
	if err := s.trainees.UpdatePassword(ctx, traineeID, password, s.bcryptCost); err != nil {
		return err
	}
	log.Printf("EditPassword: %d", traineeID)
	return nil
}
