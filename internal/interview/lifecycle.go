package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npezzotti/go-interview/internal/database"
	"github.com/npezzotti/go-interview/internal/types"
	"github.com/rs/zerolog"
)

const DefaultLevel = "EASY"

var ErrInvalidInput = errors.New("invalid input")

type CreateRequest struct {
	InterviewID       string     `json:"interviewID"`
	TypeOfInterview   string     `json:"typeOfInterview"`
	NumberOfQuestions string     `json:"numberOfQuestions"`
	LevelOfQuestions  string     `json:"levelOfQuestions"`
	Questions         []string   `json:"questions"`
	Hostname          string     `json:"hostname"`
	StartTime         *time.Time `json:"startTime"`
}

type UpdateRequest struct {
	TypeOfInterview   *string    `json:"typeOfInterview"`
	NumberOfQuestions *string    `json:"numberOfQuestions"`
	LevelOfQuestions  *string    `json:"levelOfQuestions"`
	StartTime         *time.Time `json:"startTime"`
	EndTime           *time.Time `json:"endTime"`
}

type Service struct {
	repo               database.InterviewRepository
	log                zerolog.Logger
	rejectAfterArchive bool
	now                func() time.Time
	newID              func(time.Time) (string, error)
}

func NewService(repo database.InterviewRepository, logger zerolog.Logger, rejectAfterArchive bool) *Service {
	return &Service{
		repo:               repo,
		log:                logger.With().Str("component", "lifecycle").Logger(),
		rejectAfterArchive: rejectAfterArchive,
		now:                func() time.Time { return time.Now().UTC() },
		newID:              NewInterviewID,
	}
}

// Create stores a new interview hosted by host. An interviewID that is
// already taken yields the stored record and created=false.
func (s *Service) Create(ctx context.Context, host types.User, req CreateRequest) (types.Interview, bool, error) {
	if host.Id == "" {
		return types.Interview{}, false, fmt.Errorf("%w: host is required", ErrInvalidInput)
	}

	now := s.now()
	interviewID := req.InterviewID
	if interviewID == "" {
		id, err := s.newID(now)
		if err != nil {
			return types.Interview{}, false, err
		}
		interviewID = id
	}

	level := req.LevelOfQuestions
	if level == "" {
		level = DefaultLevel
	}

	hostname := req.Hostname
	if hostname == "" {
		hostname = host.Username
	}

	startTime := req.StartTime
	if startTime == nil {
		startTime = &now
	}

	iv, created, err := s.repo.CreateInterview(ctx, database.CreateInterviewParams{
		InterviewID:       interviewID,
		TypeOfInterview:   req.TypeOfInterview,
		NumberOfQuestions: req.NumberOfQuestions,
		LevelOfQuestions:  level,
		Questions:         req.Questions,
		IdOfHost:          host.Id,
		Hostname:          hostname,
		StartTime:         startTime,
	})
	if err != nil {
		return types.Interview{}, false, fmt.Errorf("create interview: %w", err)
	}

	if created {
		s.log.Info().Str("interview_id", iv.InterviewID).Str("host", host.Id).Msg("interview created")
	} else {
		s.log.Debug().Str("interview_id", iv.InterviewID).Msg("interview already exists")
	}

	return ToInterview(iv), created, nil
}

// CreateFromRequest creates the interview that results from host accepting
// candidateId's interview request.
func (s *Service) CreateFromRequest(ctx context.Context, host types.User, candidateId string) (types.Interview, error) {
	if candidateId == "" {
		return types.Interview{}, fmt.Errorf("%w: candidateId is required", ErrInvalidInput)
	}
	if candidateId == host.Id {
		return types.Interview{}, fmt.Errorf("%w: cannot accept your own request", ErrInvalidInput)
	}

	candidate, err := s.repo.GetAccountById(ctx, candidateId)
	if err != nil {
		return types.Interview{}, fmt.Errorf("lookup candidate: %w", err)
	}

	now := s.now()
	interviewID, err := s.newID(now)
	if err != nil {
		return types.Interview{}, err
	}

	iv, _, err := s.repo.CreateInterview(ctx, database.CreateInterviewParams{
		InterviewID:      interviewID,
		LevelOfQuestions: DefaultLevel,
		IdOfHost:         host.Id,
		Hostname:         host.Username,
		IdOfParticipant:  candidate.Id,
		Candidatename:    candidate.Username,
		StartTime:        &now,
	})
	if err != nil {
		return types.Interview{}, fmt.Errorf("create interview: %w", err)
	}

	s.log.Info().
		Str("interview_id", iv.InterviewID).
		Str("host", host.Id).
		Str("participant", candidate.Id).
		Msg("interview request accepted")

	return ToInterview(iv), nil
}

// JoinAsParticipant claims the participant slot for user. Re-joining as the
// same user is a no-op.
func (s *Service) JoinAsParticipant(ctx context.Context, interviewID string, user types.User) (types.Interview, error) {
	if interviewID == "" || user.Id == "" {
		return types.Interview{}, fmt.Errorf("%w: interviewID and user are required", ErrInvalidInput)
	}

	iv, err := s.repo.AssignParticipant(ctx, database.AssignParticipantParams{
		InterviewID:      interviewID,
		ParticipantId:    user.Id,
		Candidatename:    user.Username,
		RejectIfArchived: s.rejectAfterArchive,
	})
	if err != nil {
		return types.Interview{}, err
	}

	s.log.Info().Str("interview_id", interviewID).Str("participant", user.Id).Msg("participant joined")

	return ToInterview(iv), nil
}

// Update applies the supplied fields. Supplying endTime archives the
// interview; the first archival time is kept.
func (s *Service) Update(ctx context.Context, interviewID string, req UpdateRequest) (types.Interview, error) {
	if interviewID == "" {
		return types.Interview{}, fmt.Errorf("%w: interviewID is required", ErrInvalidInput)
	}
	if req.StartTime != nil && req.EndTime != nil && req.EndTime.Before(*req.StartTime) {
		return types.Interview{}, fmt.Errorf("%w: endTime is before startTime", ErrInvalidInput)
	}

	iv, err := s.repo.UpdateInterview(ctx, interviewID, database.UpdateInterviewParams{
		TypeOfInterview:   req.TypeOfInterview,
		NumberOfQuestions: req.NumberOfQuestions,
		LevelOfQuestions:  req.LevelOfQuestions,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
	})
	if err != nil {
		return types.Interview{}, err
	}

	if req.EndTime != nil {
		s.log.Info().Str("interview_id", interviewID).Msg("interview archived")
	}

	return ToInterview(iv), nil
}

func (s *Service) Get(ctx context.Context, interviewID string) (types.Interview, error) {
	iv, err := s.repo.GetInterview(ctx, interviewID)
	if err != nil {
		return types.Interview{}, err
	}

	return ToInterview(iv), nil
}

func (s *Service) List(ctx context.Context, userId string) ([]types.Interview, error) {
	ivs, err := s.repo.ListInterviews(ctx, userId)
	if err != nil {
		return nil, err
	}

	return ToInterviews(ivs), nil
}
