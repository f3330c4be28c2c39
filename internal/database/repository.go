package database

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("participant already assigned")
	ErrArchived = errors.New("interview is archived")
)

type InterviewRepository interface {
	Ping(ctx context.Context) error
	Close() error
	GetAccountById(ctx context.Context, id string) (User, error)
	CreateInterview(ctx context.Context, params CreateInterviewParams) (Interview, bool, error)
	GetInterview(ctx context.Context, interviewID string) (Interview, error)
	ListInterviews(ctx context.Context, userId string) ([]Interview, error)
	UpdateInterview(ctx context.Context, interviewID string, params UpdateInterviewParams) (Interview, error)
	AssignParticipant(ctx context.Context, params AssignParticipantParams) (Interview, error)
	AppendSessionLog(ctx context.Context, interviewID string, entry SessionLog) (Interview, error)
	UpdateCodeSnapshot(ctx context.Context, interviewID, code string) (Interview, error)
	SaveFinalQuestions(ctx context.Context, interviewID string, questions []any) (Interview, error)
}

// resolveAssignMiss explains why a conditional participant assignment
// matched no record, given the record as it is now.
func resolveAssignMiss(existing Interview, params AssignParticipantParams) (Interview, error) {
	if existing.IdOfParticipant == params.ParticipantId {
		return existing, nil
	}
	if params.RejectIfArchived && existing.ArchivedAt != nil {
		return Interview{}, ErrArchived
	}

	return Interview{}, ErrConflict
}
