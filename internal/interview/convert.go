package interview

import (
	"github.com/npezzotti/go-interview/internal/database"
	"github.com/npezzotti/go-interview/internal/types"
)

// StateOf derives the lifecycle state from the recorded timestamps.
func StateOf(iv database.Interview) types.InterviewState {
	switch {
	case iv.EndTime != nil:
		return types.StateArchived
	case iv.StartTime != nil:
		return types.StateActive
	default:
		return types.StateScheduled
	}
}

func ToInterview(iv database.Interview) types.Interview {
	out := types.Interview{
		Id:                iv.Id,
		InterviewID:       iv.InterviewID,
		State:             StateOf(iv),
		TypeOfInterview:   iv.TypeOfInterview,
		NumberOfQuestions: iv.NumberOfQuestions,
		LevelOfQuestions:  iv.LevelOfQuestions,
		Questions:         iv.Questions,
		IdOfHost:          iv.IdOfHost,
		Hostname:          iv.Hostname,
		IdOfParticipant:   iv.IdOfParticipant,
		Candidatename:     iv.Candidatename,
		StartTime:         iv.StartTime,
		EndTime:           iv.EndTime,
		ArchivedAt:        iv.ArchivedAt,
		SessionLogs:       make([]types.SessionLogEntry, 0, len(iv.SessionLogs)),
		CodeSnapshot:      iv.CodeSnapshot,
		FinalQuestions:    iv.FinalQuestions,
		CreatedAt:         iv.CreatedAt,
		UpdatedAt:         iv.UpdatedAt,
	}
	if out.Questions == nil {
		out.Questions = make([]string, 0)
	}
	if out.FinalQuestions == nil {
		out.FinalQuestions = make([]any, 0)
	}

	for _, l := range iv.SessionLogs {
		details := types.Details(l.Details)
		if details == nil {
			details = types.Details{}
		}
		out.SessionLogs = append(out.SessionLogs, types.SessionLogEntry{
			Timestamp: l.Timestamp,
			Action:    l.Action,
			UserName:  l.UserName,
			Details:   details,
		})
	}

	return out
}

func ToInterviews(ivs []database.Interview) []types.Interview {
	out := make([]types.Interview, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, ToInterview(iv))
	}
	return out
}
