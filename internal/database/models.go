package database

import "time"

type User struct {
	Id       string
	Username string
}

type SessionLog struct {
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	Action    string         `json:"action" bson:"action"`
	UserName  string         `json:"userName" bson:"userName"`
	Details   map[string]any `json:"details" bson:"details"`
}

type Interview struct {
	Id                string
	InterviewID       string
	TypeOfInterview   string
	NumberOfQuestions string
	LevelOfQuestions  string
	Questions         []string
	IdOfHost          string
	Hostname          string
	IdOfParticipant   string
	Candidatename     string
	StartTime         *time.Time
	EndTime           *time.Time
	ArchivedAt        *time.Time
	SessionLogs       []SessionLog
	CodeSnapshot      string
	FinalQuestions    []any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateInterviewParams struct {
	InterviewID       string
	TypeOfInterview   string
	NumberOfQuestions string
	LevelOfQuestions  string
	Questions         []string
	IdOfHost          string
	Hostname          string
	IdOfParticipant   string
	Candidatename     string
	StartTime         *time.Time
}

// UpdateInterviewParams only touches the fields that are non-nil.
type UpdateInterviewParams struct {
	TypeOfInterview   *string
	NumberOfQuestions *string
	LevelOfQuestions  *string
	StartTime         *time.Time
	EndTime           *time.Time
}

type AssignParticipantParams struct {
	InterviewID      string
	ParticipantId    string
	Candidatename    string
	RejectIfArchived bool
}
