package types

import (
	"time"
)

type User struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

// Details is the free-form payload attached to a session log entry.
type Details map[string]any

type SessionLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	UserName  string    `json:"userName"`
	Details   Details   `json:"details"`
}

type InterviewState string

const (
	StateScheduled InterviewState = "SCHEDULED"
	StateActive    InterviewState = "ACTIVE"
	StateArchived  InterviewState = "ARCHIVED"
)

type Interview struct {
	Id                string            `json:"id"`
	InterviewID       string            `json:"interviewID"`
	State             InterviewState    `json:"state"`
	TypeOfInterview   string            `json:"typeOfInterview,omitempty"`
	NumberOfQuestions string            `json:"numberOfQuestions,omitempty"`
	LevelOfQuestions  string            `json:"levelOfQuestions,omitempty"`
	Questions         []string          `json:"questions"`
	IdOfHost          string            `json:"idOfHost"`
	Hostname          string            `json:"hostname,omitempty"`
	IdOfParticipant   string            `json:"idOfParticipant,omitempty"`
	Candidatename     string            `json:"candidatename,omitempty"`
	StartTime         *time.Time        `json:"startTime,omitempty"`
	EndTime           *time.Time        `json:"endTime,omitempty"`
	ArchivedAt        *time.Time        `json:"archivedAt,omitempty"`
	SessionLogs       []SessionLogEntry `json:"sessionLogs"`
	CodeSnapshot      string            `json:"codeSnapshot"`
	FinalQuestions    []any             `json:"finalQuestions"`
	CreatedAt         time.Time         `json:"createdAt,omitempty"`
	UpdatedAt         time.Time         `json:"updatedAt,omitempty"`
}
