package database

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemInterviewRepository keeps interviews in process memory. It backs the
// "memory" DSN and the package tests.
type MemInterviewRepository struct {
	mu         sync.Mutex
	nextId     int
	accounts   map[string]User
	interviews map[string]*Interview
	now        func() time.Time
}

func NewMemInterviewRepository() *MemInterviewRepository {
	return &MemInterviewRepository{
		accounts:   make(map[string]User),
		interviews: make(map[string]*Interview),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddAccount seeds the account directory.
func (m *MemInterviewRepository) AddAccount(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[u.Id] = u
}

func (m *MemInterviewRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemInterviewRepository) Close() error {
	return nil
}

func (m *MemInterviewRepository) GetAccountById(ctx context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.accounts[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemInterviewRepository) CreateInterview(ctx context.Context, params CreateInterviewParams) (Interview, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.interviews[params.InterviewID]; ok {
		return copyInterview(existing), false, nil
	}

	m.nextId++
	now := m.now()
	iv := &Interview{
		Id:                strconv.Itoa(m.nextId),
		InterviewID:       params.InterviewID,
		TypeOfInterview:   params.TypeOfInterview,
		NumberOfQuestions: params.NumberOfQuestions,
		LevelOfQuestions:  params.LevelOfQuestions,
		Questions:         append(make([]string, 0, len(params.Questions)), params.Questions...),
		IdOfHost:          params.IdOfHost,
		Hostname:          params.Hostname,
		IdOfParticipant:   params.IdOfParticipant,
		Candidatename:     params.Candidatename,
		StartTime:         copyTime(params.StartTime),
		SessionLogs:       make([]SessionLog, 0),
		FinalQuestions:    make([]any, 0),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.interviews[iv.InterviewID] = iv

	return copyInterview(iv), true, nil
}

func (m *MemInterviewRepository) GetInterview(ctx context.Context, interviewID string) (Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv, ok := m.interviews[interviewID]
	if !ok {
		return Interview{}, ErrNotFound
	}
	return copyInterview(iv), nil
}

func (m *MemInterviewRepository) ListInterviews(ctx context.Context, userId string) ([]Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	interviews := make([]Interview, 0)
	for _, iv := range m.interviews {
		if iv.IdOfHost == userId || (iv.IdOfParticipant != "" && iv.IdOfParticipant == userId) {
			interviews = append(interviews, copyInterview(iv))
		}
	}

	sort.Slice(interviews, func(i, j int) bool {
		if interviews[i].CreatedAt.Equal(interviews[j].CreatedAt) {
			a, _ := strconv.Atoi(interviews[i].Id)
			b, _ := strconv.Atoi(interviews[j].Id)
			return a > b
		}
		return interviews[i].CreatedAt.After(interviews[j].CreatedAt)
	})

	return interviews, nil
}

func (m *MemInterviewRepository) UpdateInterview(ctx context.Context, interviewID string, params UpdateInterviewParams) (Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv, ok := m.interviews[interviewID]
	if !ok {
		return Interview{}, ErrNotFound
	}

	now := m.now()
	if params.TypeOfInterview != nil {
		iv.TypeOfInterview = *params.TypeOfInterview
	}
	if params.NumberOfQuestions != nil {
		iv.NumberOfQuestions = *params.NumberOfQuestions
	}
	if params.LevelOfQuestions != nil {
		iv.LevelOfQuestions = *params.LevelOfQuestions
	}
	if params.StartTime != nil {
		iv.StartTime = copyTime(params.StartTime)
	}
	if params.EndTime != nil {
		iv.EndTime = copyTime(params.EndTime)
		if iv.ArchivedAt == nil {
			iv.ArchivedAt = &now
		}
	}
	iv.UpdatedAt = now

	return copyInterview(iv), nil
}

func (m *MemInterviewRepository) AssignParticipant(ctx context.Context, params AssignParticipantParams) (Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv, ok := m.interviews[params.InterviewID]
	if !ok {
		return Interview{}, ErrNotFound
	}

	if iv.IdOfParticipant != "" || (params.RejectIfArchived && iv.ArchivedAt != nil) {
		return resolveAssignMiss(copyInterview(iv), params)
	}

	iv.IdOfParticipant = params.ParticipantId
	if params.Candidatename != "" {
		iv.Candidatename = params.Candidatename
	}
	iv.UpdatedAt = m.now()

	return copyInterview(iv), nil
}

func (m *MemInterviewRepository) AppendSessionLog(ctx context.Context, interviewID string, entry SessionLog) (Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv, ok := m.interviews[interviewID]
	if !ok {
		return Interview{}, ErrNotFound
	}

	entry.Details = copyDetails(entry.Details)
	iv.SessionLogs = append(iv.SessionLogs, entry)
	iv.UpdatedAt = m.now()

	return copyInterview(iv), nil
}

func (m *MemInterviewRepository) UpdateCodeSnapshot(ctx context.Context, interviewID, code string) (Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv, ok := m.interviews[interviewID]
	if !ok {
		return Interview{}, ErrNotFound
	}

	iv.CodeSnapshot = code
	iv.UpdatedAt = m.now()

	return copyInterview(iv), nil
}

func (m *MemInterviewRepository) SaveFinalQuestions(ctx context.Context, interviewID string, questions []any) (Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iv, ok := m.interviews[interviewID]
	if !ok {
		return Interview{}, ErrNotFound
	}

	iv.FinalQuestions = append(make([]any, 0, len(questions)), questions...)
	iv.UpdatedAt = m.now()

	return copyInterview(iv), nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyDetails(d map[string]any) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func copyInterview(iv *Interview) Interview {
	out := *iv
	out.Questions = append(make([]string, 0, len(iv.Questions)), iv.Questions...)
	out.FinalQuestions = append(make([]any, 0, len(iv.FinalQuestions)), iv.FinalQuestions...)
	out.SessionLogs = make([]SessionLog, len(iv.SessionLogs))
	for i, l := range iv.SessionLogs {
		l.Details = copyDetails(l.Details)
		out.SessionLogs[i] = l
	}
	out.StartTime = copyTime(iv.StartTime)
	out.EndTime = copyTime(iv.EndTime)
	out.ArchivedAt = copyTime(iv.ArchivedAt)
	return out
}
