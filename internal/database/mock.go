package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockInterviewRepository struct {
	mock.Mock
}

func (m *MockInterviewRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockInterviewRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockInterviewRepository) GetAccountById(ctx context.Context, id string) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockInterviewRepository) CreateInterview(ctx context.Context, params CreateInterviewParams) (Interview, bool, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Interview), args.Bool(1), args.Error(2)
}
func (m *MockInterviewRepository) GetInterview(ctx context.Context, interviewID string) (Interview, error) {
	args := m.Called(ctx, interviewID)
	return args.Get(0).(Interview), args.Error(1)
}
func (m *MockInterviewRepository) ListInterviews(ctx context.Context, userId string) ([]Interview, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Interview), args.Error(1)
}
func (m *MockInterviewRepository) UpdateInterview(ctx context.Context, interviewID string, params UpdateInterviewParams) (Interview, error) {
	args := m.Called(ctx, interviewID, params)
	return args.Get(0).(Interview), args.Error(1)
}
func (m *MockInterviewRepository) AssignParticipant(ctx context.Context, params AssignParticipantParams) (Interview, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Interview), args.Error(1)
}
func (m *MockInterviewRepository) AppendSessionLog(ctx context.Context, interviewID string, entry SessionLog) (Interview, error) {
	args := m.Called(ctx, interviewID, entry)
	return args.Get(0).(Interview), args.Error(1)
}
func (m *MockInterviewRepository) UpdateCodeSnapshot(ctx context.Context, interviewID, code string) (Interview, error) {
	args := m.Called(ctx, interviewID, code)
	return args.Get(0).(Interview), args.Error(1)
}
func (m *MockInterviewRepository) SaveFinalQuestions(ctx context.Context, interviewID string, questions []any) (Interview, error) {
	args := m.Called(ctx, interviewID, questions)
	return args.Get(0).(Interview), args.Error(1)
}
