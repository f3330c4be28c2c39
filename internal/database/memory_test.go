package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestInterview(t *testing.T, repo *MemInterviewRepository, interviewID string) Interview {
	t.Helper()
	iv, created, err := repo.CreateInterview(context.Background(), CreateInterviewParams{
		InterviewID:      interviewID,
		LevelOfQuestions: "EASY",
		IdOfHost:         "host-1",
		Hostname:         "alice",
	})
	assert.NoError(t, err, "expected no error creating interview")
	assert.True(t, created, "expected interview to be created")
	return iv
}

func TestMemCreateInterview(t *testing.T) {
	t.Run("creates record with empty collections", func(t *testing.T) {
		repo := NewMemInterviewRepository()
		iv := newTestInterview(t, repo, "abc-1")

		assert.Equal(t, "abc-1", iv.InterviewID)
		assert.NotEmpty(t, iv.Id, "expected storage id to be assigned")
		assert.NotNil(t, iv.SessionLogs, "expected session logs to be non-nil")
		assert.NotNil(t, iv.FinalQuestions, "expected final questions to be non-nil")
		assert.NotNil(t, iv.Questions, "expected questions to be non-nil")
	})

	t.Run("duplicate interviewID returns existing record", func(t *testing.T) {
		repo := NewMemInterviewRepository()
		first := newTestInterview(t, repo, "abc-1")

		second, created, err := repo.CreateInterview(context.Background(), CreateInterviewParams{
			InterviewID: "abc-1",
			IdOfHost:    "someone-else",
		})
		assert.NoError(t, err)
		assert.False(t, created, "expected duplicate create to report created=false")
		assert.Equal(t, first.Id, second.Id, "expected the stored record to be returned")
		assert.Equal(t, "host-1", second.IdOfHost, "expected stored host to be unchanged")
	})
}

func TestMemAppendSessionLog(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		repo := NewMemInterviewRepository()
		_, err := repo.AppendSessionLog(context.Background(), "missing", SessionLog{Action: "join", UserName: "bob"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		repo := NewMemInterviewRepository()
		newTestInterview(t, repo, "abc-1")

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.AppendSessionLog(context.Background(), "abc-1", SessionLog{
					Timestamp: time.Now(),
					Action:    "edit",
					UserName:  "bob",
					Details:   map[string]any{"n": i},
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		iv, err := repo.GetInterview(context.Background(), "abc-1")
		assert.NoError(t, err)
		assert.Len(t, iv.SessionLogs, 50, "expected every append to be kept")
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		repo := NewMemInterviewRepository()
		newTestInterview(t, repo, "abc-1")

		iv, err := repo.AppendSessionLog(context.Background(), "abc-1", SessionLog{Action: "join", UserName: "bob", Details: map[string]any{"k": "v"}})
		assert.NoError(t, err)
		iv.SessionLogs[0].Details["k"] = "changed"

		stored, _ := repo.GetInterview(context.Background(), "abc-1")
		assert.Equal(t, "v", stored.SessionLogs[0].Details["k"], "expected stored details to be unaffected")
	})
}

func TestMemUpdateCodeSnapshotAndFinalQuestions(t *testing.T) {
	repo := NewMemInterviewRepository()
	newTestInterview(t, repo, "abc-1")

	_, err := repo.UpdateCodeSnapshot(context.Background(), "abc-1", "print(1)")
	assert.NoError(t, err)
	iv, err := repo.UpdateCodeSnapshot(context.Background(), "abc-1", "print(2)")
	assert.NoError(t, err)
	assert.Equal(t, "print(2)", iv.CodeSnapshot, "expected last write to win")

	_, err = repo.SaveFinalQuestions(context.Background(), "abc-1", []any{"q1", "q2"})
	assert.NoError(t, err)
	iv, err = repo.SaveFinalQuestions(context.Background(), "abc-1", []any{"q3"})
	assert.NoError(t, err)
	assert.Equal(t, []any{"q3"}, iv.FinalQuestions, "expected full overwrite")

	_, err = repo.UpdateCodeSnapshot(context.Background(), "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.SaveFinalQuestions(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemUpdateInterview(t *testing.T) {
	repo := NewMemInterviewRepository()
	newTestInterview(t, repo, "abc-1")

	level := "HARD"
	iv, err := repo.UpdateInterview(context.Background(), "abc-1", UpdateInterviewParams{LevelOfQuestions: &level})
	assert.NoError(t, err)
	assert.Equal(t, "HARD", iv.LevelOfQuestions)
	assert.Nil(t, iv.ArchivedAt, "expected no archival without endTime")

	end := time.Now().UTC()
	iv, err = repo.UpdateInterview(context.Background(), "abc-1", UpdateInterviewParams{EndTime: &end})
	assert.NoError(t, err)
	assert.NotNil(t, iv.ArchivedAt, "expected archivedAt to be stamped")
	firstArchival := *iv.ArchivedAt

	later := end.Add(time.Hour)
	iv, err = repo.UpdateInterview(context.Background(), "abc-1", UpdateInterviewParams{EndTime: &later})
	assert.NoError(t, err)
	assert.Equal(t, firstArchival, *iv.ArchivedAt, "expected first archival time to be kept")
	assert.Equal(t, later, *iv.EndTime)
}

func TestMemAssignParticipant(t *testing.T) {
	tcases := []struct {
		name        string
		setup       func(repo *MemInterviewRepository)
		params      AssignParticipantParams
		expectedErr error
	}{
		{
			name:   "assigns empty slot",
			params: AssignParticipantParams{InterviewID: "abc-1", ParticipantId: "p-1", Candidatename: "bob"},
		},
		{
			name: "same participant is a no-op",
			setup: func(repo *MemInterviewRepository) {
				repo.AssignParticipant(context.Background(), AssignParticipantParams{InterviewID: "abc-1", ParticipantId: "p-1", Candidatename: "bob"})
			},
			params: AssignParticipantParams{InterviewID: "abc-1", ParticipantId: "p-1"},
		},
		{
			name: "different participant conflicts",
			setup: func(repo *MemInterviewRepository) {
				repo.AssignParticipant(context.Background(), AssignParticipantParams{InterviewID: "abc-1", ParticipantId: "p-1", Candidatename: "bob"})
			},
			params:      AssignParticipantParams{InterviewID: "abc-1", ParticipantId: "p-2"},
			expectedErr: ErrConflict,
		},
		{
			name: "archived interview rejects assignment",
			setup: func(repo *MemInterviewRepository) {
				end := time.Now()
				repo.UpdateInterview(context.Background(), "abc-1", UpdateInterviewParams{EndTime: &end})
			},
			params:      AssignParticipantParams{InterviewID: "abc-1", ParticipantId: "p-1", RejectIfArchived: true},
			expectedErr: ErrArchived,
		},
		{
			name: "archived interview accepts assignment when allowed",
			setup: func(repo *MemInterviewRepository) {
				end := time.Now()
				repo.UpdateInterview(context.Background(), "abc-1", UpdateInterviewParams{EndTime: &end})
			},
			params: AssignParticipantParams{InterviewID: "abc-1", ParticipantId: "p-1"},
		},
		{
			name:        "missing interview",
			params:      AssignParticipantParams{InterviewID: "nope", ParticipantId: "p-1"},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewMemInterviewRepository()
			newTestInterview(t, repo, "abc-1")
			if tc.setup != nil {
				tc.setup(repo)
			}

			iv, err := repo.AssignParticipant(context.Background(), tc.params)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.params.ParticipantId, iv.IdOfParticipant)
		})
	}
}

func TestMemAssignParticipantRace(t *testing.T) {
	repo := NewMemInterviewRepository()
	newTestInterview(t, repo, "abc-1")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, id := range []string{"p-1", "p-2", "p-3", "p-4"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := repo.AssignParticipant(context.Background(), AssignParticipantParams{InterviewID: "abc-1", ParticipantId: id})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if err == ErrConflict {
				conflicts++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "expected exactly one assignment to win")
	assert.Equal(t, 3, conflicts, "expected the others to conflict")
}

func TestMemListInterviews(t *testing.T) {
	repo := NewMemInterviewRepository()
	newTestInterview(t, repo, "abc-1")
	newTestInterview(t, repo, "abc-2")
	repo.AssignParticipant(context.Background(), AssignParticipantParams{InterviewID: "abc-2", ParticipantId: "p-1"})

	hosted, err := repo.ListInterviews(context.Background(), "host-1")
	assert.NoError(t, err)
	assert.Len(t, hosted, 2)
	assert.Equal(t, "abc-2", hosted[0].InterviewID, "expected newest first")

	joined, err := repo.ListInterviews(context.Background(), "p-1")
	assert.NoError(t, err)
	assert.Len(t, joined, 1)

	none, err := repo.ListInterviews(context.Background(), "")
	assert.NoError(t, err)
	assert.Empty(t, none, "expected empty id not to match unassigned participants")
}

func TestMemGetAccountById(t *testing.T) {
	repo := NewMemInterviewRepository()
	repo.AddAccount(User{Id: "u-1", Username: "alice"})

	u, err := repo.GetAccountById(context.Background(), "u-1")
	assert.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = repo.GetAccountById(context.Background(), "u-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_resolveAssignMiss(t *testing.T) {
	archived := time.Now()

	iv, err := resolveAssignMiss(Interview{IdOfParticipant: "p-1"}, AssignParticipantParams{ParticipantId: "p-1"})
	assert.NoError(t, err)
	assert.Equal(t, "p-1", iv.IdOfParticipant)

	_, err = resolveAssignMiss(Interview{IdOfParticipant: "p-1"}, AssignParticipantParams{ParticipantId: "p-2"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = resolveAssignMiss(Interview{ArchivedAt: &archived}, AssignParticipantParams{ParticipantId: "p-2", RejectIfArchived: true})
	assert.ErrorIs(t, err, ErrArchived)
}

func TestOpen(t *testing.T) {
	repo, err := Open(context.Background(), MemoryDSN, "")
	assert.NoError(t, err)
	assert.IsType(t, &MemInterviewRepository{}, repo)

	_, err = Open(context.Background(), "mysql://localhost", "")
	assert.Error(t, err, "expected unsupported scheme to fail")
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost/db"))
	assert.True(t, IsPostgres("postgresql://localhost/db"))
	assert.False(t, IsPostgres("mongodb://localhost"))
	assert.False(t, IsPostgres(MemoryDSN))
}
