package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const interviewColumns = "id::text, interview_id, type_of_interview, number_of_questions, level_of_questions, " +
	"questions, id_of_host, hostname, id_of_participant, candidatename, start_time, end_time, archived_at, " +
	"session_logs, code_snapshot, final_questions, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (Interview, error) {
	var (
		iv             Interview
		participant    sql.NullString
		startTime      sql.NullTime
		endTime        sql.NullTime
		archivedAt     sql.NullTime
		sessionLogs    []byte
		finalQuestions []byte
	)

	err := row.Scan(
		&iv.Id,
		&iv.InterviewID,
		&iv.TypeOfInterview,
		&iv.NumberOfQuestions,
		&iv.LevelOfQuestions,
		pq.Array(&iv.Questions),
		&iv.IdOfHost,
		&iv.Hostname,
		&participant,
		&iv.Candidatename,
		&startTime,
		&endTime,
		&archivedAt,
		&sessionLogs,
		&iv.CodeSnapshot,
		&finalQuestions,
		&iv.CreatedAt,
		&iv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Interview{}, ErrNotFound
		}
		return Interview{}, err
	}

	iv.IdOfParticipant = participant.String
	iv.StartTime = nullTimePtr(startTime)
	iv.EndTime = nullTimePtr(endTime)
	iv.ArchivedAt = nullTimePtr(archivedAt)

	iv.SessionLogs = make([]SessionLog, 0)
	if len(sessionLogs) > 0 {
		if err := json.Unmarshal(sessionLogs, &iv.SessionLogs); err != nil {
			return Interview{}, fmt.Errorf("decode session logs: %w", err)
		}
	}

	iv.FinalQuestions = make([]any, 0)
	if len(finalQuestions) > 0 {
		if err := json.Unmarshal(finalQuestions, &iv.FinalQuestions); err != nil {
			return Interview{}, fmt.Errorf("decode final questions: %w", err)
		}
	}

	return iv, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func (db *PgInterviewRepository) GetAccountById(ctx context.Context, id string) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username FROM accounts WHERE id = $1 LIMIT 1",
		id,
	)

	var user User
	err := row.Scan(&user.Id, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}

	return user, err
}

func (db *PgInterviewRepository) CreateInterview(ctx context.Context, params CreateInterviewParams) (Interview, bool, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO interviews (interview_id, type_of_interview, number_of_questions, level_of_questions, questions, "+
			"id_of_host, hostname, id_of_participant, candidatename, start_time, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, COALESCE($5::text[], '{}'), $6, $7, NULLIF($8, ''), $9, $10, $11, $11) "+
			"ON CONFLICT (interview_id) DO NOTHING RETURNING "+interviewColumns,
		params.InterviewID,
		params.TypeOfInterview,
		params.NumberOfQuestions,
		params.LevelOfQuestions,
		pq.Array(params.Questions),
		params.IdOfHost,
		params.Hostname,
		params.IdOfParticipant,
		params.Candidatename,
		params.StartTime,
		now,
	)

	iv, err := scanInterview(row)
	if errors.Is(err, ErrNotFound) {
		// the interview id is already taken, hand back the stored record
		existing, err := db.GetInterview(ctx, params.InterviewID)
		return existing, false, err
	}
	if err != nil {
		return Interview{}, false, err
	}

	return iv, true, nil
}

func (db *PgInterviewRepository) GetInterview(ctx context.Context, interviewID string) (Interview, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+interviewColumns+" FROM interviews WHERE interview_id = $1 LIMIT 1",
		interviewID,
	)

	return scanInterview(row)
}

func (db *PgInterviewRepository) ListInterviews(ctx context.Context, userId string) ([]Interview, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+interviewColumns+" FROM interviews "+
			"WHERE id_of_host = $1 OR id_of_participant = $1 ORDER BY created_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interviews := make([]Interview, 0)
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		interviews = append(interviews, iv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return interviews, nil
}

func (db *PgInterviewRepository) UpdateInterview(ctx context.Context, interviewID string, params UpdateInterviewParams) (Interview, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE interviews SET "+
			"type_of_interview = COALESCE($2::text, type_of_interview), "+
			"number_of_questions = COALESCE($3::text, number_of_questions), "+
			"level_of_questions = COALESCE($4::text, level_of_questions), "+
			"start_time = COALESCE($5::timestamptz, start_time), "+
			"end_time = COALESCE($6::timestamptz, end_time), "+
			"archived_at = CASE WHEN $6::timestamptz IS NULL THEN archived_at ELSE COALESCE(archived_at, $7) END, "+
			"updated_at = $7 "+
			"WHERE interview_id = $1 RETURNING "+interviewColumns,
		interviewID,
		params.TypeOfInterview,
		params.NumberOfQuestions,
		params.LevelOfQuestions,
		params.StartTime,
		params.EndTime,
		time.Now().UTC(),
	)

	return scanInterview(row)
}

func (db *PgInterviewRepository) AssignParticipant(ctx context.Context, params AssignParticipantParams) (Interview, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE interviews SET id_of_participant = $2, "+
			"candidatename = CASE WHEN $3 = '' THEN candidatename ELSE $3 END, updated_at = $4 "+
			"WHERE interview_id = $1 AND id_of_participant IS NULL AND (NOT $5 OR archived_at IS NULL) "+
			"RETURNING "+interviewColumns,
		params.InterviewID,
		params.ParticipantId,
		params.Candidatename,
		time.Now().UTC(),
		params.RejectIfArchived,
	)

	iv, err := scanInterview(row)
	if errors.Is(err, ErrNotFound) {
		existing, err := db.GetInterview(ctx, params.InterviewID)
		if err != nil {
			return Interview{}, err
		}
		return resolveAssignMiss(existing, params)
	}

	return iv, err
}

func (db *PgInterviewRepository) AppendSessionLog(ctx context.Context, interviewID string, entry SessionLog) (Interview, error) {
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return Interview{}, fmt.Errorf("encode session log: %w", err)
	}

	row := db.conn.QueryRowContext(ctx,
		"UPDATE interviews SET session_logs = session_logs || jsonb_build_array($2::jsonb), updated_at = $3 "+
			"WHERE interview_id = $1 RETURNING "+interviewColumns,
		interviewID,
		string(raw),
		time.Now().UTC(),
	)

	return scanInterview(row)
}

func (db *PgInterviewRepository) UpdateCodeSnapshot(ctx context.Context, interviewID, code string) (Interview, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE interviews SET code_snapshot = $2, updated_at = $3 "+
			"WHERE interview_id = $1 RETURNING "+interviewColumns,
		interviewID,
		code,
		time.Now().UTC(),
	)

	return scanInterview(row)
}

func (db *PgInterviewRepository) SaveFinalQuestions(ctx context.Context, interviewID string, questions []any) (Interview, error) {
	if questions == nil {
		questions = []any{}
	}

	raw, err := json.Marshal(questions)
	if err != nil {
		return Interview{}, fmt.Errorf("encode final questions: %w", err)
	}

	row := db.conn.QueryRowContext(ctx,
		"UPDATE interviews SET final_questions = $2::jsonb, updated_at = $3 "+
			"WHERE interview_id = $1 RETURNING "+interviewColumns,
		interviewID,
		string(raw),
		time.Now().UTC(),
	)

	return scanInterview(row)
}
