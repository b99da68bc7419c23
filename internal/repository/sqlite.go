package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/avasquez/catador/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS contests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT,
			registration_deadline TEXT NOT NULL,
			submission_deadline TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			entry_fee REAL NOT NULL DEFAULT 0,
			sample_fee REAL NOT NULL DEFAULT 0,
			final_evaluation BOOLEAN NOT NULL DEFAULT 0,
			top_n INTEGER NOT NULL DEFAULT 10
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			contest_id INTEGER NOT NULL,
			participant_id INTEGER NOT NULL,
			tracking_code TEXT UNIQUE NOT NULL,
			category TEXT NOT NULL,
			producer_name TEXT NOT NULL,
			farm_name TEXT,
			region TEXT,
			variety TEXT,
			harvest_year INTEGER,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TEXT NOT NULL,
			submitted_at TEXT,
			received_at TEXT,
			evaluated_at TEXT,
			FOREIGN KEY (contest_id) REFERENCES contests(id)
		)`,
		`CREATE TABLE IF NOT EXISTS disqualification_reasons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sample_id INTEGER NOT NULL,
			reason TEXT NOT NULL,
			FOREIGN KEY (sample_id) REFERENCES samples(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS judges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			specialization TEXT NOT NULL DEFAULT 'any',
			max_assignments INTEGER NOT NULL DEFAULT 5,
			current_assignments INTEGER NOT NULL DEFAULT 0,
			evaluator BOOLEAN NOT NULL DEFAULT 0,
			CHECK (current_assignments >= 0),
			CHECK (current_assignments <= max_assignments)
		)`,
		`CREATE TABLE IF NOT EXISTS sample_judges (
			sample_id INTEGER NOT NULL,
			judge_id INTEGER NOT NULL,
			PRIMARY KEY (sample_id, judge_id),
			FOREIGN KEY (sample_id) REFERENCES samples(id) ON DELETE CASCADE,
			FOREIGN KEY (judge_id) REFERENCES judges(id)
		)`,
		`CREATE TABLE IF NOT EXISTS physical_evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sample_id INTEGER UNIQUE NOT NULL,
			director_id INTEGER NOT NULL,
			moisture_pct REAL NOT NULL,
			fermentation_pct REAL NOT NULL,
			defect_count INTEGER NOT NULL,
			lot_weight_kg REAL NOT NULL,
			notes TEXT,
			passed BOOLEAN NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (sample_id) REFERENCES samples(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sample_id INTEGER NOT NULL,
			actor_id INTEGER NOT NULL,
			stage TEXT NOT NULL,
			attributes TEXT NOT NULL,
			group_totals TEXT NOT NULL,
			radar TEXT NOT NULL,
			overall_quality REAL NOT NULL,
			notes TEXT,
			created_at TEXT NOT NULL,
			UNIQUE (sample_id, actor_id, stage),
			FOREIGN KEY (sample_id) REFERENCES samples(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			evaluator_id INTEGER NOT NULL,
			sample_id INTEGER NOT NULL,
			amount REAL NOT NULL,
			idempotency_key TEXT UNIQUE NOT NULL,
			confirmed_at TEXT NOT NULL,
			UNIQUE (evaluator_id, sample_id),
			FOREIGN KEY (sample_id) REFERENCES samples(id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'normal',
			read BOOLEAN NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_contest ON samples(contest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_participant ON samples(participant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_status ON samples(status)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_sample ON evaluations(sample_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// ==================== Contest Methods ====================

// CreateContest inserts a new contest and returns its id
func (r *Repository) CreateContest(ctx context.Context, c models.Contest) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO contests (name, location, registration_deadline, submission_deadline,
			start_date, end_date, entry_fee, sample_fee, final_evaluation, top_n)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Location, formatTime(c.RegistrationDeadline), formatTime(c.SubmissionDeadline),
		formatTime(c.StartDate), formatTime(c.EndDate), c.EntryFee, c.SampleFee,
		c.FinalEvaluation, c.TopN)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

func scanContest(scanner interface{ Scan(dest ...any) error }) (models.Contest, error) {
	var c models.Contest
	var regDeadline, subDeadline, start, end string
	err := scanner.Scan(&c.ID, &c.Name, &c.Location, &regDeadline, &subDeadline,
		&start, &end, &c.EntryFee, &c.SampleFee, &c.FinalEvaluation, &c.TopN)
	if err != nil {
		return c, err
	}
	c.RegistrationDeadline = parseTime(regDeadline)
	c.SubmissionDeadline = parseTime(subDeadline)
	c.StartDate = parseTime(start)
	c.EndDate = parseTime(end)
	return c, nil
}

const contestColumns = `id, name, COALESCE(location, ''), registration_deadline,
	submission_deadline, start_date, end_date, entry_fee, sample_fee, final_evaluation, top_n`

// GetContest retrieves a contest by id
func (r *Repository) GetContest(ctx context.Context, id int) (*models.Contest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contestColumns+` FROM contests WHERE id = ?`, id)
	c, err := scanContest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContests returns all contests ordered by start date
func (r *Repository) ListContests(ctx context.Context) ([]models.Contest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contestColumns+` FROM contests ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []models.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

// UpdateContest updates a contest's editable fields
func (r *Repository) UpdateContest(ctx context.Context, c models.Contest) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE contests SET name = ?, location = ?, registration_deadline = ?,
			submission_deadline = ?, start_date = ?, end_date = ?, entry_fee = ?,
			sample_fee = ?, top_n = ?
		WHERE id = ?`,
		c.Name, c.Location, formatTime(c.RegistrationDeadline), formatTime(c.SubmissionDeadline),
		formatTime(c.StartDate), formatTime(c.EndDate), c.EntryFee, c.SampleFee, c.TopN, c.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFinalEvaluation flips the final-evaluation flag on a contest
func (r *Repository) SetFinalEvaluation(ctx context.Context, contestID int, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contests SET final_evaluation = ? WHERE id = ?`, enabled, contestID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetContestStats returns per-contest aggregate counts
func (r *Repository) GetContestStats(ctx context.Context, contestID int) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	byStatus, err := r.CountSamplesByStatus(ctx, contestID)
	if err != nil {
		return nil, err
	}
	statusCounts := make(map[string]int, len(byStatus))
	total := 0
	for status, count := range byStatus {
		statusCounts[string(status)] = count
		total += count
	}
	stats["samples_total"] = total
	stats["samples_by_status"] = statusCounts

	var evalCount int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM evaluations e
		JOIN samples s ON s.id = e.sample_id
		WHERE s.contest_id = ?`, contestID).Scan(&evalCount)
	if err != nil {
		return nil, err
	}
	stats["evaluations_total"] = evalCount

	var assignedLoad sql.NullInt64
	err = r.db.QueryRowContext(ctx, `SELECT SUM(current_assignments) FROM judges`).Scan(&assignedLoad)
	if err != nil {
		return nil, err
	}
	stats["judge_assignments_total"] = int(assignedLoad.Int64)

	return stats, nil
}

// ==================== Sample Methods ====================

const sampleColumns = `id, contest_id, participant_id, tracking_code, category,
	producer_name, COALESCE(farm_name, ''), COALESCE(region, ''), COALESCE(variety, ''),
	COALESCE(harvest_year, 0), status, created_at, submitted_at, received_at, evaluated_at`

// CreateSample inserts a new sample and returns its id
func (r *Repository) CreateSample(ctx context.Context, s models.Sample) (int, error) {
	var submittedAt interface{}
	if s.SubmittedAt != nil {
		submittedAt = formatTime(*s.SubmittedAt)
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO samples (contest_id, participant_id, tracking_code, category,
			producer_name, farm_name, region, variety, harvest_year, status, created_at, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ContestID, s.ParticipantID, s.TrackingCode, s.Category, s.ProducerName,
		s.FarmName, s.Region, s.Variety, s.HarvestYear, s.Status, formatTime(s.CreatedAt), submittedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

func (r *Repository) scanSample(ctx context.Context, row *sql.Row) (*models.Sample, error) {
	var s models.Sample
	var createdAt string
	var submittedAt, receivedAt, evaluatedAt sql.NullString
	err := row.Scan(&s.ID, &s.ContestID, &s.ParticipantID, &s.TrackingCode, &s.Category,
		&s.ProducerName, &s.FarmName, &s.Region, &s.Variety, &s.HarvestYear, &s.Status,
		&createdAt, &submittedAt, &receivedAt, &evaluatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.SubmittedAt = parseTimePtr(submittedAt)
	s.ReceivedAt = parseTimePtr(receivedAt)
	s.EvaluatedAt = parseTimePtr(evaluatedAt)

	s.JudgeIDs, err = r.ListSampleJudges(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.EvaluatorIDs, err = r.listSampleEvaluators(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if s.Status == models.StatusDisqualified {
		s.DisqualReasons, err = r.listDisqualReasons(ctx, s.ID)
		if err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// GetSample retrieves a sample by id, including its assigned judges and any
// disqualification reasons
func (r *Repository) GetSample(ctx context.Context, id int) (*models.Sample, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id)
	return r.scanSample(ctx, row)
}

// GetSampleByTrackingCode retrieves a sample by its tracking code
func (r *Repository) GetSampleByTrackingCode(ctx context.Context, code string) (*models.Sample, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE tracking_code = ?`, code)
	return r.scanSample(ctx, row)
}

func (r *Repository) listSamples(ctx context.Context, query string, args ...interface{}) ([]models.Sample, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.Sample
	for rows.Next() {
		var s models.Sample
		var createdAt string
		var submittedAt, receivedAt, evaluatedAt sql.NullString
		if err := rows.Scan(&s.ID, &s.ContestID, &s.ParticipantID, &s.TrackingCode, &s.Category,
			&s.ProducerName, &s.FarmName, &s.Region, &s.Variety, &s.HarvestYear, &s.Status,
			&createdAt, &submittedAt, &receivedAt, &evaluatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTime(createdAt)
		s.SubmittedAt = parseTimePtr(submittedAt)
		s.ReceivedAt = parseTimePtr(receivedAt)
		s.EvaluatedAt = parseTimePtr(evaluatedAt)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// ListSamplesByContest returns all samples for a contest
func (r *Repository) ListSamplesByContest(ctx context.Context, contestID int) ([]models.Sample, error) {
	return r.listSamples(ctx, `SELECT `+sampleColumns+` FROM samples WHERE contest_id = ? ORDER BY id`, contestID)
}

// ListSamplesByParticipant returns all samples owned by a participant
func (r *Repository) ListSamplesByParticipant(ctx context.Context, participantID int) ([]models.Sample, error) {
	return r.listSamples(ctx, `SELECT `+sampleColumns+` FROM samples WHERE participant_id = ? ORDER BY id`, participantID)
}

// UpdateSampleStatus applies a conditional status transition. It returns
// false when the sample was not in the expected `from` status, in which case
// nothing was written and the caller must re-fetch.
func (r *Repository) UpdateSampleStatus(ctx context.Context, id int, from, to models.SampleStatus) (bool, error) {
	now := formatTime(time.Now())
	var query string
	args := []interface{}{to, id, from}
	switch to {
	case models.StatusSubmitted:
		query = `UPDATE samples SET status = ?, submitted_at = ? WHERE id = ? AND status = ?`
		args = []interface{}{to, now, id, from}
	case models.StatusReceived:
		query = `UPDATE samples SET status = ?, received_at = ? WHERE id = ? AND status = ?`
		args = []interface{}{to, now, id, from}
	case models.StatusEvaluated:
		query = `UPDATE samples SET status = ?, evaluated_at = ? WHERE id = ? AND status = ?`
		args = []interface{}{to, now, id, from}
	default:
		query = `UPDATE samples SET status = ? WHERE id = ? AND status = ?`
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DisqualifySample moves a sample to disqualified from any state after
// submission that is not already terminal, recording the reasons. It returns
// false when the sample was in a state that cannot be disqualified.
func (r *Repository) DisqualifySample(ctx context.Context, id int, reasons []string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE samples SET status = ?
		WHERE id = ? AND status NOT IN (?, ?, ?)`,
		models.StatusDisqualified, id, models.StatusDraft, models.StatusEvaluated, models.StatusDisqualified)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	for _, reason := range reasons {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO disqualification_reasons (sample_id, reason) VALUES (?, ?)`, id, reason); err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

func (r *Repository) listDisqualReasons(ctx context.Context, sampleID int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT reason FROM disqualification_reasons WHERE sample_id = ? ORDER BY id`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []string
	for rows.Next() {
		var reason string
		if err := rows.Scan(&reason); err != nil {
			return nil, err
		}
		reasons = append(reasons, reason)
	}
	return reasons, rows.Err()
}

// CountSamplesByStatus returns sample counts per status for a contest
func (r *Repository) CountSamplesByStatus(ctx context.Context, contestID int) (map[models.SampleStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM samples WHERE contest_id = ? GROUP BY status`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.SampleStatus]int)
	for rows.Next() {
		var status models.SampleStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// ==================== Judge Methods ====================

const judgeColumns = `id, user_id, name, specialization, max_assignments, current_assignments, evaluator`

// CreateJudge inserts a new judge and returns its id
func (r *Repository) CreateJudge(ctx context.Context, j models.Judge) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO judges (user_id, name, specialization, max_assignments, current_assignments, evaluator)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.UserID, j.Name, j.Specialization, j.MaxAssignments, j.CurrentAssignments, j.Evaluator)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetJudge retrieves a judge by id
func (r *Repository) GetJudge(ctx context.Context, id int) (*models.Judge, error) {
	var j models.Judge
	err := r.db.QueryRowContext(ctx, `SELECT `+judgeColumns+` FROM judges WHERE id = ?`, id).
		Scan(&j.ID, &j.UserID, &j.Name, &j.Specialization, &j.MaxAssignments, &j.CurrentAssignments, &j.Evaluator)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// ListJudges returns all judges, or only the evaluator pool
func (r *Repository) ListJudges(ctx context.Context, evaluatorsOnly bool) ([]models.Judge, error) {
	query := `SELECT ` + judgeColumns + ` FROM judges ORDER BY id`
	if evaluatorsOnly {
		query = `SELECT ` + judgeColumns + ` FROM judges WHERE evaluator = 1 ORDER BY id`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var judges []models.Judge
	for rows.Next() {
		var j models.Judge
		if err := rows.Scan(&j.ID, &j.UserID, &j.Name, &j.Specialization,
			&j.MaxAssignments, &j.CurrentAssignments, &j.Evaluator); err != nil {
			return nil, err
		}
		judges = append(judges, j)
	}
	return judges, rows.Err()
}

// GetJudges retrieves multiple judges by id. Missing ids are not an error;
// callers compare lengths when they need to detect absent judges.
func (r *Repository) GetJudges(ctx context.Context, ids []int) ([]models.Judge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+judgeColumns+` FROM judges WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var judges []models.Judge
	for rows.Next() {
		var j models.Judge
		if err := rows.Scan(&j.ID, &j.UserID, &j.Name, &j.Specialization,
			&j.MaxAssignments, &j.CurrentAssignments, &j.Evaluator); err != nil {
			return nil, err
		}
		judges = append(judges, j)
	}
	return judges, rows.Err()
}

// ListSampleJudges returns the ids of judges assigned to a sample
func (r *Repository) ListSampleJudges(ctx context.Context, sampleID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT judge_id FROM sample_judges WHERE sample_id = ? ORDER BY judge_id`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// listSampleEvaluators returns the ids of evaluators holding a confirmed
// payment for the sample. Payment is what binds an evaluator to a sample.
func (r *Repository) listSampleEvaluators(ctx context.Context, sampleID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT evaluator_id FROM payments WHERE sample_id = ? ORDER BY evaluator_id`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// judgeCapacityTx loads capacity counters for the given judges inside tx.
func judgeCapacityTx(ctx context.Context, tx *sql.Tx, ids []int) (map[int]models.Judge, error) {
	judges := make(map[int]models.Judge, len(ids))
	for _, id := range ids {
		var j models.Judge
		err := tx.QueryRowContext(ctx, `SELECT `+judgeColumns+` FROM judges WHERE id = ?`, id).
			Scan(&j.ID, &j.UserID, &j.Name, &j.Specialization, &j.MaxAssignments, &j.CurrentAssignments, &j.Evaluator)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		judges[id] = j
	}
	return judges, nil
}

// ReplaceSampleJudges sets the sample's assigned-judge set to exactly
// judgeIDs, adjusting judge counters by the delta. The whole operation runs
// in one transaction; a non-empty over-capacity list means nothing was
// committed. Capacity is re-checked inside the transaction so two
// concurrent assignments against the same judge cannot both succeed.
func (r *Repository) ReplaceSampleJudges(ctx context.Context, sampleID int, judgeIDs []int) ([]int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := listSampleJudgesTx(ctx, tx, sampleID)
	if err != nil {
		return nil, err
	}
	currentSet := make(map[int]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	wantedSet := make(map[int]bool, len(judgeIDs))
	for _, id := range judgeIDs {
		wantedSet[id] = true
	}

	var added, removed []int
	for id := range wantedSet {
		if !currentSet[id] {
			added = append(added, id)
		}
	}
	for id := range currentSet {
		if !wantedSet[id] {
			removed = append(removed, id)
		}
	}

	judges, err := judgeCapacityTx(ctx, tx, added)
	if err != nil {
		return nil, err
	}
	var overCapacity []int
	for _, id := range added {
		if !judges[id].Available() {
			overCapacity = append(overCapacity, id)
		}
	}
	if len(overCapacity) > 0 {
		return overCapacity, nil
	}

	for _, id := range removed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sample_judges WHERE sample_id = ? AND judge_id = ?`, sampleID, id); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE judges SET current_assignments = current_assignments - 1 WHERE id = ?`, id); err != nil {
			return nil, err
		}
	}
	for _, id := range added {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sample_judges (sample_id, judge_id) VALUES (?, ?)`, sampleID, id); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE judges SET current_assignments = current_assignments + 1 WHERE id = ?`, id); err != nil {
			return nil, err
		}
	}

	return nil, tx.Commit()
}

func listSampleJudgesTx(ctx context.Context, tx *sql.Tx, sampleID int) ([]int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT judge_id FROM sample_judges WHERE sample_id = ? ORDER BY judge_id`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BulkAssignJudges assigns every judge in judgeIDs to every sample in
// sampleIDs. The cumulative requested load is checked against each judge's
// remaining capacity before anything is written; any shortfall rolls back
// the entire batch.
func (r *Repository) BulkAssignJudges(ctx context.Context, sampleIDs, judgeIDs []int) ([]int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	judges, err := judgeCapacityTx(ctx, tx, judgeIDs)
	if err != nil {
		return nil, err
	}

	// Cumulative load per judge: samples the judge is not yet assigned to.
	needed := make(map[int]int, len(judgeIDs))
	for _, judgeID := range judgeIDs {
		for _, sampleID := range sampleIDs {
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM sample_judges WHERE sample_id = ? AND judge_id = ?`,
				sampleID, judgeID).Scan(&exists)
			if err != nil {
				return nil, err
			}
			if exists == 0 {
				needed[judgeID]++
			}
		}
	}

	var overCapacity []int
	for _, judgeID := range judgeIDs {
		j := judges[judgeID]
		if j.CurrentAssignments+needed[judgeID] > j.MaxAssignments {
			overCapacity = append(overCapacity, judgeID)
		}
	}
	if len(overCapacity) > 0 {
		return overCapacity, nil
	}

	for _, sampleID := range sampleIDs {
		for _, judgeID := range judgeIDs {
			result, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO sample_judges (sample_id, judge_id) VALUES (?, ?)`,
				sampleID, judgeID)
			if err != nil {
				return nil, err
			}
			n, err := result.RowsAffected()
			if err != nil {
				return nil, err
			}
			if n > 0 {
				if _, err := tx.ExecContext(ctx,
					`UPDATE judges SET current_assignments = current_assignments + 1 WHERE id = ?`, judgeID); err != nil {
					return nil, err
				}
			}
		}
	}

	return nil, tx.Commit()
}

// ReleaseSampleJudges removes all judge assignments for a sample and frees
// the corresponding capacity. Called once when a sample reaches a terminal
// status; the conditional status transition guarantees a single caller.
func (r *Repository) ReleaseSampleJudges(ctx context.Context, sampleID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids, err := listSampleJudgesTx(ctx, tx, sampleID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE judges SET current_assignments = current_assignments - 1 WHERE id = ?`, id); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sample_judges WHERE sample_id = ?`, sampleID); err != nil {
		return err
	}

	return tx.Commit()
}

// ==================== Evaluation Methods ====================

// InsertPhysicalEvaluation records the physical inspection of a sample
func (r *Repository) InsertPhysicalEvaluation(ctx context.Context, pe models.PhysicalEvaluation) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO physical_evaluations (sample_id, director_id, moisture_pct,
			fermentation_pct, defect_count, lot_weight_kg, notes, passed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pe.SampleID, pe.DirectorID, pe.MoisturePct, pe.FermentationPct,
		pe.DefectCount, pe.LotWeightKG, pe.Notes, pe.Passed, formatTime(pe.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// GetPhysicalEvaluation retrieves a sample's physical evaluation
func (r *Repository) GetPhysicalEvaluation(ctx context.Context, sampleID int) (*models.PhysicalEvaluation, error) {
	var pe models.PhysicalEvaluation
	var createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sample_id, director_id, moisture_pct, fermentation_pct,
			defect_count, lot_weight_kg, COALESCE(notes, ''), passed, created_at
		FROM physical_evaluations WHERE sample_id = ?`, sampleID).
		Scan(&pe.ID, &pe.SampleID, &pe.DirectorID, &pe.MoisturePct, &pe.FermentationPct,
			&pe.DefectCount, &pe.LotWeightKG, &pe.Notes, &pe.Passed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pe.CreatedAt = parseTime(createdAt)
	return &pe, nil
}

// InsertEvaluation stores a completed evaluation. The unique index on
// (sample_id, actor_id, stage) enforces the at-most-one-evaluation invariant
// even under concurrent submissions; violations map to ErrDuplicate.
func (r *Repository) InsertEvaluation(ctx context.Context, e models.Evaluation) (int, error) {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return 0, fmt.Errorf("marshal attributes: %w", err)
	}
	totals, err := json.Marshal(e.GroupTotals)
	if err != nil {
		return 0, fmt.Errorf("marshal group totals: %w", err)
	}
	radar, err := json.Marshal(e.Radar)
	if err != nil {
		return 0, fmt.Errorf("marshal radar: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO evaluations (sample_id, actor_id, stage, attributes, group_totals,
			radar, overall_quality, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SampleID, e.ActorID, e.Stage, string(attrs), string(totals), string(radar),
		e.OverallQuality, e.Notes, formatTime(e.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// ListEvaluations returns all evaluations of a sample for a stage
func (r *Repository) ListEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) ([]models.Evaluation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sample_id, actor_id, stage, attributes, group_totals, radar,
			overall_quality, COALESCE(notes, ''), created_at
		FROM evaluations WHERE sample_id = ? AND stage = ? ORDER BY id`, sampleID, stage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evals []models.Evaluation
	for rows.Next() {
		var e models.Evaluation
		var attrs, totals, radar, createdAt string
		if err := rows.Scan(&e.ID, &e.SampleID, &e.ActorID, &e.Stage, &attrs, &totals,
			&radar, &e.OverallQuality, &e.Notes, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(attrs), &e.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
		if err := json.Unmarshal([]byte(totals), &e.GroupTotals); err != nil {
			return nil, fmt.Errorf("unmarshal group totals: %w", err)
		}
		if err := json.Unmarshal([]byte(radar), &e.Radar); err != nil {
			return nil, fmt.Errorf("unmarshal radar: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

// HasEvaluation reports whether an actor already evaluated a sample at a stage
func (r *Repository) HasEvaluation(ctx context.Context, sampleID, actorID int, stage models.EvaluationStage) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evaluations WHERE sample_id = ? AND actor_id = ? AND stage = ?`,
		sampleID, actorID, stage).Scan(&count)
	return count > 0, err
}

// CountEvaluations returns the number of evaluations for a sample at a stage
func (r *Repository) CountEvaluations(ctx context.Context, sampleID int, stage models.EvaluationStage) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evaluations WHERE sample_id = ? AND stage = ?`, sampleID, stage).Scan(&count)
	return count, err
}

// ListEvaluatedSamples returns evaluated samples of a contest with their
// average overall score for the given stage, for the ranking compiler.
func (r *Repository) ListEvaluatedSamples(ctx context.Context, contestID int, stage models.EvaluationStage) ([]EvaluatedSampleRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.contest_id, s.tracking_code, s.participant_id,
			AVG(e.overall_quality), COALESCE(s.evaluated_at, '')
		FROM samples s
		JOIN evaluations e ON e.sample_id = s.id AND e.stage = ?
		WHERE s.contest_id = ? AND s.status = ?
		GROUP BY s.id
		ORDER BY s.id`, stage, contestID, models.StatusEvaluated)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EvaluatedSampleRow
	for rows.Next() {
		var row EvaluatedSampleRow
		if err := rows.Scan(&row.SampleID, &row.ContestID, &row.TrackingCode,
			&row.ParticipantID, &row.AvgScore, &row.EvaluatedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetParticipantStats returns per-participant aggregate counts: samples by
// status, evaluation totals, and the average and best per-sample score over
// the participant's evaluated samples.
func (r *Repository) GetParticipantStats(ctx context.Context, participantID int) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM samples WHERE participant_id = ? GROUP BY status`,
		participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statusCounts := make(map[string]int)
	total := 0
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		statusCounts[status] = count
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["samples_total"] = total
	stats["samples_by_status"] = statusCounts

	var evalCount int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM evaluations e
		JOIN samples s ON s.id = e.sample_id
		WHERE s.participant_id = ?`, participantID).Scan(&evalCount)
	if err != nil {
		return nil, err
	}
	stats["evaluations_total"] = evalCount

	var avgScore, bestScore sql.NullFloat64
	err = r.db.QueryRowContext(ctx, `
		SELECT AVG(t.score), MAX(t.score) FROM (
			SELECT AVG(e.overall_quality) AS score
			FROM samples s
			JOIN evaluations e ON e.sample_id = s.id
			WHERE s.participant_id = ? AND s.status = ?
			GROUP BY s.id) t`, participantID, models.StatusEvaluated).Scan(&avgScore, &bestScore)
	if err != nil {
		return nil, err
	}
	stats["average_score"] = math.Round(avgScore.Float64*10) / 10
	stats["best_score"] = math.Round(bestScore.Float64*10) / 10

	return stats, nil
}

// ==================== Payment Methods ====================

// InsertPaymentRecord stores a confirmed payment. Re-inserting with the same
// idempotency key returns the existing record's id instead of failing, so
// retries after a timeout are safe.
func (r *Repository) InsertPaymentRecord(ctx context.Context, p models.PaymentRecord) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (evaluator_id, sample_id, amount, idempotency_key, confirmed_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.EvaluatorID, p.SampleID, p.Amount, p.IdempotencyKey, formatTime(p.ConfirmedAt))
	if err != nil {
		if isUniqueViolation(err) {
			existing, getErr := r.GetPaymentByIdempotencyKey(ctx, p.IdempotencyKey)
			if getErr == nil && existing != nil {
				return existing.ID, nil
			}
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

func (r *Repository) scanPayment(row *sql.Row) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	var confirmedAt string
	err := row.Scan(&p.ID, &p.EvaluatorID, &p.SampleID, &p.Amount, &p.IdempotencyKey, &confirmedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ConfirmedAt = parseTime(confirmedAt)
	return &p, nil
}

// GetPaymentRecord retrieves the payment for an (evaluator, sample) pair
func (r *Repository) GetPaymentRecord(ctx context.Context, evaluatorID, sampleID int) (*models.PaymentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, evaluator_id, sample_id, amount, idempotency_key, confirmed_at
		FROM payments WHERE evaluator_id = ? AND sample_id = ?`, evaluatorID, sampleID)
	return r.scanPayment(row)
}

// GetPaymentByIdempotencyKey retrieves a payment by its idempotency key
func (r *Repository) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*models.PaymentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, evaluator_id, sample_id, amount, idempotency_key, confirmed_at
		FROM payments WHERE idempotency_key = ?`, key)
	return r.scanPayment(row)
}

// ==================== Notification Methods ====================

// InsertNotification stores a notification for a user
func (r *Repository) InsertNotification(ctx context.Context, n models.Notification) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message, priority, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Message, n.Priority, n.Read, formatTime(n.CreatedAt))
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	return int(id), err
}

// ListNotifications returns a user's notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, user_id, type, title, message, priority, read, created_at
		FROM notifications WHERE user_id = ? ORDER BY id DESC`
	if unreadOnly {
		query = `SELECT id, user_id, type, title, message, priority, read, created_at
			FROM notifications WHERE user_id = ? AND read = 0 ORDER BY id DESC`
	}
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.Priority, &n.Read, &createdAt); err != nil {
			return nil, err
		}
		n.CreatedAt = parseTime(createdAt)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks a single notification as read
func (r *Repository) MarkNotificationRead(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value, or "" when unset
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting stores a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
