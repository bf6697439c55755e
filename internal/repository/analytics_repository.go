package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/darulhuda/institute-api/internal/models"
)

// AnalyticsRepository bulk-loads the raw rows every report section consumes.
// Each row set costs at most one round-trip regardless of how many courses or
// students exist; aggregators only ever touch the grouped in-memory snapshot.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// FetchSnapshot loads people, courses, enrollments, in-window attendance,
// submissions (joined to their assignment's course) and memorization units in
// six round-trips, then groups them into lookup maps.
func (r *AnalyticsRepository) FetchSnapshot(ctx context.Context, window models.TimeWindow, courseID string) (*models.AnalyticsSnapshot, error) {
	var people []models.PersonRow
	if err := r.db.SelectContext(ctx, &people, "SELECT id, role, full_name FROM people"); err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}

	courses, err := r.fetchCourses(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrollments, err := r.fetchEnrollments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	attendance, err := r.fetchAttendance(ctx, window, courseID)
	if err != nil {
		return nil, err
	}

	submissions, err := r.fetchSubmissions(ctx, courseID)
	if err != nil {
		return nil, err
	}

	memorization, err := r.fetchMemorization(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return models.NewAnalyticsSnapshot(window, people, courses, enrollments, attendance, submissions, memorization), nil
}

// OverviewTotals returns the window-independent entity counts in one round-trip.
func (r *AnalyticsRepository) OverviewTotals(ctx context.Context) (models.OverviewTotals, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM people WHERE role = $1) AS total_students,
        (SELECT COUNT(*) FROM people WHERE role = $2) AS total_teachers,
        (SELECT COUNT(*) FROM courses) AS total_courses`

	var totals models.OverviewTotals
	if err := r.db.GetContext(ctx, &totals, query, models.RoleStudent, models.RoleTeacher); err != nil {
		return models.OverviewTotals{}, fmt.Errorf("query overview totals: %w", err)
	}
	return totals, nil
}

func (r *AnalyticsRepository) fetchCourses(ctx context.Context, courseID string) ([]models.CourseRow, error) {
	var builder strings.Builder
	builder.WriteString("SELECT id, name, teacher_id FROM courses WHERE 1=1")
	var args []interface{}
	if courseID != "" {
		args = append(args, courseID)
		builder.WriteString(fmt.Sprintf(" AND id = $%d", len(args)))
	}

	var courses []models.CourseRow
	if err := r.db.SelectContext(ctx, &courses, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	return courses, nil
}

func (r *AnalyticsRepository) fetchEnrollments(ctx context.Context, courseID string) ([]models.EnrollmentRow, error) {
	var builder strings.Builder
	builder.WriteString("SELECT course_id, student_id FROM enrollments WHERE 1=1")
	var args []interface{}
	if courseID != "" {
		args = append(args, courseID)
		builder.WriteString(fmt.Sprintf(" AND course_id = $%d", len(args)))
	}

	var enrollments []models.EnrollmentRow
	if err := r.db.SelectContext(ctx, &enrollments, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *AnalyticsRepository) fetchAttendance(ctx context.Context, window models.TimeWindow, courseID string) ([]models.AttendanceRow, error) {
	var builder strings.Builder
	builder.WriteString("SELECT id, student_id, course_id, date, status FROM attendance_records WHERE date >= $1 AND date < $2")
	args := []interface{}{window.Start, window.End}
	if courseID != "" {
		args = append(args, courseID)
		builder.WriteString(fmt.Sprintf(" AND course_id = $%d", len(args)))
	}

	var attendance []models.AttendanceRow
	if err := r.db.SelectContext(ctx, &attendance, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	return attendance, nil
}

func (r *AnalyticsRepository) fetchSubmissions(ctx context.Context, courseID string) ([]models.SubmissionRow, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT s.id, s.assignment_id, a.course_id, s.student_id, s.grade, s.status
        FROM submissions s
        JOIN assignments a ON a.id = s.assignment_id
        WHERE 1=1`)
	var args []interface{}
	if courseID != "" {
		args = append(args, courseID)
		builder.WriteString(fmt.Sprintf(" AND a.course_id = $%d", len(args)))
	}

	var submissions []models.SubmissionRow
	if err := r.db.SelectContext(ctx, &submissions, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	return submissions, nil
}

func (r *AnalyticsRepository) fetchMemorization(ctx context.Context, courseID string) ([]models.MemorizationRow, error) {
	var builder strings.Builder
	builder.WriteString("SELECT id, student_id, course_id, unit_name, progress, completed, completion_date FROM memorization_units WHERE 1=1")
	var args []interface{}
	if courseID != "" {
		args = append(args, courseID)
		builder.WriteString(fmt.Sprintf(" AND course_id = $%d", len(args)))
	}

	var memorization []models.MemorizationRow
	if err := r.db.SelectContext(ctx, &memorization, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query memorization units: %w", err)
	}
	return memorization, nil
}
