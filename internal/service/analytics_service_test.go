package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/darulhuda/institute-api/internal/models"
	appErrors "github.com/darulhuda/institute-api/pkg/errors"
)

type fakeAnalyticsStore struct {
	snapshot    *models.AnalyticsSnapshot
	snapshotErr error
	totals      models.OverviewTotals
	totalsErr   error

	fetchCalls  int
	totalsCalls int
}

func (f *fakeAnalyticsStore) FetchSnapshot(_ context.Context, window models.TimeWindow, _ string) (*models.AnalyticsSnapshot, error) {
	f.fetchCalls++
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	if f.snapshot != nil {
		return f.snapshot, nil
	}
	return models.NewAnalyticsSnapshot(window, nil, nil, nil, nil, nil, nil), nil
}

func (f *fakeAnalyticsStore) OverviewTotals(context.Context) (models.OverviewTotals, error) {
	f.totalsCalls++
	if f.totalsErr != nil {
		return models.OverviewTotals{}, f.totalsErr
	}
	return f.totals, nil
}

type fakeCacheRepo struct {
	entries map[string][]byte
	sets    int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string][]byte{}}
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	f.sets++
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(context.Context, string) error {
	return nil
}

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestAnalyticsService(store *fakeAnalyticsStore, cache *CacheService) *AnalyticsService {
	svc := NewAnalyticsService(store, cache, nil, zap.NewNop(), AnalyticsServiceConfig{})
	svc.now = func() time.Time { return testNow }
	return svc
}

func windowedSnapshot(attendance []models.AttendanceRow, submissions []models.SubmissionRow, memorization []models.MemorizationRow, people []models.PersonRow, courses []models.CourseRow, enrollments []models.EnrollmentRow) *models.AnalyticsSnapshot {
	window, _ := ResolveTimeWindow(TimeRangeThreeMonth, testNow)
	return models.NewAnalyticsSnapshot(window, people, courses, enrollments, attendance, submissions, memorization)
}

func attendanceOn(day time.Time, studentID, courseID string, status models.AttendanceStatus) models.AttendanceRow {
	return models.AttendanceRow{
		ID:        fmt.Sprintf("att-%s-%s-%s", studentID, day.Format("0102"), status),
		StudentID: studentID,
		CourseID:  courseID,
		Date:      day,
		Status:    status,
	}
}

func TestComprehensiveReportOverviewAttendanceRate(t *testing.T) {
	day := testNow.AddDate(0, 0, -10)
	var attendance []models.AttendanceRow
	for i := 0; i < 7; i++ {
		attendance = append(attendance, attendanceOn(day, fmt.Sprintf("s%d", i), "c1", models.AttendancePresent))
	}
	for i := 7; i < 10; i++ {
		attendance = append(attendance, attendanceOn(day, fmt.Sprintf("s%d", i), "c1", models.AttendanceAbsent))
	}

	store := &fakeAnalyticsStore{
		snapshot: windowedSnapshot(attendance, nil, nil, nil, nil, nil),
		totals:   models.OverviewTotals{TotalStudents: 10, TotalTeachers: 2, TotalCourses: 1},
	}
	svc := newTestAnalyticsService(store, nil)

	report, cacheHit, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.NoError(t, err)
	assert.False(t, cacheHit)

	assert.Equal(t, 10, report.Overview.TotalStudents)
	assert.Equal(t, 10, report.Overview.TotalAttendanceRecords)
	assert.InDelta(t, 70.0, report.Overview.AverageAttendanceRate, 1e-9)
	assert.Equal(t, 1, store.fetchCalls)
	assert.Equal(t, 1, store.totalsCalls)
}

func TestComprehensiveReportZeroActivityProducesZeroRates(t *testing.T) {
	people := []models.PersonRow{
		{ID: "s1", Role: models.RoleStudent, FullName: "Aisha"},
		{ID: "t1", Role: models.RoleTeacher, FullName: "Ustadh Karim"},
	}
	courses := []models.CourseRow{{ID: "c1", Name: "Fiqh", TeacherID: "t1"}}
	enrollments := []models.EnrollmentRow{{CourseID: "c1", StudentID: "s1"}}

	store := &fakeAnalyticsStore{
		snapshot: windowedSnapshot(nil, nil, nil, people, courses, enrollments),
		totals:   models.OverviewTotals{TotalStudents: 1, TotalTeachers: 1, TotalCourses: 1},
	}
	svc := newTestAnalyticsService(store, nil)

	report, _, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.NoError(t, err)

	assert.Zero(t, report.Overview.AverageAttendanceRate)
	require.Len(t, report.CoursePerformance, 1)
	assert.Zero(t, report.CoursePerformance[0].AverageGrade)
	assert.Zero(t, report.CoursePerformance[0].AttendanceRate)
	require.Len(t, report.StudentPerformance, 1)
	assert.Zero(t, report.StudentPerformance[0].AverageGrade)
	assert.Zero(t, report.StudentPerformance[0].CompositeScore)
	assert.Empty(t, report.AttendanceTrends)
}

func TestComprehensiveReportOverviewFailureIsFatal(t *testing.T) {
	store := &fakeAnalyticsStore{
		snapshot:  windowedSnapshot(nil, nil, nil, nil, nil, nil),
		totalsErr: errors.New("connection reset"),
	}
	svc := newTestAnalyticsService(store, nil)

	report, _, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.Error(t, err)
	assert.Nil(t, report)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	// the standalone trend endpoint never touches the overview totals
	trends, err := svc.AttendanceTrends(context.Background(), "3months")
	require.NoError(t, err)
	assert.Empty(t, trends)
	assert.Equal(t, 1, store.totalsCalls)
}

func TestComprehensiveReportSnapshotFailureIsFatal(t *testing.T) {
	store := &fakeAnalyticsStore{snapshotErr: errors.New("timeout")}
	svc := newTestAnalyticsService(store, nil)

	_, _, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
	assert.Zero(t, store.totalsCalls)
}

func TestAttendanceTrendOrderingAndRate(t *testing.T) {
	d1 := testNow.AddDate(0, 0, -3)
	d2 := testNow.AddDate(0, 0, -1)
	attendance := []models.AttendanceRow{
		attendanceOn(d2, "s1", "c1", models.AttendancePresent),
		attendanceOn(d1, "s1", "c1", models.AttendancePresent),
		attendanceOn(d1, "s2", "c1", models.AttendanceAbsent),
		attendanceOn(d1, "s3", "c1", models.AttendanceLate),
		attendanceOn(d1, "s4", "c1", models.AttendanceExcused),
	}
	store := &fakeAnalyticsStore{snapshot: windowedSnapshot(attendance, nil, nil, nil, nil, nil)}
	svc := newTestAnalyticsService(store, nil)

	trends, err := svc.AttendanceTrends(context.Background(), "3months")
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, d1.Format("2006-01-02"), trends[0].Date)
	assert.Equal(t, d2.Format("2006-01-02"), trends[1].Date)

	// late and excused records count toward neither side of the day rate
	assert.Equal(t, 1, trends[0].PresentCount)
	assert.Equal(t, 1, trends[0].AbsentCount)
	assert.InDelta(t, 50.0, trends[0].Rate, 1e-9)
	assert.InDelta(t, 100.0, trends[1].Rate, 1e-9)
}

func TestStudentPerformanceRankingAndCap(t *testing.T) {
	var people []models.PersonRow
	var attendance []models.AttendanceRow
	day := testNow.AddDate(0, 0, -5)
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("s%02d", i)
		people = append(people, models.PersonRow{ID: id, Role: models.RoleStudent, FullName: fmt.Sprintf("Student %02d", i)})
		// student i attends i of 24 sessions, so composites strictly increase
		for j := 0; j < 24; j++ {
			status := models.AttendanceAbsent
			if j < i {
				status = models.AttendancePresent
			}
			attendance = append(attendance, models.AttendanceRow{
				ID:        fmt.Sprintf("a-%s-%d", id, j),
				StudentID: id,
				CourseID:  "c1",
				Date:      day,
				Status:    status,
			})
		}
	}

	store := &fakeAnalyticsStore{snapshot: windowedSnapshot(attendance, nil, nil, people, nil, nil)}
	svc := newTestAnalyticsService(store, nil)

	rows, err := svc.StudentPerformance(context.Background(), "3months")
	require.NoError(t, err)
	require.Len(t, rows, 20)

	assert.Equal(t, "Student 24", rows[0].StudentName)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].CompositeScore, rows[i].CompositeScore)
	}
}

func TestStudentPerformanceTieBreakByName(t *testing.T) {
	people := []models.PersonRow{
		{ID: "s2", Role: models.RoleStudent, FullName: "Zaynab"},
		{ID: "s1", Role: models.RoleStudent, FullName: "Amina"},
		{ID: "t1", Role: models.RoleTeacher, FullName: "Ustadh Karim"},
	}
	store := &fakeAnalyticsStore{snapshot: windowedSnapshot(nil, nil, nil, people, nil, nil)}
	svc := newTestAnalyticsService(store, nil)

	first, err := svc.StudentPerformance(context.Background(), "3months")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Amina", first[0].StudentName)
	assert.Equal(t, "Zaynab", first[1].StudentName)

	second, err := svc.StudentPerformance(context.Background(), "3months")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemorizationProgressCountsOnlyInWindowCompletions(t *testing.T) {
	inWindow := testNow.AddDate(0, 0, -7)
	outOfWindow := testNow.AddDate(0, -6, 0)
	memorization := []models.MemorizationRow{
		{ID: "m1", StudentID: "s1", CourseID: "c1", UnitName: "Juz Amma", Progress: 100, Completed: true, CompletionDate: &inWindow},
		{ID: "m2", StudentID: "s2", CourseID: "c1", UnitName: "Juz Amma", Progress: 100, Completed: true, CompletionDate: &outOfWindow},
		{ID: "m3", StudentID: "s3", CourseID: "c1", UnitName: "Juz Tabarak", Progress: 40, Completed: false},
	}
	store := &fakeAnalyticsStore{
		snapshot: windowedSnapshot(nil, nil, memorization, nil, nil, nil),
		totals:   models.OverviewTotals{TotalStudents: 3},
	}
	svc := newTestAnalyticsService(store, nil)

	report, _, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.NoError(t, err)
	require.Len(t, report.MemorizationProgress, 2)

	assert.Equal(t, "Juz Amma", report.MemorizationProgress[0].UnitName)
	assert.Equal(t, 1, report.MemorizationProgress[0].StudentsCompleted)
	assert.Equal(t, 100, report.MemorizationProgress[0].AverageProgress)
	assert.Equal(t, "Juz Tabarak", report.MemorizationProgress[1].UnitName)
	assert.Zero(t, report.MemorizationProgress[1].StudentsCompleted)
}

func TestTeacherEffectivenessRequiresCourses(t *testing.T) {
	people := []models.PersonRow{
		{ID: "t1", Role: models.RoleTeacher, FullName: "Ustadh Karim"},
		{ID: "t2", Role: models.RoleTeacher, FullName: "Ustadha Layla"},
	}
	courses := []models.CourseRow{{ID: "c1", Name: "Tajweed", TeacherID: "t1"}}
	grade := 88.0
	submissions := []models.SubmissionRow{
		{ID: "sub1", AssignmentID: "as1", CourseID: "c1", StudentID: "s1", Grade: &grade, Status: models.SubmissionGraded},
	}

	store := &fakeAnalyticsStore{snapshot: windowedSnapshot(nil, submissions, nil, people, courses, nil)}
	svc := newTestAnalyticsService(store, nil)

	report, _, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.NoError(t, err)
	require.Len(t, report.TeacherEffectiveness, 1)
	assert.Equal(t, "Ustadh Karim", report.TeacherEffectiveness[0].TeacherName)
	assert.Equal(t, 88, report.TeacherEffectiveness[0].AverageStudentGrade)
}

func TestComprehensiveReportCacheRoundTrip(t *testing.T) {
	repo := newFakeCacheRepo()
	cacheSvc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	store := &fakeAnalyticsStore{
		snapshot: windowedSnapshot(nil, nil, nil, nil, nil, nil),
		totals:   models.OverviewTotals{TotalStudents: 5},
	}
	svc := newTestAnalyticsService(store, cacheSvc)

	first, cacheHit, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, repo.sets)

	second, cacheHit, err := svc.ComprehensiveReport(context.Background(), "3months", "")
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, 1, store.fetchCalls)
	assert.Equal(t, first.Overview, second.Overview)
}

func TestComprehensiveReportUnknownRangeUsesDefault(t *testing.T) {
	store := &fakeAnalyticsStore{snapshot: windowedSnapshot(nil, nil, nil, nil, nil, nil)}
	svc := newTestAnalyticsService(store, nil)

	report, _, err := svc.ComprehensiveReport(context.Background(), "fortnight", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeRange, report.TimeRange)
	assert.Equal(t, 90*24*time.Hour, report.WindowEnd.Sub(report.WindowStart))
}
