package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/darulhuda/institute-api/internal/dto"
	"github.com/darulhuda/institute-api/internal/models"
	appErrors "github.com/darulhuda/institute-api/pkg/errors"
)

// AnalyticsStore describes the persistence layer required by AnalyticsService.
type AnalyticsStore interface {
	FetchSnapshot(ctx context.Context, window models.TimeWindow, courseID string) (*models.AnalyticsSnapshot, error)
	OverviewTotals(ctx context.Context) (models.OverviewTotals, error)
}

// AnalyticsServiceConfig tunes report composition behaviour.
type AnalyticsServiceConfig struct {
	CacheTTL         time.Duration
	FetchTimeout     time.Duration
	TopStudentLimit  int
	DefaultTimeRange string
}

// AnalyticsService composes multi-dimensional reports from a single bulk
// fetch. It holds configuration only; every request works on its own snapshot.
type AnalyticsService struct {
	store   AnalyticsStore
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     AnalyticsServiceConfig
}

// NewAnalyticsService constructs an AnalyticsService with sane defaults.
func NewAnalyticsService(store AnalyticsStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg AnalyticsServiceConfig) *AnalyticsService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.TopStudentLimit <= 0 {
		cfg.TopStudentLimit = 20
	}
	if _, ok := timeRangeDurations[cfg.DefaultTimeRange]; !ok {
		cfg.DefaultTimeRange = DefaultTimeRange
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// ComprehensiveReport resolves the window, bulk-fetches the snapshot once and
// fans the six aggregators out over it concurrently. The boolean indicates
// whether the report originated from cache.
//
// The overview section is fatal: if its totals round-trip or reduction fails
// the whole report fails. Every other section replaces its own failure with an
// empty sequence so the rest of the report still renders.
func (s *AnalyticsService) ComprehensiveReport(ctx context.Context, timeRange, courseID string) (*dto.ComprehensiveAnalyticsReport, bool, error) {
	if timeRange == "" {
		timeRange = s.cfg.DefaultTimeRange
	}
	now := s.now()
	window, token := ResolveTimeWindow(timeRange, now)

	cacheKey := makeAnalyticsCacheKey("report", token, courseID)
	if s.cache != nil {
		var cached dto.ComprehensiveAnalyticsReport
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("report cache lookup failed", zap.Error(err))
		}
		if hit {
			return &cached, true, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	snap, err := s.store.FetchSnapshot(fetchCtx, window, courseID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "analytics snapshot fetch failed")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_snapshot", time.Since(start))
	}

	var (
		overview    dto.OverviewMetrics
		overviewErr error

		trends       = make([]dto.AttendanceTrendPoint, 0)
		courses      = make([]dto.CoursePerformanceRow, 0)
		memorization = make([]dto.MemorizationProgressRow, 0)
		students     = make([]dto.StudentPerformanceRow, 0)
		teachers     = make([]dto.TeacherEffectivenessRow, 0)
	)

	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				overviewErr = fmt.Errorf("overview aggregation: %v", r)
			}
		}()
		totals, err := s.store.OverviewTotals(fetchCtx)
		if err != nil {
			overviewErr = err
			return
		}
		overview = buildOverview(snap, totals, now)
	}()
	go s.runSection(&wg, "attendance_trends", func() { trends = buildAttendanceTrend(snap) })
	go s.runSection(&wg, "course_performance", func() { courses = buildCoursePerformance(snap) })
	go s.runSection(&wg, "memorization_progress", func() { memorization = buildMemorizationProgress(snap) })
	go s.runSection(&wg, "student_performance", func() { students = buildStudentPerformance(snap, s.cfg.TopStudentLimit) })
	go s.runSection(&wg, "teacher_effectiveness", func() { teachers = buildTeacherEffectiveness(snap) })
	wg.Wait()

	if overviewErr != nil {
		s.logger.Error("overview aggregation failed", zap.Error(overviewErr))
		return nil, false, appErrors.Wrap(overviewErr, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "overview aggregation failed")
	}

	report := &dto.ComprehensiveAnalyticsReport{
		TimeRange:            token,
		WindowStart:          window.Start,
		WindowEnd:            window.End,
		GeneratedAt:          now.UTC(),
		Overview:             overview,
		AttendanceTrends:     trends,
		CoursePerformance:    courses,
		MemorizationProgress: memorization,
		StudentPerformance:   students,
		TeacherEffectiveness: teachers,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache report", zap.Error(err))
		}
	}
	return report, false, nil
}

// AttendanceTrends computes only the attendance-trend section. It never
// touches the overview totals, so it stays available when those fail.
func (s *AnalyticsService) AttendanceTrends(ctx context.Context, timeRange string) ([]dto.AttendanceTrendPoint, error) {
	snap, err := s.fetchWindowSnapshot(ctx, timeRange)
	if err != nil {
		return nil, err
	}
	return buildAttendanceTrend(snap), nil
}

// StudentPerformance computes only the ranked student section.
func (s *AnalyticsService) StudentPerformance(ctx context.Context, timeRange string) ([]dto.StudentPerformanceRow, error) {
	snap, err := s.fetchWindowSnapshot(ctx, timeRange)
	if err != nil {
		return nil, err
	}
	return buildStudentPerformance(snap, s.cfg.TopStudentLimit), nil
}

func (s *AnalyticsService) fetchWindowSnapshot(ctx context.Context, timeRange string) (*models.AnalyticsSnapshot, error) {
	if timeRange == "" {
		timeRange = s.cfg.DefaultTimeRange
	}
	window, _ := ResolveTimeWindow(timeRange, s.now())

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	snap, err := s.store.FetchSnapshot(fetchCtx, window, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "analytics snapshot fetch failed")
	}
	return snap, nil
}

// runSection executes one degradable aggregation. A failure leaves the
// section's preset empty value in place and logs a warning; it never takes
// down the surrounding report.
func (s *AnalyticsService) runSection(wg *sync.WaitGroup, name string, fn func()) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("analytics section degraded to empty",
				zap.String("section", name),
				zap.Any("reason", r),
			)
		}
	}()
	fn()
}

func buildOverview(snap *models.AnalyticsSnapshot, totals models.OverviewTotals, now time.Time) dto.OverviewMetrics {
	presentCount := 0
	for _, record := range snap.Attendance {
		if record.Status == models.AttendancePresent {
			presentCount++
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	activeStudents := make(map[string]struct{})
	for _, record := range snap.Attendance {
		if !record.Date.Before(monthStart) {
			activeStudents[record.StudentID] = struct{}{}
		}
	}

	completedAssignments := 0
	for _, submission := range snap.Submissions {
		if submission.Status == models.SubmissionGraded {
			completedAssignments++
		}
	}

	return dto.OverviewMetrics{
		TotalStudents:          totals.TotalStudents,
		TotalTeachers:          totals.TotalTeachers,
		TotalCourses:           totals.TotalCourses,
		TotalAttendanceRecords: len(snap.Attendance),
		AverageAttendanceRate:  percentage(presentCount, len(snap.Attendance)),
		ActiveStudents:         len(activeStudents),
		CompletedAssignments:   completedAssignments,
	}
}

func buildAttendanceTrend(snap *models.AnalyticsSnapshot) []dto.AttendanceTrendPoint {
	byDay := make(map[string]*dto.AttendanceTrendPoint)
	for _, record := range snap.Attendance {
		day := record.Date.UTC().Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &dto.AttendanceTrendPoint{Date: day}
			byDay[day] = point
		}
		switch record.Status {
		case models.AttendancePresent:
			point.PresentCount++
		case models.AttendanceAbsent:
			point.AbsentCount++
		}
	}

	points := make([]dto.AttendanceTrendPoint, 0, len(byDay))
	for _, point := range byDay {
		point.Rate = percentage(point.PresentCount, point.PresentCount+point.AbsentCount)
		points = append(points, *point)
	}
	// days without records stay absent from the series; gaps are deliberate
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

func buildCoursePerformance(snap *models.AnalyticsSnapshot) []dto.CoursePerformanceRow {
	rows := make([]dto.CoursePerformanceRow, 0, len(snap.Courses))
	for _, course := range snap.Courses {
		attendance := snap.AttendanceByCourse[course.ID]
		presentCount := 0
		for _, record := range attendance {
			if record.Status == models.AttendancePresent {
				presentCount++
			}
		}

		completed := 0
		var gradeTotal float64
		gradedCount := 0
		for _, submission := range snap.SubmissionsByCourse[course.ID] {
			if submission.Status == models.SubmissionGraded {
				completed++
			}
			if submission.Grade != nil {
				gradeTotal += *submission.Grade
				gradedCount++
			}
		}

		rows = append(rows, dto.CoursePerformanceRow{
			CourseName:           course.Name,
			EnrolledCount:        len(snap.StudentsByCourse[course.ID]),
			AttendanceRate:       percentage(presentCount, len(attendance)),
			CompletedAssignments: completed,
			AverageGrade:         roundedMean(gradeTotal, gradedCount),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CourseName < rows[j].CourseName })
	return rows
}

func buildMemorizationProgress(snap *models.AnalyticsSnapshot) []dto.MemorizationProgressRow {
	rows := make([]dto.MemorizationProgressRow, 0, len(snap.MemorizationByUnit))
	for unitName, units := range snap.MemorizationByUnit {
		completed := 0
		var progressTotal float64
		for _, unit := range units {
			if unit.Completed && unit.CompletionDate != nil && snap.Window.Contains(*unit.CompletionDate) {
				completed++
			}
			progressTotal += unit.Progress
		}
		rows = append(rows, dto.MemorizationProgressRow{
			UnitName:          unitName,
			StudentsCompleted: completed,
			AverageProgress:   roundedMean(progressTotal, len(units)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StudentsCompleted != rows[j].StudentsCompleted {
			return rows[i].StudentsCompleted > rows[j].StudentsCompleted
		}
		return rows[i].UnitName < rows[j].UnitName
	})
	return rows
}

func buildStudentPerformance(snap *models.AnalyticsSnapshot, limit int) []dto.StudentPerformanceRow {
	rows := make([]dto.StudentPerformanceRow, 0)
	for _, person := range snap.People {
		if person.Role != models.RoleStudent {
			continue
		}

		attendance := snap.AttendanceByStudent[person.ID]
		presentCount := 0
		for _, record := range attendance {
			if record.Status == models.AttendancePresent {
				presentCount++
			}
		}
		attendanceRate := percentage(presentCount, len(attendance))

		submissions := snap.SubmissionsByStudent[person.ID]
		var gradeTotal float64
		gradedCount := 0
		for _, submission := range submissions {
			if submission.Grade != nil {
				gradeTotal += *submission.Grade
				gradedCount++
			}
		}
		averageGrade := mean(gradeTotal, gradedCount)

		memorization := snap.MemorizationByStudent[person.ID]
		var progressTotal float64
		for _, unit := range memorization {
			progressTotal += unit.Progress
		}
		memorizationProgress := mean(progressTotal, len(memorization))

		rows = append(rows, dto.StudentPerformanceRow{
			StudentName:          person.FullName,
			AttendanceRate:       attendanceRate,
			AssignmentsCompleted: len(submissions),
			AverageGrade:         averageGrade,
			MemorizationProgress: memorizationProgress,
			CompositeScore:       (attendanceRate + averageGrade + memorizationProgress) / 3,
		})
	}

	// composite descending; names break ties so repeated runs stay stable
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CompositeScore != rows[j].CompositeScore {
			return rows[i].CompositeScore > rows[j].CompositeScore
		}
		return rows[i].StudentName < rows[j].StudentName
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func buildTeacherEffectiveness(snap *models.AnalyticsSnapshot) []dto.TeacherEffectivenessRow {
	rows := make([]dto.TeacherEffectivenessRow, 0, len(snap.CoursesByTeacher))
	for teacherID, courses := range snap.CoursesByTeacher {
		students := make(map[string]struct{})
		presentCount, attendanceCount := 0, 0
		var gradeTotal float64
		gradedCount := 0

		for _, course := range courses {
			for _, studentID := range snap.StudentsByCourse[course.ID] {
				students[studentID] = struct{}{}
			}
			for _, record := range snap.AttendanceByCourse[course.ID] {
				attendanceCount++
				if record.Status == models.AttendancePresent {
					presentCount++
				}
			}
			for _, submission := range snap.SubmissionsByCourse[course.ID] {
				if submission.Grade != nil {
					gradeTotal += *submission.Grade
					gradedCount++
				}
			}
		}

		name := teacherID
		if person, ok := snap.PersonByID[teacherID]; ok {
			name = person.FullName
		}
		rows = append(rows, dto.TeacherEffectivenessRow{
			TeacherName:         name,
			CoursesTeaching:     len(courses),
			StudentCount:        len(students),
			AverageStudentGrade: roundedMean(gradeTotal, gradedCount),
			ClassAttendanceRate: percentage(presentCount, attendanceCount),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AverageStudentGrade != rows[j].AverageStudentGrade {
			return rows[i].AverageStudentGrade > rows[j].AverageStudentGrade
		}
		return rows[i].TeacherName < rows[j].TeacherName
	})
	return rows
}

// percentage returns count/total on a 0-100 scale, 0 when the denominator is 0.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func mean(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func roundedMean(total float64, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(total / float64(count)))
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
