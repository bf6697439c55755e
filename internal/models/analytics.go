package models

import "time"

// AttendanceStatus enumerates attendance record outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// SubmissionStatus enumerates assignment submission states.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "PENDING"
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionGraded    SubmissionStatus = "GRADED"
	SubmissionReturned  SubmissionStatus = "RETURNED"
)

// TimeWindow is a half-open [Start, End) reporting interval.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// PersonRow is a read-only projection of the people table.
type PersonRow struct {
	ID       string   `db:"id"`
	Role     UserRole `db:"role"`
	FullName string   `db:"full_name"`
}

// CourseRow is a read-only projection of the courses table.
type CourseRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	TeacherID string `db:"teacher_id"`
}

// EnrollmentRow links a student to a course.
type EnrollmentRow struct {
	CourseID  string `db:"course_id"`
	StudentID string `db:"student_id"`
}

// AttendanceRow is one attendance record inside the report window.
type AttendanceRow struct {
	ID        string           `db:"id"`
	StudentID string           `db:"student_id"`
	CourseID  string           `db:"course_id"`
	Date      time.Time        `db:"date"`
	Status    AttendanceStatus `db:"status"`
}

// SubmissionRow is a submission joined with its assignment's course.
type SubmissionRow struct {
	ID           string           `db:"id"`
	AssignmentID string           `db:"assignment_id"`
	CourseID     string           `db:"course_id"`
	StudentID    string           `db:"student_id"`
	Grade        *float64         `db:"grade"`
	Status       SubmissionStatus `db:"status"`
}

// MemorizationRow tracks one student's progress on a scripture unit.
type MemorizationRow struct {
	ID             string     `db:"id"`
	StudentID      string     `db:"student_id"`
	CourseID       string     `db:"course_id"`
	UnitName       string     `db:"unit_name"`
	Progress       float64    `db:"progress"`
	Completed      bool       `db:"completed"`
	CompletionDate *time.Time `db:"completion_date"`
}

// OverviewTotals carries the window-independent entity counts.
type OverviewTotals struct {
	TotalStudents int `db:"total_students"`
	TotalTeachers int `db:"total_teachers"`
	TotalCourses  int `db:"total_courses"`
}

// AnalyticsSnapshot is the immutable in-memory dataset every aggregator reads.
// Rows are fetched once per request; the grouped indices below let aggregators
// run as pure reductions without further persistence round-trips.
type AnalyticsSnapshot struct {
	Window TimeWindow

	People       []PersonRow
	Courses      []CourseRow
	Enrollments  []EnrollmentRow
	Attendance   []AttendanceRow
	Submissions  []SubmissionRow
	Memorization []MemorizationRow

	PersonByID            map[string]PersonRow
	CoursesByTeacher      map[string][]CourseRow
	StudentsByCourse      map[string][]string
	AttendanceByCourse    map[string][]AttendanceRow
	AttendanceByStudent   map[string][]AttendanceRow
	SubmissionsByCourse   map[string][]SubmissionRow
	SubmissionsByStudent  map[string][]SubmissionRow
	MemorizationByStudent map[string][]MemorizationRow
	MemorizationByUnit    map[string][]MemorizationRow
}

// NewAnalyticsSnapshot groups the fetched row sets into lookup maps.
func NewAnalyticsSnapshot(window TimeWindow, people []PersonRow, courses []CourseRow, enrollments []EnrollmentRow, attendance []AttendanceRow, submissions []SubmissionRow, memorization []MemorizationRow) *AnalyticsSnapshot {
	snap := &AnalyticsSnapshot{
		Window:       window,
		People:       people,
		Courses:      courses,
		Enrollments:  enrollments,
		Attendance:   attendance,
		Submissions:  submissions,
		Memorization: memorization,

		PersonByID:            make(map[string]PersonRow, len(people)),
		CoursesByTeacher:      make(map[string][]CourseRow),
		StudentsByCourse:      make(map[string][]string),
		AttendanceByCourse:    make(map[string][]AttendanceRow),
		AttendanceByStudent:   make(map[string][]AttendanceRow),
		SubmissionsByCourse:   make(map[string][]SubmissionRow),
		SubmissionsByStudent:  make(map[string][]SubmissionRow),
		MemorizationByStudent: make(map[string][]MemorizationRow),
		MemorizationByUnit:    make(map[string][]MemorizationRow),
	}

	for _, person := range people {
		snap.PersonByID[person.ID] = person
	}
	for _, course := range courses {
		if course.TeacherID != "" {
			snap.CoursesByTeacher[course.TeacherID] = append(snap.CoursesByTeacher[course.TeacherID], course)
		}
	}
	for _, enrollment := range enrollments {
		snap.StudentsByCourse[enrollment.CourseID] = append(snap.StudentsByCourse[enrollment.CourseID], enrollment.StudentID)
	}
	for _, record := range attendance {
		snap.AttendanceByCourse[record.CourseID] = append(snap.AttendanceByCourse[record.CourseID], record)
		snap.AttendanceByStudent[record.StudentID] = append(snap.AttendanceByStudent[record.StudentID], record)
	}
	for _, submission := range submissions {
		snap.SubmissionsByCourse[submission.CourseID] = append(snap.SubmissionsByCourse[submission.CourseID], submission)
		snap.SubmissionsByStudent[submission.StudentID] = append(snap.SubmissionsByStudent[submission.StudentID], submission)
	}
	for _, unit := range memorization {
		snap.MemorizationByStudent[unit.StudentID] = append(snap.MemorizationByStudent[unit.StudentID], unit)
		snap.MemorizationByUnit[unit.UnitName] = append(snap.MemorizationByUnit[unit.UnitName], unit)
	}

	return snap
}
