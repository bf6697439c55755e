package dto

import "time"

// OverviewMetrics summarises the institute-wide key indicators.
type OverviewMetrics struct {
	TotalStudents          int     `json:"totalStudents"`
	TotalTeachers          int     `json:"totalTeachers"`
	TotalCourses           int     `json:"totalCourses"`
	TotalAttendanceRecords int     `json:"totalAttendanceRecords"`
	AverageAttendanceRate  float64 `json:"averageAttendanceRate"`
	ActiveStudents         int     `json:"activeStudents"`
	CompletedAssignments   int     `json:"completedAssignments"`
}

// AttendanceTrendPoint is one calendar day's attendance tally.
type AttendanceTrendPoint struct {
	Date         string  `json:"date"`
	PresentCount int     `json:"presentCount"`
	AbsentCount  int     `json:"absentCount"`
	Rate         float64 `json:"rate"`
}

// CoursePerformanceRow aggregates one course's indicators.
type CoursePerformanceRow struct {
	CourseName           string  `json:"courseName"`
	EnrolledCount        int     `json:"enrolledCount"`
	AttendanceRate       float64 `json:"attendanceRate"`
	CompletedAssignments int     `json:"completedAssignments"`
	AverageGrade         int     `json:"averageGrade"`
}

// MemorizationProgressRow aggregates progress on one scripture unit.
type MemorizationProgressRow struct {
	UnitName          string `json:"unitName"`
	StudentsCompleted int    `json:"studentsCompleted"`
	AverageProgress   int    `json:"averageProgress"`
}

// StudentPerformanceRow ranks a student by composite score.
type StudentPerformanceRow struct {
	StudentName          string  `json:"studentName"`
	AttendanceRate       float64 `json:"attendanceRate"`
	AssignmentsCompleted int     `json:"assignmentsCompleted"`
	AverageGrade         float64 `json:"averageGrade"`
	MemorizationProgress float64 `json:"memorizationProgress"`
	CompositeScore       float64 `json:"compositeScore"`
}

// TeacherEffectivenessRow aggregates indicators across a teacher's courses.
type TeacherEffectivenessRow struct {
	TeacherName         string  `json:"teacherName"`
	CoursesTeaching     int     `json:"coursesTeaching"`
	StudentCount        int     `json:"studentCount"`
	AverageStudentGrade int     `json:"averageStudentGrade"`
	ClassAttendanceRate float64 `json:"classAttendanceRate"`
}

// ComprehensiveAnalyticsReport joins every report section for one window.
type ComprehensiveAnalyticsReport struct {
	TimeRange            string                    `json:"timeRange"`
	WindowStart          time.Time                 `json:"windowStart"`
	WindowEnd            time.Time                 `json:"windowEnd"`
	GeneratedAt          time.Time                 `json:"generatedAt"`
	Overview             OverviewMetrics           `json:"overview"`
	AttendanceTrends     []AttendanceTrendPoint    `json:"attendanceTrends"`
	CoursePerformance    []CoursePerformanceRow    `json:"coursePerformance"`
	MemorizationProgress []MemorizationProgressRow `json:"memorizationProgress"`
	StudentPerformance   []StudentPerformanceRow   `json:"studentPerformance"`
	TeacherEffectiveness []TeacherEffectivenessRow `json:"teacherEffectiveness"`
}
