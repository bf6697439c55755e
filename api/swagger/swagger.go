package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Institute Analytics API",
        "description": "Attendance, grade and memorization analytics for the institute",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Analytics", "description": "Aggregated reporting endpoints"}
    ],
    "paths": {
        "/analytics/dashboard": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Comprehensive analytics report",
                "description": "Six-section report over the requested time window. Requires DIRECTOR or TEACHER role.",
                "parameters": [
                    {"name": "timeRange", "in": "query", "type": "string", "enum": ["1month", "3months", "6months", "1year"]},
                    {"name": "courseId", "in": "query", "type": "string", "format": "uuid"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed courseId"},
                    "401": {"description": "Missing or invalid token"},
                    "403": {"description": "Insufficient role"},
                    "500": {"description": "Persistence failure"}
                }
            }
        },
        "/analytics/export": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Export the comprehensive report",
                "description": "Streams the report as an attachment. Unknown format falls back to JSON. Requires DIRECTOR role.",
                "parameters": [
                    {"name": "timeRange", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string", "format": "uuid"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "produces": ["application/json", "text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "Attachment"},
                    "401": {"description": "Missing or invalid token"},
                    "403": {"description": "Insufficient role"}
                }
            }
        },
        "/analytics/attendance-trends": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Per-day attendance series",
                "parameters": [
                    {"name": "timeRange", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        },
        "/analytics/student-performance": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Ranked student performance",
                "parameters": [
                    {"name": "timeRange", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        }
    },
    "definitions": {
        "OverviewMetrics": {
            "type": "object",
            "properties": {
                "totalStudents": {"type": "integer"},
                "totalTeachers": {"type": "integer"},
                "totalCourses": {"type": "integer"},
                "totalAttendanceRecords": {"type": "integer"},
                "averageAttendanceRate": {"type": "number"},
                "activeStudents": {"type": "integer"},
                "completedAssignments": {"type": "integer"}
            }
        },
        "AttendanceTrendPoint": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "presentCount": {"type": "integer"},
                "absentCount": {"type": "integer"},
                "rate": {"type": "number"}
            }
        },
        "StudentPerformanceRow": {
            "type": "object",
            "properties": {
                "studentName": {"type": "string"},
                "attendanceRate": {"type": "number"},
                "assignmentsCompleted": {"type": "integer"},
                "averageGrade": {"type": "number"},
                "memorizationProgress": {"type": "number"},
                "compositeScore": {"type": "number"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
