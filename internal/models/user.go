package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent  UserRole = "STUDENT"
	RoleTeacher  UserRole = "TEACHER"
	RoleDirector UserRole = "DIRECTOR"
	RoleParent   UserRole = "PARENT"
	RoleAdmin    UserRole = "ADMIN"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
