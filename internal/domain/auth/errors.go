package auth

import "errors"

var (
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrTokenExpired           = errors.New("token has expired")
	ErrAdminPrivilegeRequired = errors.New("admin or hr role required")
	ErrEmployeeClaimMissing   = errors.New("token carries no employee_id")
	ErrEmailClaimMissing      = errors.New("token carries no email")
)
