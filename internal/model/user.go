package model

// UserRole 由外部认证服务签发在 JWT 中
type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

func (r UserRole) IsStaff() bool {
	return r == Teacher || r == Admin
}
