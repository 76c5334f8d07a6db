package domain

// Role distinguishes learners from teachers watching class progress.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTeacher Role = "teacher"
)

// Session is the authenticated caller resolved from a bearer token.
type Session struct {
	UserID      string
	DisplayName string
	Role        Role
}

// CanViewProgress reports whether the caller may read a class-progress board.
func (s Session) CanViewProgress() bool {
	return s.Role == RoleTeacher
}
