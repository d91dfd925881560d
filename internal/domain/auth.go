package domain

// SubjectType differentiates students, staff and the system scheduler.
type SubjectType string

const (
	SubjectTypeStudent SubjectType = "STUDENT"
	SubjectTypeStaff   SubjectType = "STAFF"
	SubjectTypeSystem  SubjectType = "SYSTEM"
)
