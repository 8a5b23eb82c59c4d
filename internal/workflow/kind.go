package workflow

// Kind identifies which moderated entity a record belongs to.
type Kind string

const (
	KindReport            Kind = "report"
	KindPublicPostRequest Kind = "public_post_request"
	KindAnnouncement      Kind = "announcement"
)

// Kinds lists every registered entity kind.
func Kinds() []Kind {
	return []Kind{KindReport, KindPublicPostRequest, KindAnnouncement}
}

// ParseKind maps a user-supplied string to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindReport, KindPublicPostRequest, KindAnnouncement:
		return Kind(s), true
	}
	return "", false
}

// Priority drives SLA thresholds and queue ordering.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for queue sorting; lower rank sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium, PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Role is the actor role supplied by the identity layer. The engine only
// checks it against the transition rules; it never issues or refreshes it.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleSystem    Role = "system"
)
