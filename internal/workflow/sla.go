package workflow

import "time"

// slaThresholds maps priority to the time a record may sit unresolved before
// it counts as overdue. Reports and publish requests share one table today;
// keeping the tables per kind lets them diverge without code changes.
// Announcements carry no priority-scaled SLA: their only deadline semantics
// are follow-up dates, checked by FollowUpDue.
var slaThresholds = map[Kind]map[Priority]time.Duration{
	KindReport: {
		PriorityUrgent: 2 * time.Hour,
		PriorityHigh:   24 * time.Hour,
		PriorityMedium: 72 * time.Hour,
		PriorityNormal: 72 * time.Hour,
		PriorityLow:    7 * 24 * time.Hour,
	},
	KindPublicPostRequest: {
		PriorityUrgent: 2 * time.Hour,
		PriorityHigh:   24 * time.Hour,
		PriorityMedium: 72 * time.Hour,
		PriorityNormal: 72 * time.Hour,
		PriorityLow:    7 * 24 * time.Hour,
	},
}

// SLAThreshold returns the overdue threshold for a kind/priority pair. The
// second return is false when the kind has no SLA table or the priority is
// unknown.
func SLAThreshold(kind Kind, priority Priority) (time.Duration, bool) {
	table, ok := slaThresholds[kind]
	if !ok {
		return 0, false
	}
	d, ok := table[priority]
	return d, ok
}

// IsOverdue reports whether a record created at createdAt has exceeded its
// SLA threshold as of now. Pure function of its arguments: same inputs, same
// answer.
func IsOverdue(kind Kind, priority Priority, createdAt, now time.Time) bool {
	threshold, ok := SLAThreshold(kind, priority)
	if !ok {
		return false
	}
	return now.Sub(createdAt) > threshold
}

// FollowUpDue reports whether a follow-up dated followUpDate is due as of
// now. A nil date is never due.
func FollowUpDue(followUpDate *time.Time, now time.Time) bool {
	if followUpDate == nil {
		return false
	}
	return !followUpDate.After(now)
}
