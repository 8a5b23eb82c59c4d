package services

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// priorityOrder sorts urgent first. Kept as a CASE expression so the same
// query runs on postgres and the sqlite test store.
const priorityOrder = "CASE priority " +
	"WHEN 'urgent' THEN 0 " +
	"WHEN 'high' THEN 1 " +
	"WHEN 'medium' THEN 2 " +
	"WHEN 'normal' THEN 2 " +
	"WHEN 'low' THEN 3 " +
	"ELSE 4 END"

// queueOrder is the fairness ordering for moderation queues: highest priority
// first, oldest first within a priority.
func queueOrder(q *gorm.DB) *gorm.DB {
	return q.Order(priorityOrder).Order("created_at ASC")
}

// likePattern builds a case-insensitive substring pattern. Plain LIKE over
// LOWER() rather than ILIKE so sqlite tests run the same SQL.
func likePattern(q string) string {
	return "%" + strings.ToLower(q) + "%"
}

// decodeTags parses a JSONB tags column; malformed or empty columns decode to
// nil.
func decodeTags(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}

// hasTag reports case-insensitive tag membership.
func hasTag(raw datatypes.JSON, tag string) bool {
	for _, t := range decodeTags(raw) {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func encodeTags(tags []string) datatypes.JSON {
	if len(tags) == 0 {
		return nil
	}
	raw, _ := json.Marshal(tags)
	return datatypes.JSON(raw)
}
