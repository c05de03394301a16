package model

import (
	"errors"
	"strings"
)

// Recognized categories, in the order the UI offers them.
const (
	CategoryLearning  = "Learning"
	CategoryHealth    = "Health"
	CategorySpiritual = "Spiritual"
	CategoryContent   = "Content"
	CategoryWork      = "Work"
	CategoryOther     = "Other"

	// CategoryAll is the list filter sentinel meaning "no category filter".
	CategoryAll = "All"
)

const (
	MinXP = 0
	MaxXP = 1000
)

var Categories = []string{
	CategoryLearning,
	CategoryHealth,
	CategorySpiritual,
	CategoryContent,
	CategoryWork,
	CategoryOther,
}

var ErrEmptyTaskName = errors.New("task name is required")

// PlannerItem is a single task or habit entry in the planner.
type PlannerItem struct {
	ID       uint    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	User     string  `gorm:"column:user;not null;index" json:"user"`
	Date     Date    `gorm:"column:date;not null;index" json:"date"`
	Category string  `gorm:"column:category;not null;index" json:"category"`
	TaskName string  `gorm:"column:task_name;not null" json:"task_name"`
	Details  *string `gorm:"column:details" json:"details"`
	IsDone   bool    `gorm:"column:is_done;default:false" json:"is_done"`
	XP       int     `gorm:"column:xp;default:0" json:"xp"`
}

func (PlannerItem) TableName() string { return "planner_items" }

// DetailsText returns the details or an empty string when unset.
func (p PlannerItem) DetailsText() string {
	if p.Details == nil {
		return ""
	}
	return *p.Details
}

// CheckTaskName trims the name and rejects empty or whitespace-only values.
func CheckTaskName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrEmptyTaskName
	}
	return trimmed, nil
}

func IsKnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// NormalizeCategory maps unrecognized input to CategoryOther.
func NormalizeCategory(name string) string {
	name = strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return CategoryOther
}

func ClampXP(xp int) int {
	switch {
	case xp < MinXP:
		return MinXP
	case xp > MaxXP:
		return MaxXP
	default:
		return xp
	}
}

// OptionalText converts a trimmed string to the nullable details column value.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
