package model

// ItemFilter selects planner items for one user. Zero-valued fields do not filter.
type ItemFilter struct {
	User     string
	Category string
	Date     *Date
	Search   string
}

// ItemInput holds the data needed to create an item.
type ItemInput struct {
	User     string
	Date     Date
	Category string
	TaskName string
	Details  *string
	XP       int
}

// ItemPatch lists the fields an update changes; nil fields keep their value.
type ItemPatch struct {
	Date     *Date   `json:"date,omitempty"`
	Category *string `json:"category,omitempty"`
	TaskName *string `json:"task_name,omitempty"`
	Details  *string `json:"details,omitempty"`
	IsDone   *bool   `json:"is_done,omitempty"`
	XP       *int    `json:"xp,omitempty"`
}

func (p ItemPatch) Empty() bool {
	return p.Date == nil && p.Category == nil && p.TaskName == nil &&
		p.Details == nil && p.IsDone == nil && p.XP == nil
}

// Apply copies the set fields onto item and returns the changed columns.
func (p ItemPatch) Apply(item *PlannerItem) map[string]any {
	cols := make(map[string]any)
	if p.Date != nil {
		item.Date = *p.Date
		cols["date"] = *p.Date
	}
	if p.Category != nil {
		item.Category = *p.Category
		cols["category"] = *p.Category
	}
	if p.TaskName != nil {
		item.TaskName = *p.TaskName
		cols["task_name"] = *p.TaskName
	}
	if p.Details != nil {
		item.Details = OptionalText(*p.Details)
		cols["details"] = item.Details
	}
	if p.IsDone != nil {
		item.IsDone = *p.IsDone
		cols["is_done"] = *p.IsDone
	}
	if p.XP != nil {
		item.XP = *p.XP
		cols["xp"] = *p.XP
	}
	return cols
}

// Summary aggregates a user's items.
type Summary struct {
	TotalItems int64 `gorm:"column:total_items"`
	DoneItems  int64 `gorm:"column:done_items"`
	TotalXP    int64 `gorm:"column:total_xp"`
}
