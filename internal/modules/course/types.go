package course

// Outline is one generated course, cached per (fingerprint, target role).
type Outline struct {
	ID             string     `json:"id"`
	TargetRole     string     `json:"target_role"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Prerequisites  []string   `json:"prerequisites"`
	EstimatedWeeks int        `json:"estimated_weeks"`
	Weeks          []WeekStub `json:"weeks"`
}

// WeekStub is the outline-level summary of one week.
type WeekStub struct {
	Week     int      `json:"week"`
	Title    string   `json:"title"`
	Focus    string   `json:"focus"`
	Concepts []string `json:"concepts"`
}

// WeekDetail is one expanded week, cached per (outline, week).
type WeekDetail struct {
	OutlineID  string    `json:"outline_id"`
	WeekNumber int       `json:"week_number"`
	Days       []DayStub `json:"days"`
}

// DayStub is the week-level summary of one day.
type DayStub struct {
	Day             int      `json:"day"`
	Title           string   `json:"title"`
	TaskType        string   `json:"task_type"`
	DurationMinutes int      `json:"duration_minutes"`
	Concepts        []string `json:"concepts"`
}

// DayDetail is one expanded day, cached per (outline, week, day).
type DayDetail struct {
	OutlineID       string     `json:"outline_id"`
	WeekNumber      int        `json:"week_number"`
	DayNumber       int        `json:"day_number"`
	Description     string     `json:"description"`
	DescriptionHTML string     `json:"description_html"`
	TableOfContents []string   `json:"table_of_contents"`
	Resources       []Resource `json:"resources"`
}

// Resource is one learning resource resolved from a search query.
type Resource struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Source    string `json:"source"` // youtube | web
}

// ResourceQuery is a search query the content model attaches to a day.
type ResourceQuery struct {
	Query  string `json:"query"`
	Source string `json:"source"` // youtube | web
}

// DayContent is the generated body of a day before resource resolution.
type DayContent struct {
	Description     string
	TableOfContents []string
	Queries         []ResourceQuery
}
