package models

// CourseWeekStub is the per-week summary stored inside a cached outline.
type CourseWeekStub struct {
	Week     int      `json:"week"`
	Title    string   `json:"title"`
	Focus    string   `json:"focus"`
	Concepts []string `json:"concepts"`
}

// CourseDayStub is the per-day summary stored inside a cached week.
type CourseDayStub struct {
	Day             int      `json:"day"`
	Title           string   `json:"title"`
	TaskType        string   `json:"task_type"`
	DurationMinutes int      `json:"duration_minutes"`
	Concepts        []string `json:"concepts"`
}

// CourseResource is one learning resource attached to a cached day.
type CourseResource struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Source    string `json:"source"`
}

// CourseOutlineModel caches one generated course outline.
type CourseOutlineModel struct {
	Base
	Hash           string           `json:"hash"            gorm:"uniqueIndex;not null"` // hash(fingerprint + role)
	Fingerprint    string           `json:"fingerprint"     gorm:"index;not null"`
	TargetRole     string           `json:"target_role"     gorm:"not null"`
	Title          string           `json:"title"           gorm:"not null"`
	Description    string           `json:"description"     gorm:"type:text"`
	Prerequisites  StringArray      `json:"prerequisites"   gorm:"type:longtext"`
	EstimatedWeeks int              `json:"estimated_weeks"`
	Weeks          []CourseWeekStub `json:"weeks"           gorm:"type:longtext;serializer:json"`
}

func (CourseOutlineModel) TableName() string { return "course_outlines" }

// CourseWeekModel caches one expanded week of an outline.
type CourseWeekModel struct {
	Base
	Hash       string          `json:"hash"        gorm:"uniqueIndex;not null"` // hash(outlineId + week)
	OutlineID  string          `json:"outline_id"  gorm:"index;not null"`
	WeekNumber int             `json:"week_number" gorm:"not null"`
	Days       []CourseDayStub `json:"days"        gorm:"type:longtext;serializer:json"`
}

func (CourseWeekModel) TableName() string { return "course_weeks" }

// CourseDayModel caches one expanded day of a week.
type CourseDayModel struct {
	Base
	Hash            string           `json:"hash"              gorm:"uniqueIndex;not null"` // hash(outlineId + week + day)
	OutlineID       string           `json:"outline_id"        gorm:"index;not null"`
	WeekNumber      int              `json:"week_number"       gorm:"not null"`
	DayNumber       int              `json:"day_number"        gorm:"not null"`
	Description     string           `json:"description"       gorm:"type:longtext"`
	DescriptionHTML string           `json:"description_html"  gorm:"type:longtext"`
	TableOfContents StringArray      `json:"table_of_contents" gorm:"type:longtext"`
	Resources       []CourseResource `json:"resources"         gorm:"type:longtext;serializer:json"`
}

func (CourseDayModel) TableName() string { return "course_days" }
