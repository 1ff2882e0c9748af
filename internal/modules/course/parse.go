package course

import (
	"encoding/json"
	"strings"

	"github.com/skillpath/core/internal/pkg/apperr"
)

// unmarshalModelJSON tolerates fenced or chatty model output: it strips
// code fences and, failing that, retries on the outermost brace window.
func unmarshalModelJSON(raw string, out interface{}) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err == nil {
			return nil
		}
	}

	return apperr.Validation("model response is not valid JSON")
}

func parseOutline(raw, targetRole string) (*Outline, error) {
	var payload struct {
		Title          string     `json:"title"`
		Description    string     `json:"description"`
		EstimatedWeeks int        `json:"estimated_weeks"`
		Prerequisites  []string   `json:"prerequisites"`
		Weeks          []WeekStub `json:"weeks"`
	}
	if err := unmarshalModelJSON(raw, &payload); err != nil {
		return nil, err
	}

	if strings.TrimSpace(payload.Title) == "" {
		return nil, apperr.Validation("outline is missing a title")
	}
	if len(payload.Weeks) < minOutlineWeeks || len(payload.Weeks) > maxOutlineWeeks {
		return nil, apperr.Validation("outline has %d weeks, expected %d-%d",
			len(payload.Weeks), minOutlineWeeks, maxOutlineWeeks)
	}
	for i := range payload.Weeks {
		week := &payload.Weeks[i]
		week.Week = i + 1 // renumber; the model's numbering is not trusted
		week.Title = strings.TrimSpace(week.Title)
		if week.Title == "" {
			return nil, apperr.Validation("outline week %d is missing a title", week.Week)
		}
		if len(week.Concepts) == 0 {
			return nil, apperr.Validation("outline week %d has no concepts", week.Week)
		}
	}
	if payload.Prerequisites == nil {
		payload.Prerequisites = []string{}
	}

	return &Outline{
		TargetRole:     targetRole,
		Title:          strings.TrimSpace(payload.Title),
		Description:    strings.TrimSpace(payload.Description),
		Prerequisites:  payload.Prerequisites,
		EstimatedWeeks: len(payload.Weeks),
		Weeks:          payload.Weeks,
	}, nil
}

func parseWeekDays(raw string) ([]DayStub, error) {
	var payload struct {
		Days []DayStub `json:"days"`
	}
	if err := unmarshalModelJSON(raw, &payload); err != nil {
		return nil, err
	}

	if len(payload.Days) < minWeekDays || len(payload.Days) > maxWeekDays {
		return nil, apperr.Validation("week has %d days, expected %d-%d",
			len(payload.Days), minWeekDays, maxWeekDays)
	}
	for i := range payload.Days {
		day := &payload.Days[i]
		day.Day = i + 1
		day.Title = strings.TrimSpace(day.Title)
		if day.Title == "" {
			return nil, apperr.Validation("day %d is missing a title", day.Day)
		}
		day.TaskType = normalizeTaskType(day.TaskType)
		if day.DurationMinutes <= 0 {
			day.DurationMinutes = 60
		}
		if day.Concepts == nil {
			day.Concepts = []string{}
		}
	}
	return payload.Days, nil
}

func normalizeTaskType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "practice":
		return "practice"
	case "project":
		return "project"
	case "review":
		return "review"
	default:
		return "theory"
	}
}

func parseDayContent(raw string) (*DayContent, error) {
	var payload struct {
		Description     string          `json:"description"`
		TableOfContents []string        `json:"table_of_contents"`
		Resources       []ResourceQuery `json:"resources"`
	}
	if err := unmarshalModelJSON(raw, &payload); err != nil {
		return nil, err
	}

	if strings.TrimSpace(payload.Description) == "" {
		return nil, apperr.Validation("day content is missing a description")
	}
	if payload.TableOfContents == nil {
		payload.TableOfContents = []string{}
	}

	queries := make([]ResourceQuery, 0, maxResourceURLs)
	for _, query := range payload.Resources {
		query.Query = strings.TrimSpace(query.Query)
		if query.Query == "" {
			continue
		}
		if strings.ToLower(strings.TrimSpace(query.Source)) == "youtube" {
			query.Source = "youtube"
		} else {
			query.Source = "web"
		}
		queries = append(queries, query)
		if len(queries) == maxResourceURLs {
			break
		}
	}

	return &DayContent{
		Description:     strings.TrimSpace(payload.Description),
		TableOfContents: payload.TableOfContents,
		Queries:         queries,
	}, nil
}
