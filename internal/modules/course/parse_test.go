package course

import (
	"fmt"
	"testing"

	"github.com/skillpath/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outlineJSON(weeks int) string {
	out := `{"title": "Becoming a Backend Developer", "description": "A structured path.", "weeks": [`
	for i := 1; i <= weeks; i++ {
		if i > 1 {
			out += ","
		}
		out += fmt.Sprintf(`{"week": %d, "title": "Week %d", "focus": "Focus %d", "concepts": ["c%d"]}`, 99, i, i, i)
	}
	return out + `]}`
}

func TestParseOutline(t *testing.T) {
	outline, err := parseOutline(outlineJSON(6), "Backend Developer")
	require.NoError(t, err)

	assert.Equal(t, "Backend Developer", outline.TargetRole)
	assert.Equal(t, "Becoming a Backend Developer", outline.Title)
	assert.Equal(t, 6, outline.EstimatedWeeks)
	assert.Equal(t, []string{}, outline.Prerequisites)
	require.Len(t, outline.Weeks, 6)
	for i, week := range outline.Weeks {
		assert.Equal(t, i+1, week.Week, "weeks are renumbered sequentially")
	}
}

func TestParseOutlineStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + outlineJSON(4) + "\n```"
	outline, err := parseOutline(fenced, "Backend Developer")
	require.NoError(t, err)
	assert.Len(t, outline.Weeks, 4)
}

func TestParseOutlineBraceWindow(t *testing.T) {
	chatty := "Sure! Here is your course:\n" + outlineJSON(4) + "\nLet me know if you need anything else."
	outline, err := parseOutline(chatty, "Backend Developer")
	require.NoError(t, err)
	assert.Len(t, outline.Weeks, 4)
}

func TestParseOutlineRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":       "I cannot help with that.",
		"missing title":  `{"weeks": [{"title": "W1", "concepts": ["x"]}]}`,
		"too few weeks":  outlineJSON(3),
		"too many weeks": outlineJSON(17),
		"week no title":  `{"title": "T", "weeks": [{"concepts": ["x"]},{"title":"a","concepts":["x"]},{"title":"b","concepts":["x"]},{"title":"c","concepts":["x"]}]}`,
		"week no concepts": `{"title": "T", "weeks": [{"title": "W1"},{"title":"a","concepts":["x"]},{"title":"b","concepts":["x"]},{"title":"c","concepts":["x"]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseOutline(raw, "Backend Developer")
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestParseWeekDays(t *testing.T) {
	raw := `{"days": [
		{"day": 5, "title": "Intro", "task_type": "Theory", "duration_minutes": 90, "concepts": ["basics"]},
		{"day": 1, "title": "Build it", "task_type": "hands-on"},
		{"title": "Wrap up", "task_type": "REVIEW", "duration_minutes": -10}
	]}`
	days, err := parseWeekDays(raw)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, 1, days[0].Day)
	assert.Equal(t, "theory", days[0].TaskType)
	assert.Equal(t, 90, days[0].DurationMinutes)

	assert.Equal(t, 2, days[1].Day)
	assert.Equal(t, "theory", days[1].TaskType, "unknown task types fall back to theory")
	assert.Equal(t, 60, days[1].DurationMinutes, "missing duration defaults to an hour")
	assert.Equal(t, []string{}, days[1].Concepts)

	assert.Equal(t, 3, days[2].Day)
	assert.Equal(t, "review", days[2].TaskType)
	assert.Equal(t, 60, days[2].DurationMinutes, "non-positive duration defaults to an hour")
}

func TestParseWeekDaysRejectsBadCounts(t *testing.T) {
	_, err := parseWeekDays(`{"days": []}`)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	eight := `{"days": [` +
		`{"title":"1"},{"title":"2"},{"title":"3"},{"title":"4"},` +
		`{"title":"5"},{"title":"6"},{"title":"7"},{"title":"8"}]}`
	_, err = parseWeekDays(eight)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestParseDayContent(t *testing.T) {
	raw := `{
		"description": "## Today\nLearn **SQL** joins.",
		"table_of_contents": ["Joins", "Indexes"],
		"resources": [
			{"query": "sql joins tutorial", "source": "YouTube"},
			{"query": "  ", "source": "web"},
			{"query": "sql indexes explained", "source": "blog"},
			{"query": "q3", "source": "youtube"},
			{"query": "q4", "source": "web"},
			{"query": "q5", "source": "web"}
		]
	}`
	content, err := parseDayContent(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"Joins", "Indexes"}, content.TableOfContents)
	require.Len(t, content.Queries, 4, "queries are capped")
	assert.Equal(t, "youtube", content.Queries[0].Source)
	assert.Equal(t, "web", content.Queries[1].Source, "unknown sources normalize to web")
}

func TestParseDayContentRequiresDescription(t *testing.T) {
	_, err := parseDayContent(`{"description": "  "}`)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestRenderMarkdown(t *testing.T) {
	html := renderMarkdown("## Today\n\nLearn **SQL** joins.")
	assert.Contains(t, html, "<h2")
	assert.Contains(t, html, "<strong>SQL</strong>")

	assert.Empty(t, renderMarkdown("   "))
}
