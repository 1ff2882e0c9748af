package course

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillpath/core/internal/config"
	"github.com/skillpath/core/internal/modules/knowledge"
	"github.com/skillpath/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCatalog = `{"roles": [
	{"id": "backend", "name": "Backend Developer", "category": "Engineering", "seniority_level": 2,
	 "core_skills": ["Python", "SQL", "Docker"],
	 "salary_range": {"min": 70000, "max": 100000}}
]}`

func testSnapshot(t *testing.T) *knowledge.Snapshot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	snap, err := knowledge.Load(path)
	require.NoError(t, err)
	return snap
}

// fakeProvider returns canned content and counts calls per stage.
type fakeProvider struct {
	outlineCalls atomic.Int64
	weekCalls    atomic.Int64
	dayCalls     atomic.Int64

	outlineErrs atomic.Int64 // fail this many outline calls first
	failWith    error

	delay time.Duration
}

func (p *fakeProvider) GenerateOutline(_ context.Context, targetRole string, _, missing []string) (*Outline, error) {
	p.outlineCalls.Add(1)
	time.Sleep(p.delay)
	if p.outlineErrs.Load() > 0 {
		p.outlineErrs.Add(-1)
		err := p.failWith
		if err == nil {
			err = errors.New("provider unavailable")
		}
		return nil, err
	}
	weeks := make([]WeekStub, 4)
	for i := range weeks {
		weeks[i] = WeekStub{
			Week:     i + 1,
			Title:    fmt.Sprintf("Week %d", i+1),
			Concepts: missing,
		}
	}
	return &Outline{
		TargetRole:     targetRole,
		Title:          "Path to " + targetRole,
		EstimatedWeeks: len(weeks),
		Prerequisites:  []string{},
		Weeks:          weeks,
	}, nil
}

func (p *fakeProvider) GenerateWeekDays(_ context.Context, _ string, week WeekStub) ([]DayStub, error) {
	p.weekCalls.Add(1)
	return []DayStub{
		{Day: 1, Title: week.Title + " day one", TaskType: "theory", DurationMinutes: 60, Concepts: []string{}},
		{Day: 2, Title: week.Title + " day two", TaskType: "practice", DurationMinutes: 90, Concepts: []string{}},
	}, nil
}

func (p *fakeProvider) GenerateDayDetail(_ context.Context, _ string, day DayStub) (*DayContent, error) {
	p.dayCalls.Add(1)
	return &DayContent{
		Description:     "## " + day.Title + "\n\nDo the **work**.",
		TableOfContents: []string{day.Title},
		Queries:         []ResourceQuery{{Query: day.Title, Source: "web"}},
	}, nil
}

type fakeFinder struct {
	resources []Resource
	err       error
}

func (f *fakeFinder) Find(context.Context, []ResourceQuery) ([]Resource, error) {
	return f.resources, f.err
}

func testConfig() config.CourseConfig {
	return config.CourseConfig{
		TimeoutSeconds:        30,
		RetryAttempts:         3,
		RetryBaseDelaySeconds: 1,
		RetryMaxDelaySeconds:  1,
	}
}

func newTestOrchestrator(t *testing.T, provider ContentProvider, finder ResourceFinder) *Orchestrator {
	t.Helper()
	return NewOrchestrator(testSnapshot(t), provider, NewMemoryStore(), finder, testConfig(), zap.NewNop())
}

func TestRequestOutlineGeneratesOnce(t *testing.T) {
	provider := &fakeProvider{}
	orch := newTestOrchestrator(t, provider, nil)
	ctx := context.Background()
	skills := []string{"Python", "SQL"}

	first, err := orch.RequestOutline(ctx, skills, "Backend Developer")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Backend Developer", first.TargetRole)
	assert.Len(t, first.Weeks, 4)

	second, err := orch.RequestOutline(ctx, skills, "backend developer")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "role name casing does not change the cache key")
	assert.EqualValues(t, 1, provider.outlineCalls.Load())
}

func TestRequestOutlineValidation(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeProvider{}, nil)

	_, err := orch.RequestOutline(context.Background(), nil, "Backend Developer")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = orch.RequestOutline(context.Background(), []string{"Python"}, "Astronaut")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRequestOutlineConcurrentCallsShareFlight(t *testing.T) {
	provider := &fakeProvider{delay: 20 * time.Millisecond}
	orch := newTestOrchestrator(t, provider, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orch.RequestOutline(context.Background(), []string{"Python"}, "Backend Developer")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, provider.outlineCalls.Load())
}

func TestRequestOutlineRetriesTransientFailures(t *testing.T) {
	provider := &fakeProvider{}
	provider.outlineErrs.Store(1)
	orch := newTestOrchestrator(t, provider, nil)

	outline, err := orch.RequestOutline(context.Background(), []string{"Python"}, "Backend Developer")
	require.NoError(t, err)
	assert.NotNil(t, outline)
	assert.EqualValues(t, 2, provider.outlineCalls.Load())
}

func TestRequestOutlineDoesNotRetryMalformedOutput(t *testing.T) {
	provider := &fakeProvider{failWith: apperr.Validation("model response is not valid JSON")}
	provider.outlineErrs.Store(10)
	orch := newTestOrchestrator(t, provider, nil)

	_, err := orch.RequestOutline(context.Background(), []string{"Python"}, "Backend Developer")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.False(t, apperr.IsExternal(err))
	assert.EqualValues(t, 1, provider.outlineCalls.Load())
}

func TestRequestOutlineExhaustedRetriesIsExternal(t *testing.T) {
	provider := &fakeProvider{}
	provider.outlineErrs.Store(100)
	orch := newTestOrchestrator(t, provider, nil)

	_, err := orch.RequestOutline(context.Background(), []string{"Python"}, "Backend Developer")
	require.Error(t, err)
	assert.True(t, apperr.IsExternal(err))
	assert.Equal(t, apperr.StageOutline, apperr.StageOf(err))
	assert.EqualValues(t, 3, provider.outlineCalls.Load())

	// the lock is released: a later request retries generation
	provider.outlineErrs.Store(0)
	outline, err := orch.RequestOutline(context.Background(), []string{"Python"}, "Backend Developer")
	require.NoError(t, err)
	assert.NotNil(t, outline)
}

func TestOutlineLookup(t *testing.T) {
	provider := &fakeProvider{}
	orch := newTestOrchestrator(t, provider, nil)

	created, err := orch.RequestOutline(context.Background(), []string{"Python"}, "Backend Developer")
	require.NoError(t, err)

	found, err := orch.Outline(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, found.Title)

	_, err = orch.Outline(context.Background(), "no-such-outline")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestExpandWeek(t *testing.T) {
	provider := &fakeProvider{}
	orch := newTestOrchestrator(t, provider, nil)
	ctx := context.Background()

	outline, err := orch.RequestOutline(ctx, []string{"Python"}, "Backend Developer")
	require.NoError(t, err)

	detail, err := orch.ExpandWeek(ctx, outline.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.WeekNumber)
	assert.Len(t, detail.Days, 2)

	// cached on the second call
	_, err = orch.ExpandWeek(ctx, outline.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, provider.weekCalls.Load())

	_, err = orch.ExpandWeek(ctx, outline.ID, 9)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err), "weeks outside the outline are not found")

	_, err = orch.ExpandWeek(ctx, "no-such-outline", 1)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err), "parent outline is checked first")
}

func TestExpandDay(t *testing.T) {
	provider := &fakeProvider{}
	finder := &fakeFinder{resources: []Resource{{Title: "A video", URL: "https://example.com", Source: "youtube"}}}
	orch := newTestOrchestrator(t, provider, finder)
	ctx := context.Background()

	outline, err := orch.RequestOutline(ctx, []string{"Python"}, "Backend Developer")
	require.NoError(t, err)

	// the containing week must be expanded first
	_, err = orch.ExpandDay(ctx, outline.ID, 1, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	_, err = orch.ExpandWeek(ctx, outline.ID, 1)
	require.NoError(t, err)

	detail, err := orch.ExpandDay(ctx, outline.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.DayNumber)
	assert.Contains(t, detail.DescriptionHTML, "<strong>work</strong>")
	require.Len(t, detail.Resources, 1)
	assert.Equal(t, "A video", detail.Resources[0].Title)

	_, err = orch.ExpandDay(ctx, outline.ID, 1, 5)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err), "days outside the week are not found")

	// cached on the second call
	_, err = orch.ExpandDay(ctx, outline.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, provider.dayCalls.Load())
}

func TestExpandDayResourceFailureIsPartialSuccess(t *testing.T) {
	provider := &fakeProvider{}
	finder := &fakeFinder{err: errors.New("all search backends down")}
	orch := newTestOrchestrator(t, provider, finder)
	ctx := context.Background()

	outline, err := orch.RequestOutline(ctx, []string{"Python"}, "Backend Developer")
	require.NoError(t, err)
	_, err = orch.ExpandWeek(ctx, outline.ID, 1)
	require.NoError(t, err)

	detail, err := orch.ExpandDay(ctx, outline.ID, 1, 1)
	require.NoError(t, err, "resource failures never fail the day")
	assert.NotNil(t, detail.Resources)
	assert.Empty(t, detail.Resources)
	assert.NotEmpty(t, detail.Description)
}
