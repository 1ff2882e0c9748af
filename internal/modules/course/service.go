package course

import (
	"context"
	"errors"
	"time"

	"github.com/skillpath/core/internal/config"
	"github.com/skillpath/core/internal/modules/knowledge"
	"github.com/skillpath/core/internal/modules/matcher"
	"github.com/skillpath/core/internal/pkg/apperr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultGenTimeout     = 60 * time.Second
)

// Orchestrator generates course content lazily: outline first, weeks
// and days only when a client asks for them. Each cache key is
// generated at most once; concurrent requests for the same key share a
// single in-flight generation.
type Orchestrator struct {
	snap     *knowledge.Snapshot
	provider ContentProvider
	store    Store
	finder   ResourceFinder
	cfg      config.CourseConfig
	logger   *zap.Logger

	flight singleflight.Group
}

func NewOrchestrator(
	snap *knowledge.Snapshot,
	provider ContentProvider,
	store Store,
	finder ResourceFinder,
	cfg config.CourseConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		snap:     snap,
		provider: provider,
		store:    store,
		finder:   finder,
		cfg:      cfg,
		logger:   logger,
	}
}

// RequestOutline returns the cached outline for this candidate and
// role, generating it on first request.
func (o *Orchestrator) RequestOutline(ctx context.Context, skills []string, targetRole string) (*Outline, error) {
	if len(skills) == 0 {
		return nil, apperr.Validation("skills must not be empty")
	}
	role, err := o.snap.ByName(targetRole)
	if err != nil {
		return nil, err
	}

	profile := matcher.NewCandidateProfile(skills)
	outlineID := outlineCacheKey(profile.Fingerprint, role.Name)

	if outline, err := o.store.GetOutline(ctx, outlineID); err != nil {
		return nil, err
	} else if outline != nil {
		return outline, nil
	}

	result, err, _ := o.flight.Do("outline:"+outlineID, func() (interface{}, error) {
		// Once generation starts it runs to completion even if the
		// requesting client disconnects.
		genCtx, cancel := o.generationContext(ctx)
		defer cancel()

		if outline, err := o.store.GetOutline(genCtx, outlineID); err != nil {
			return nil, err
		} else if outline != nil {
			return outline, nil
		}

		_, missing := matcher.Overlap(role.RequiredSkills(), profile.Skills)

		var outline *Outline
		err := o.withRetry(genCtx, func() error {
			var genErr error
			outline, genErr = o.provider.GenerateOutline(genCtx, role.Name, profile.Skills, missing)
			return genErr
		})
		if err != nil {
			return nil, externalize(apperr.StageOutline, err)
		}

		outline.ID = outlineID
		if err := o.store.SaveOutline(genCtx, profile.Fingerprint, outline); err != nil {
			return nil, err
		}
		o.logger.Info("course outline generated",
			zap.String("outline_id", outlineID),
			zap.String("target_role", role.Name),
			zap.Int("weeks", len(outline.Weeks)))
		return outline, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Outline), nil
}

// Outline returns an already generated outline by its public ID.
func (o *Orchestrator) Outline(ctx context.Context, outlineID string) (*Outline, error) {
	outline, err := o.store.GetOutline(ctx, outlineID)
	if err != nil {
		return nil, err
	}
	if outline == nil {
		return nil, apperr.NotFound("course %q not found", outlineID)
	}
	return outline, nil
}

// ExpandWeek generates (or returns the cached) day plan for one week of
// an existing outline.
func (o *Orchestrator) ExpandWeek(ctx context.Context, outlineID string, week int) (*WeekDetail, error) {
	outline, err := o.Outline(ctx, outlineID)
	if err != nil {
		return nil, err
	}
	stub, err := findWeekStub(outline, week)
	if err != nil {
		return nil, err
	}

	if detail, err := o.store.GetWeek(ctx, outlineID, week); err != nil {
		return nil, err
	} else if detail != nil {
		return detail, nil
	}

	result, err, _ := o.flight.Do(weekCacheKey(outlineID, week), func() (interface{}, error) {
		genCtx, cancel := o.generationContext(ctx)
		defer cancel()

		if detail, err := o.store.GetWeek(genCtx, outlineID, week); err != nil {
			return nil, err
		} else if detail != nil {
			return detail, nil
		}

		var days []DayStub
		err := o.withRetry(genCtx, func() error {
			var genErr error
			days, genErr = o.provider.GenerateWeekDays(genCtx, outline.TargetRole, *stub)
			return genErr
		})
		if err != nil {
			return nil, externalize(apperr.StageWeek, err)
		}

		detail := &WeekDetail{OutlineID: outlineID, WeekNumber: week, Days: days}
		if err := o.store.SaveWeek(genCtx, detail); err != nil {
			return nil, err
		}
		o.logger.Info("course week generated",
			zap.String("outline_id", outlineID),
			zap.Int("week", week),
			zap.Int("days", len(days)))
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*WeekDetail), nil
}

// ExpandDay generates (or returns the cached) full detail for one day.
// The containing week must have been expanded first.
func (o *Orchestrator) ExpandDay(ctx context.Context, outlineID string, week, day int) (*DayDetail, error) {
	outline, err := o.Outline(ctx, outlineID)
	if err != nil {
		return nil, err
	}
	if _, err := findWeekStub(outline, week); err != nil {
		return nil, err
	}

	weekDetail, err := o.store.GetWeek(ctx, outlineID, week)
	if err != nil {
		return nil, err
	}
	if weekDetail == nil {
		return nil, apperr.NotFound("week %d of course %q has not been generated yet", week, outlineID)
	}
	stub, err := findDayStub(weekDetail, day)
	if err != nil {
		return nil, err
	}

	if detail, err := o.store.GetDay(ctx, outlineID, week, day); err != nil {
		return nil, err
	} else if detail != nil {
		return detail, nil
	}

	result, err, _ := o.flight.Do(dayCacheKey(outlineID, week, day), func() (interface{}, error) {
		genCtx, cancel := o.generationContext(ctx)
		defer cancel()

		if detail, err := o.store.GetDay(genCtx, outlineID, week, day); err != nil {
			return nil, err
		} else if detail != nil {
			return detail, nil
		}

		var content *DayContent
		err := o.withRetry(genCtx, func() error {
			var genErr error
			content, genErr = o.provider.GenerateDayDetail(genCtx, outline.TargetRole, *stub)
			return genErr
		})
		if err != nil {
			return nil, externalize(apperr.StageDay, err)
		}

		// Resource lookup is best effort: a failed search leaves the
		// day with an empty resource list rather than failing it.
		resources := o.findResources(genCtx, content.Queries)

		detail := &DayDetail{
			OutlineID:       outlineID,
			WeekNumber:      week,
			DayNumber:       day,
			Description:     content.Description,
			DescriptionHTML: renderMarkdown(content.Description),
			TableOfContents: content.TableOfContents,
			Resources:       resources,
		}
		if err := o.store.SaveDay(genCtx, detail); err != nil {
			return nil, err
		}
		o.logger.Info("course day generated",
			zap.String("outline_id", outlineID),
			zap.Int("week", week),
			zap.Int("day", day),
			zap.Int("resources", len(resources)))
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*DayDetail), nil
}

func (o *Orchestrator) findResources(ctx context.Context, queries []ResourceQuery) []Resource {
	if o.finder == nil || len(queries) == 0 {
		return []Resource{}
	}
	resources, err := o.finder.Find(ctx, queries)
	if err != nil {
		o.logger.Warn("resource lookup failed, continuing without resources", zap.Error(err))
		return []Resource{}
	}
	if resources == nil {
		resources = []Resource{}
	}
	return resources
}

// generationContext detaches from the caller's cancellation, keeping
// only the configured generation timeout.
func (o *Orchestrator) generationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(o.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultGenTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// withRetry retries fn with exponential backoff. Malformed model output
// is not retried: a schema violation is deterministic enough that
// burning the remaining attempts on it rarely helps.
func (o *Orchestrator) withRetry(ctx context.Context, fn func() error) error {
	attempts := o.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	baseDelay := time.Duration(o.cfg.RetryBaseDelaySeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}
	maxDelay := time.Duration(o.cfg.RetryMaxDelaySeconds) * time.Second
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if apperr.IsValidation(lastErr) || ctx.Err() != nil {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		o.logger.Warn("generation attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}

// externalize wraps a generation failure as an external-service error
// carrying the failed stage. Errors that already carry a kind keep it:
// validation failures (a model response that does not parse into the
// expected shape) surface to the caller as-is.
func externalize(stage string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && (appErr.Kind == apperr.KindExternal || appErr.Kind == apperr.KindValidation) {
		return err
	}
	return apperr.External(stage, err, "content generation failed")
}

func findWeekStub(outline *Outline, week int) (*WeekStub, error) {
	for i := range outline.Weeks {
		if outline.Weeks[i].Week == week {
			return &outline.Weeks[i], nil
		}
	}
	return nil, apperr.NotFound("week %d not found in course %q", week, outline.ID)
}

func findDayStub(detail *WeekDetail, day int) (*DayStub, error) {
	for i := range detail.Days {
		if detail.Days[i].Day == day {
			return &detail.Days[i], nil
		}
	}
	return nil, apperr.NotFound("day %d not found in week %d", day, detail.WeekNumber)
}
