package course

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/skillpath/core/internal/models"
	"gorm.io/gorm"
)

// Store persists generated course content. Lookups return (nil, nil) on
// a cache miss so callers can distinguish absence from failure.
type Store interface {
	GetOutline(ctx context.Context, outlineID string) (*Outline, error)
	SaveOutline(ctx context.Context, fingerprint string, outline *Outline) error
	GetWeek(ctx context.Context, outlineID string, week int) (*WeekDetail, error)
	SaveWeek(ctx context.Context, detail *WeekDetail) error
	GetDay(ctx context.Context, outlineID string, week, day int) (*DayDetail, error)
	SaveDay(ctx context.Context, detail *DayDetail) error
}

// outlineCacheKey derives the outline's public ID. It is deterministic
// so the same candidate fingerprint and role always map to one course.
func outlineCacheKey(fingerprint, targetRole string) string {
	sum := sha256.Sum256([]byte(fingerprint + "|" + targetRole))
	return hex.EncodeToString(sum[:])
}

func weekCacheKey(outlineID string, week int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|w%d", outlineID, week)))
	return hex.EncodeToString(sum[:])
}

func dayCacheKey(outlineID string, week, day int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|w%d|d%d", outlineID, week, day)))
	return hex.EncodeToString(sum[:])
}

type gormStore struct {
	db  *gorm.DB
	ttl time.Duration // 0 retains entries forever
}

// NewGormStore builds the MySQL-backed Store. ttlSeconds of zero keeps
// cached content forever.
func NewGormStore(db *gorm.DB, ttlSeconds int) Store {
	return &gormStore{db: db, ttl: time.Duration(ttlSeconds) * time.Second}
}

func (s *gormStore) stale(updatedAt time.Time) bool {
	return s.ttl > 0 && time.Since(updatedAt) > s.ttl
}

func (s *gormStore) GetOutline(ctx context.Context, outlineID string) (*Outline, error) {
	var record models.CourseOutlineModel
	err := s.db.WithContext(ctx).Where("hash = ?", outlineID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.stale(record.UpdatedAt) {
		return nil, nil
	}

	weeks := make([]WeekStub, 0, len(record.Weeks))
	for _, w := range record.Weeks {
		weeks = append(weeks, WeekStub{
			Week:     w.Week,
			Title:    w.Title,
			Focus:    w.Focus,
			Concepts: w.Concepts,
		})
	}
	return &Outline{
		ID:             record.Hash,
		TargetRole:     record.TargetRole,
		Title:          record.Title,
		Description:    record.Description,
		Prerequisites:  record.Prerequisites,
		EstimatedWeeks: record.EstimatedWeeks,
		Weeks:          weeks,
	}, nil
}

func (s *gormStore) SaveOutline(ctx context.Context, fingerprint string, outline *Outline) error {
	weeks := make([]models.CourseWeekStub, 0, len(outline.Weeks))
	for _, w := range outline.Weeks {
		weeks = append(weeks, models.CourseWeekStub{
			Week:     w.Week,
			Title:    w.Title,
			Focus:    w.Focus,
			Concepts: w.Concepts,
		})
	}
	assign := models.CourseOutlineModel{
		Fingerprint:    fingerprint,
		TargetRole:     outline.TargetRole,
		Title:          outline.Title,
		Description:    outline.Description,
		Prerequisites:  models.StringArray(outline.Prerequisites),
		EstimatedWeeks: outline.EstimatedWeeks,
		Weeks:          weeks,
	}

	var record models.CourseOutlineModel
	return s.db.WithContext(ctx).
		Where(models.CourseOutlineModel{Hash: outline.ID}).
		Assign(assign).
		FirstOrCreate(&record).Error
}

func (s *gormStore) GetWeek(ctx context.Context, outlineID string, week int) (*WeekDetail, error) {
	var record models.CourseWeekModel
	err := s.db.WithContext(ctx).Where("hash = ?", weekCacheKey(outlineID, week)).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.stale(record.UpdatedAt) {
		return nil, nil
	}

	days := make([]DayStub, 0, len(record.Days))
	for _, d := range record.Days {
		days = append(days, DayStub{
			Day:             d.Day,
			Title:           d.Title,
			TaskType:        d.TaskType,
			DurationMinutes: d.DurationMinutes,
			Concepts:        d.Concepts,
		})
	}
	return &WeekDetail{
		OutlineID:  record.OutlineID,
		WeekNumber: record.WeekNumber,
		Days:       days,
	}, nil
}

func (s *gormStore) SaveWeek(ctx context.Context, detail *WeekDetail) error {
	days := make([]models.CourseDayStub, 0, len(detail.Days))
	for _, d := range detail.Days {
		days = append(days, models.CourseDayStub{
			Day:             d.Day,
			Title:           d.Title,
			TaskType:        d.TaskType,
			DurationMinutes: d.DurationMinutes,
			Concepts:        d.Concepts,
		})
	}
	assign := models.CourseWeekModel{
		OutlineID:  detail.OutlineID,
		WeekNumber: detail.WeekNumber,
		Days:       days,
	}

	var record models.CourseWeekModel
	return s.db.WithContext(ctx).
		Where(models.CourseWeekModel{Hash: weekCacheKey(detail.OutlineID, detail.WeekNumber)}).
		Assign(assign).
		FirstOrCreate(&record).Error
}

func (s *gormStore) GetDay(ctx context.Context, outlineID string, week, day int) (*DayDetail, error) {
	var record models.CourseDayModel
	err := s.db.WithContext(ctx).Where("hash = ?", dayCacheKey(outlineID, week, day)).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.stale(record.UpdatedAt) {
		return nil, nil
	}

	resources := make([]Resource, 0, len(record.Resources))
	for _, r := range record.Resources {
		resources = append(resources, Resource{
			Title:     r.Title,
			URL:       r.URL,
			Thumbnail: r.Thumbnail,
			Source:    r.Source,
		})
	}
	return &DayDetail{
		OutlineID:       record.OutlineID,
		WeekNumber:      record.WeekNumber,
		DayNumber:       record.DayNumber,
		Description:     record.Description,
		DescriptionHTML: record.DescriptionHTML,
		TableOfContents: record.TableOfContents,
		Resources:       resources,
	}, nil
}

func (s *gormStore) SaveDay(ctx context.Context, detail *DayDetail) error {
	resources := make([]models.CourseResource, 0, len(detail.Resources))
	for _, r := range detail.Resources {
		resources = append(resources, models.CourseResource{
			Title:     r.Title,
			URL:       r.URL,
			Thumbnail: r.Thumbnail,
			Source:    r.Source,
		})
	}
	assign := models.CourseDayModel{
		OutlineID:       detail.OutlineID,
		WeekNumber:      detail.WeekNumber,
		DayNumber:       detail.DayNumber,
		Description:     detail.Description,
		DescriptionHTML: detail.DescriptionHTML,
		TableOfContents: models.StringArray(detail.TableOfContents),
		Resources:       resources,
	}

	var record models.CourseDayModel
	return s.db.WithContext(ctx).
		Where(models.CourseDayModel{Hash: dayCacheKey(detail.OutlineID, detail.WeekNumber, detail.DayNumber)}).
		Assign(assign).
		FirstOrCreate(&record).Error
}

// memoryStore keeps generated content in process memory. It backs tests
// and database-less development setups.
type memoryStore struct {
	mu       sync.RWMutex
	outlines map[string]*Outline
	weeks    map[string]*WeekDetail
	days     map[string]*DayDetail
}

func NewMemoryStore() Store {
	return &memoryStore{
		outlines: make(map[string]*Outline),
		weeks:    make(map[string]*WeekDetail),
		days:     make(map[string]*DayDetail),
	}
}

func (s *memoryStore) GetOutline(_ context.Context, outlineID string) (*Outline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if outline, ok := s.outlines[outlineID]; ok {
		copied := *outline
		return &copied, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveOutline(_ context.Context, _ string, outline *Outline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *outline
	s.outlines[outline.ID] = &copied
	return nil
}

func (s *memoryStore) GetWeek(_ context.Context, outlineID string, week int) (*WeekDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if detail, ok := s.weeks[weekCacheKey(outlineID, week)]; ok {
		copied := *detail
		return &copied, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveWeek(_ context.Context, detail *WeekDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *detail
	s.weeks[weekCacheKey(detail.OutlineID, detail.WeekNumber)] = &copied
	return nil
}

func (s *memoryStore) GetDay(_ context.Context, outlineID string, week, day int) (*DayDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if detail, ok := s.days[dayCacheKey(outlineID, week, day)]; ok {
		copied := *detail
		return &copied, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveDay(_ context.Context, detail *DayDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *detail
	s.days[dayCacheKey(detail.OutlineID, detail.WeekNumber, detail.DayNumber)] = &copied
	return nil
}
