package weather

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/weatherlog/internal/change"
	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

// Update outcomes reported to the Recorder.
const (
	OutcomeInvalid   = "invalid"
	OutcomeMissing   = "missing"
	OutcomeUnchanged = "unchanged"
	OutcomeUpdated   = "updated"
	OutcomeFailed    = "failed"
)

// Recorder receives counters for saves and updates.
type Recorder interface {
	RecordSaved()
	UpdateOutcome(outcome string)
	FieldChanged(field domain.FieldName)
}

type nopRecorder struct{}

func (nopRecorder) RecordSaved()                  {}
func (nopRecorder) UpdateOutcome(string)          {}
func (nopRecorder) FieldChanged(domain.FieldName) {}

// Options configures a weather service. Zero values select defaults.
type Options struct {
	Limits     Limits
	PageLimits pkg.PageLimits
	Recorder   Recorder
	Now        func() time.Time
	NewID      func() string
}

// weatherService implements domain.WeatherService.
type weatherService struct {
	repo       domain.WeatherRepository
	detector   *change.Detector
	normalizer domain.ConditionNormalizer
	validator  *ruleValidator
	pageLimits pkg.PageLimits
	recorder   Recorder
	now        func() time.Time
	newID      func() string
}

// NewWeatherService creates a WeatherService.
func NewWeatherService(repo domain.WeatherRepository, detector *change.Detector, normalizer domain.ConditionNormalizer, opts Options) domain.WeatherService {
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if opts.PageLimits == (pkg.PageLimits{}) {
		opts.PageLimits = pkg.DefaultPageLimits
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &weatherService{
		repo:       repo,
		detector:   detector,
		normalizer: normalizer,
		validator:  newRuleValidator(opts.Limits),
		pageLimits: opts.PageLimits,
		recorder:   opts.Recorder,
		now:        opts.Now,
		newID:      opts.NewID,
	}
}

// SaveNew validates record, normalizes its condition, stamps today's date when
// none is set and inserts it on behalf of userID. Nothing is written when
// validation fails.
func (s *weatherService) SaveNew(ctx context.Context, record *domain.WeatherSearch, userID uint) (*domain.WeatherSearch, error) {
	if err := s.validator.Validate(record, userID); err != nil {
		return nil, err
	}

	rec := *record
	rec.ID = 0
	rec.UserID = userID
	rec.Username = ""
	rec.City = strings.TrimSpace(rec.City)
	rec.Condition = s.normalizeCondition(rec.Condition)
	if rec.SearchDate.IsZero() {
		rec.SearchDate = truncateDay(s.now())
	} else {
		rec.SearchDate = truncateDay(rec.SearchDate)
	}

	if err := s.repo.Insert(ctx, &rec); err != nil {
		return nil, err
	}
	s.recorder.RecordSaved()
	slog.InfoContext(ctx, "weather search saved",
		slog.Uint64("id", uint64(rec.ID)),
		slog.String("city", rec.City),
	)
	return &rec, nil
}

// Get retrieves a record by ID.
func (s *weatherService) Get(ctx context.Context, id uint) (*domain.WeatherSearch, error) {
	return s.repo.GetByID(ctx, id)
}

// ApplyUpdate compares candidate with the stored record of the same ID and
// persists every changed field, each as a full-state write plus one change
// log entry, in detection order and inside one transaction.
//
// The candidate's mutable fields are validated first with the same bounds
// as SaveNew. A missing record is not an error: nothing is written and the
// result has Found == false. Zero changes also write nothing.
func (s *weatherService) ApplyUpdate(ctx context.Context, candidate *domain.WeatherSearch, editorID uint) (*domain.UpdateResult, error) {
	if err := s.validator.ValidateState(candidate); err != nil {
		s.recorder.UpdateOutcome(OutcomeInvalid)
		return nil, err
	}

	next := *candidate
	next.Condition = s.normalizeCondition(next.Condition)

	stored, err := s.repo.GetByID(ctx, next.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			s.recorder.UpdateOutcome(OutcomeMissing)
			slog.InfoContext(ctx, "weather update skipped",
				slog.Uint64("id", uint64(next.ID)),
				slog.String("outcome", OutcomeMissing),
			)
			return &domain.UpdateResult{Found: false, Changes: []domain.FieldChange{}}, nil
		}
		s.recorder.UpdateOutcome(OutcomeFailed)
		return nil, err
	}

	changes := s.detector.Detect(stored, &next)
	if len(changes) == 0 {
		s.recorder.UpdateOutcome(OutcomeUnchanged)
		slog.DebugContext(ctx, "weather update skipped",
			slog.Uint64("id", uint64(next.ID)),
			slog.String("outcome", OutcomeUnchanged),
		)
		return &domain.UpdateResult{Found: true, Changes: changes}, nil
	}

	// Untracked attributes keep their stored values.
	next.UserID = stored.UserID
	next.City = stored.City
	next.SearchDate = stored.SearchDate

	updateID := s.newID()
	err = s.repo.Transaction(ctx, func(repo domain.WeatherRepository) error {
		for _, c := range changes {
			entry := domain.ChangeLogEntry{
				WeatherSearchID: next.ID,
				UpdateID:        updateID,
				ChangedAt:       c.DetectedAt,
				FieldName:       string(c.Field),
				OldValue:        c.OldValue,
				NewValue:        c.NewValue,
				UserID:          editorID,
			}
			if err := repo.UpdateFieldChange(ctx, entry, &next); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.recorder.UpdateOutcome(OutcomeFailed)
		slog.ErrorContext(ctx, "weather update failed",
			slog.Uint64("id", uint64(next.ID)),
			slog.String("update_id", updateID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.recorder.UpdateOutcome(OutcomeUpdated)
	for _, c := range changes {
		s.recorder.FieldChanged(c.Field)
	}
	slog.InfoContext(ctx, "weather search updated",
		slog.Uint64("id", uint64(next.ID)),
		slog.String("update_id", updateID),
		slog.Int("changes", len(changes)),
		slog.String("outcome", OutcomeUpdated),
	)
	return &domain.UpdateResult{Found: true, UpdateID: updateID, Changes: changes}, nil
}

// ApplyUpdates applies each candidate in order and stops at the first error.
// Results of candidates applied before the failure are returned with it.
func (s *weatherService) ApplyUpdates(ctx context.Context, candidates []domain.WeatherSearch, editorID uint) ([]domain.UpdateResult, error) {
	results := make([]domain.UpdateResult, 0, len(candidates))
	for i := range candidates {
		res, err := s.ApplyUpdate(ctx, &candidates[i], editorID)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// Search returns one page of matching records. The condition filter is
// normalized and out-of-range page parameters are clamped first.
func (s *weatherService) Search(ctx context.Context, filter domain.SearchFilter, req domain.PageRequest) (*domain.PageResult[domain.WeatherSearch], error) {
	filter.Condition = s.normalizeCondition(filter.Condition)
	return s.repo.SearchPaged(ctx, filter, pkg.ClampPageRequest(req, s.pageLimits))
}

// List returns every matching record.
func (s *weatherService) List(ctx context.Context, filter domain.SearchFilter) ([]domain.WeatherSearch, error) {
	filter.Condition = s.normalizeCondition(filter.Condition)
	return s.repo.List(ctx, filter)
}

// History returns a record's change log in insertion order.
func (s *weatherService) History(ctx context.Context, recordID uint) ([]domain.ChangeLogEntry, error) {
	return s.repo.History(ctx, recordID)
}

// Cities returns the distinct stored cities.
func (s *weatherService) Cities(ctx context.Context) ([]string, error) {
	return s.repo.ListDistinctCities(ctx)
}

// Conditions returns the distinct stored conditions.
func (s *weatherService) Conditions(ctx context.Context) ([]string, error) {
	return s.repo.ListDistinctConditions(ctx)
}

// normalizeCondition maps c to its canonical label; blank becomes nil.
func (s *weatherService) normalizeCondition(c *string) *string {
	if c == nil {
		return nil
	}
	normalized := strings.TrimSpace(*c)
	if s.normalizer != nil {
		normalized = s.normalizer.Normalize(normalized)
	}
	if normalized == "" {
		return nil
	}
	return &normalized
}

// truncateDay returns UTC midnight of t's UTC calendar day.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
