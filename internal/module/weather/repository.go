package weather

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

const (
	recordColumns = "weather_searches.*, users.username AS username"
	joinUsers     = "LEFT JOIN users ON users.id = weather_searches.user_id"
	tieBreaker    = "weather_searches.id ASC"
)

// sortColumns maps accepted sort names to qualified columns.
var sortColumns = map[string]string{
	"id":          "weather_searches.id",
	"city":        "weather_searches.city",
	"search_date": "weather_searches.search_date",
	"humidity":    "weather_searches.humidity",
	"temp_min":    "weather_searches.temp_min",
	"temp_max":    "weather_searches.temp_max",
}

// weatherRepository implements domain.WeatherRepository using GORM.
type weatherRepository struct {
	db *gorm.DB
}

// NewWeatherRepository creates a new WeatherRepository backed by the given GORM database.
func NewWeatherRepository(db *gorm.DB) domain.WeatherRepository {
	return &weatherRepository{db: db}
}

// GetByID retrieves a record with its owner's username.
func (r *weatherRepository) GetByID(ctx context.Context, id uint) (*domain.WeatherSearch, error) {
	var record domain.WeatherSearch
	err := r.db.WithContext(ctx).
		Model(&domain.WeatherSearch{}).
		Select(recordColumns).
		Joins(joinUsers).
		Where("weather_searches.id = ?", id).
		Take(&record).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &record, nil
}

// Insert persists a new record and fills in its ID. An owner that is not a
// stored user is a validation error on UserID.
func (r *weatherRepository) Insert(ctx context.Context, record *domain.WeatherSearch) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, record.UserID); err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	return mapError(err)
}

// UpdateFieldChange overwrites the mutable columns of state.ID with the values
// in state and appends entry to the change log. Both writes share one
// transaction, nested as a savepoint when r is already transactional.
func (r *weatherRepository) UpdateFieldChange(ctx context.Context, entry domain.ChangeLogEntry, state *domain.WeatherSearch) error {
	if state == nil {
		return domain.NewAppError(domain.CodeInternal, "update state is nil", nil)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, entry.UserID); err != nil {
			return err
		}
		res := tx.Model(&domain.WeatherSearch{}).
			Where("id = ?", state.ID).
			Updates(mutableColumns(state))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		entry.ID = 0
		entry.WeatherSearchID = state.ID
		return tx.Create(&entry).Error
	})
	return mapError(err)
}

// mutableColumns lists every editable column; nil optionals are written as NULL.
func mutableColumns(s *domain.WeatherSearch) map[string]any {
	return map[string]any{
		"humidity":     s.Humidity,
		"temp_min":     s.TempMin,
		"temp_max":     s.TempMax,
		"current_temp": s.CurrentTemp,
		"condition":    s.Condition,
		"wind_speed":   s.WindSpeed,
		"wind_deg":     s.WindDeg,
	}
}

// SearchPaged returns one page of records matching filter, plus the total
// number of matches. The total does not depend on the requested window.
func (r *weatherRepository) SearchPaged(ctx context.Context, filter domain.SearchFilter, req domain.PageRequest) (*domain.PageResult[domain.WeatherSearch], error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var records []domain.WeatherSearch
	err := r.filtered(ctx, filter).
		Select(recordColumns).
		Scopes(
			pkg.Sort(req, sortColumns, tieBreaker),
			pkg.Paginate(req),
		).
		Find(&records).Error
	if err != nil {
		return nil, mapError(err)
	}

	return pkg.NewPage(records, total, req), nil
}

// List returns every record matching filter in ascending ID order.
func (r *weatherRepository) List(ctx context.Context, filter domain.SearchFilter) ([]domain.WeatherSearch, error) {
	records := []domain.WeatherSearch{}
	err := r.filtered(ctx, filter).
		Select(recordColumns).
		Order(tieBreaker).
		Find(&records).Error
	if err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

// filtered builds the joined base query with every non-nil predicate applied.
// Count and page queries each call it so they share the exact same WHERE.
func (r *weatherRepository) filtered(ctx context.Context, f domain.SearchFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&domain.WeatherSearch{}).
		Joins(joinUsers)

	if f.UserID != nil {
		q = q.Where("weather_searches.user_id = ?", *f.UserID)
	}
	if f.City != nil {
		q = q.Where("weather_searches.city = ?", *f.City)
	}
	if f.Condition != nil {
		q = q.Where("weather_searches.condition = ?", *f.Condition)
	}
	if f.Username != nil {
		q = q.Where("users.username = ?", *f.Username)
	}
	if f.From != nil {
		q = q.Where("weather_searches.search_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("weather_searches.search_date <= ?", f.To.UTC())
	}
	return q
}

// ListDistinctCities returns every stored city once, alphabetically.
func (r *weatherRepository) ListDistinctCities(ctx context.Context) ([]string, error) {
	cities := []string{}
	err := r.db.WithContext(ctx).
		Model(&domain.WeatherSearch{}).
		Distinct("city").
		Order("city").
		Pluck("city", &cities).Error
	if err != nil {
		return nil, mapError(err)
	}
	return cities, nil
}

// ListDistinctConditions returns every non-empty stored condition once, alphabetically.
func (r *weatherRepository) ListDistinctConditions(ctx context.Context) ([]string, error) {
	conditions := []string{}
	err := r.db.WithContext(ctx).
		Model(&domain.WeatherSearch{}).
		Where("condition IS NOT NULL AND condition <> ''").
		Distinct("condition").
		Order("condition").
		Pluck("condition", &conditions).Error
	if err != nil {
		return nil, mapError(err)
	}
	return conditions, nil
}

// History returns the change log of a record in insertion order, with the
// editor's username.
func (r *weatherRepository) History(ctx context.Context, recordID uint) ([]domain.ChangeLogEntry, error) {
	entries := []domain.ChangeLogEntry{}
	err := r.db.WithContext(ctx).
		Model(&domain.ChangeLogEntry{}).
		Select("change_logs.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = change_logs.user_id").
		Where("change_logs.weather_search_id = ?", recordID).
		Order("change_logs.id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// Transaction runs fn with a repository bound to one database transaction.
// fn's error rolls everything back.
func (r *weatherRepository) Transaction(ctx context.Context, fn func(repo domain.WeatherRepository) error) error {
	return mapError(pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&weatherRepository{db: tx})
	}))
}

// requireUser checks that id names a stored user. Foreign keys are not
// enforced on every SQLite connection, so the check is explicit.
func requireUser(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&domain.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errUnknownUser()
	}
	return nil
}

func errUnknownUser() error {
	return domain.NewValidationError(map[string]string{"UserID": "UserID does not match a known user"})
}

// mapError converts GORM errors to domain errors. Storage details stay in the
// wrapped error and never reach the message.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return errUnknownUser()
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}
