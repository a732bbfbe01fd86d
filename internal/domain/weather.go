package domain

import (
	"context"
	"time"
)

// WeatherSearch is one saved weather observation.
type WeatherSearch struct {
	BaseModel
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Username    string    `gorm:"->;-:migration" json:"username,omitempty"`
	City        string    `gorm:"size:100;not null;index" json:"city"`
	Humidity    int       `gorm:"not null" json:"humidity"`
	TempMin     float64   `gorm:"not null" json:"temp_min"`
	TempMax     float64   `gorm:"not null" json:"temp_max"`
	SearchDate  time.Time `gorm:"not null;index" json:"search_date"`
	Condition   *string   `gorm:"size:100" json:"condition"`
	CurrentTemp *float64  `json:"current_temp"`
	WindSpeed   *float64  `json:"wind_speed"`
	WindDeg     *int      `json:"wind_deg"`
}

// FieldName identifies a mutable attribute of a WeatherSearch.
type FieldName string

// Tracked fields, listed in detection order.
const (
	FieldHumidity    FieldName = "Humidity"
	FieldTempMin     FieldName = "TempMin"
	FieldTempMax     FieldName = "TempMax"
	FieldCurrentTemp FieldName = "CurrentTemp"
	FieldCondition   FieldName = "Condition"
	FieldWindSpeed   FieldName = "WindSpeed"
	FieldWindDeg     FieldName = "WindDeg"
)

// TrackedFields is the fixed order in which field changes are detected and logged.
var TrackedFields = []FieldName{
	FieldHumidity,
	FieldTempMin,
	FieldTempMax,
	FieldCurrentTemp,
	FieldCondition,
	FieldWindSpeed,
	FieldWindDeg,
}

// FieldChange is one detected difference between a stored record and a candidate.
type FieldChange struct {
	Field      FieldName `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// ChangeLogEntry is an immutable audit row for one field change.
// UpdateID groups the entries written by the same update call.
type ChangeLogEntry struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	WeatherSearchID uint      `gorm:"not null;index" json:"weather_search_id"`
	UpdateID        string    `gorm:"size:36;not null" json:"update_id"`
	ChangedAt       time.Time `gorm:"not null" json:"changed_at"`
	FieldName       string    `gorm:"size:50;not null" json:"field_name"`
	OldValue        string    `gorm:"type:text" json:"old_value"`
	NewValue        string    `gorm:"type:text" json:"new_value"`
	UserID          uint      `gorm:"not null" json:"user_id"`
	Username        string    `gorm:"->;-:migration" json:"username,omitempty"`
}

// TableName pins the audit table name.
func (ChangeLogEntry) TableName() string {
	return "change_logs"
}

// SearchFilter holds the optional, conjunctive predicates of a weather search.
// A nil field means "no constraint". From and To are both inclusive.
type SearchFilter struct {
	UserID    *uint
	City      *string
	Condition *string
	Username  *string
	From      *time.Time
	To        *time.Time
}

// UpdateResult describes the outcome of applying a candidate state.
// Found is false when the target record does not exist; nothing is written then.
type UpdateResult struct {
	Found    bool          `json:"found"`
	UpdateID string        `json:"update_id,omitempty"`
	Changes  []FieldChange `json:"changes"`
}

// ConditionNormalizer maps free-text condition phrases to the canonical
// "Main (description)" form.
type ConditionNormalizer interface {
	Normalize(condition string) string
}

// WeatherRepository defines the persistence contract for weather records and
// their change log.
type WeatherRepository interface {
	GetByID(ctx context.Context, id uint) (*WeatherSearch, error)
	Insert(ctx context.Context, record *WeatherSearch) error
	// UpdateFieldChange writes the full mutable state of the record and appends
	// one change log row for field.
	UpdateFieldChange(ctx context.Context, entry ChangeLogEntry, state *WeatherSearch) error
	// SearchPaged assumes page >= 1 and pageSize >= 1.
	SearchPaged(ctx context.Context, filter SearchFilter, req PageRequest) (*PageResult[WeatherSearch], error)
	List(ctx context.Context, filter SearchFilter) ([]WeatherSearch, error)
	ListDistinctCities(ctx context.Context) ([]string, error)
	ListDistinctConditions(ctx context.Context) ([]string, error)
	History(ctx context.Context, recordID uint) ([]ChangeLogEntry, error)
	// Transaction runs fn against a repository bound to a single transaction.
	Transaction(ctx context.Context, fn func(repo WeatherRepository) error) error
}

// WeatherService is the consuming surface exposed to handlers and the CLI.
type WeatherService interface {
	SaveNew(ctx context.Context, record *WeatherSearch, userID uint) (*WeatherSearch, error)
	Get(ctx context.Context, id uint) (*WeatherSearch, error)
	ApplyUpdate(ctx context.Context, candidate *WeatherSearch, editorID uint) (*UpdateResult, error)
	ApplyUpdates(ctx context.Context, candidates []WeatherSearch, editorID uint) ([]UpdateResult, error)
	Search(ctx context.Context, filter SearchFilter, req PageRequest) (*PageResult[WeatherSearch], error)
	List(ctx context.Context, filter SearchFilter) ([]WeatherSearch, error)
	History(ctx context.Context, recordID uint) ([]ChangeLogEntry, error)
	Cities(ctx context.Context) ([]string, error)
	Conditions(ctx context.Context) ([]string, error)
}
