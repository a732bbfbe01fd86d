package change

import (
	"time"

	"github.com/simp-lee/weatherlog/internal/domain"
)

// field binds a tracked field to its comparison and rendering rules.
type field struct {
	name   domain.FieldName
	kind   Kind
	value  func(r *domain.WeatherSearch) any
	render func(r *domain.WeatherSearch) string
}

// fields is evaluated in order; the audit trail is written in the same order.
var fields = []field{
	{
		name:   domain.FieldHumidity,
		kind:   KindInt,
		value:  func(r *domain.WeatherSearch) any { return r.Humidity },
		render: func(r *domain.WeatherSearch) string { return FormatInt(r.Humidity) },
	},
	{
		name:   domain.FieldTempMin,
		kind:   KindFloat,
		value:  func(r *domain.WeatherSearch) any { return r.TempMin },
		render: func(r *domain.WeatherSearch) string { return FormatFloat(r.TempMin) },
	},
	{
		name:   domain.FieldTempMax,
		kind:   KindFloat,
		value:  func(r *domain.WeatherSearch) any { return r.TempMax },
		render: func(r *domain.WeatherSearch) string { return FormatFloat(r.TempMax) },
	},
	{
		name:   domain.FieldCurrentTemp,
		kind:   KindOptionalFloat,
		value:  func(r *domain.WeatherSearch) any { return r.CurrentTemp },
		render: func(r *domain.WeatherSearch) string { return FormatOptionalFloat(r.CurrentTemp) },
	},
	{
		name:   domain.FieldCondition,
		kind:   KindOptionalString,
		value:  func(r *domain.WeatherSearch) any { return r.Condition },
		render: func(r *domain.WeatherSearch) string { return FormatOptionalString(r.Condition) },
	},
	{
		name:   domain.FieldWindSpeed,
		kind:   KindOptionalFloat,
		value:  func(r *domain.WeatherSearch) any { return r.WindSpeed },
		render: func(r *domain.WeatherSearch) string { return FormatOptionalFloat(r.WindSpeed) },
	},
	{
		name:   domain.FieldWindDeg,
		kind:   KindOptionalInt,
		value:  func(r *domain.WeatherSearch) any { return r.WindDeg },
		render: func(r *domain.WeatherSearch) string { return FormatOptionalInt(r.WindDeg) },
	},
}

// Detector produces the ordered list of field changes between two records.
type Detector struct {
	cmp Comparator
	now func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the detection timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDetector creates a Detector using cmp for value comparison.
func NewDetector(cmp Comparator, opts ...Option) *Detector {
	d := &Detector{cmp: cmp, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect compares old against candidate in the fixed order Humidity, TempMin,
// TempMax, CurrentTemp, Condition, WindSpeed, WindDeg. It never returns nil.
// Identity, owner, city and search date are not compared.
func (d *Detector) Detect(old, candidate *domain.WeatherSearch) []domain.FieldChange {
	changes := make([]domain.FieldChange, 0, len(fields))
	if old == nil || candidate == nil {
		return changes
	}

	at := d.now().UTC()
	for _, f := range fields {
		if !d.cmp.Differs(f.kind, f.value(old), f.value(candidate)) {
			continue
		}
		changes = append(changes, domain.FieldChange{
			Field:      f.name,
			OldValue:   f.render(old),
			NewValue:   f.render(candidate),
			DetectedAt: at,
		})
	}
	return changes
}
