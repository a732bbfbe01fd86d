package weather

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/weatherlog/internal/domain"
)

// Limits bounds the values SaveNew and ApplyUpdate accept.
type Limits struct {
	CityMaxLength      int
	ConditionMaxLength int
	TempMin            float64
	TempMax            float64
	HumidityMin        int
	HumidityMax        int
	WindSpeedMax       float64
	WindDegMax         int
}

// DefaultLimits returns the stock validation bounds.
func DefaultLimits() Limits {
	return Limits{
		CityMaxLength:      100,
		ConditionMaxLength: 100,
		TempMin:            -100,
		TempMax:            100,
		HumidityMin:        0,
		HumidityMax:        100,
		WindSpeedMax:       200,
		WindDegMax:         360,
	}
}

// saveInput is the statically shaped value the rule table checks.
type saveInput struct {
	record *domain.WeatherSearch
	userID uint
}

// rule is one row of the validation table: the field it reports, a predicate
// that holds for valid input, and the message used when it does not. Rules
// marked onSave cover attributes an update never changes.
type rule struct {
	field   string
	onSave  bool
	valid   func(in saveInput) bool
	message string
}

// rules builds the table for the given bounds. A field listed more than once
// reports the first rule it fails.
func rules(l Limits) []rule {
	tempOK := func(v float64) bool { return v >= l.TempMin && v <= l.TempMax }
	tempMsg := fmt.Sprintf("must be between %g and %g degrees", l.TempMin, l.TempMax)

	return []rule{
		{
			field:  "City",
			onSave: true,
			valid: func(in saveInput) bool {
				return strings.TrimSpace(in.record.City) != ""
			},
			message: "City is required",
		},
		{
			field:  "City",
			onSave: true,
			valid: func(in saveInput) bool {
				return utf8.RuneCountInString(strings.TrimSpace(in.record.City)) <= l.CityMaxLength
			},
			message: fmt.Sprintf("City must be at most %d characters", l.CityMaxLength),
		},
		{
			field:   "Humidity",
			valid:   func(in saveInput) bool { return in.record.Humidity >= l.HumidityMin && in.record.Humidity <= l.HumidityMax },
			message: fmt.Sprintf("Humidity must be between %d and %d percent", l.HumidityMin, l.HumidityMax),
		},
		{
			field:   "TempMin",
			valid:   func(in saveInput) bool { return tempOK(in.record.TempMin) },
			message: "TempMin " + tempMsg,
		},
		{
			field:   "TempMax",
			valid:   func(in saveInput) bool { return tempOK(in.record.TempMax) },
			message: "TempMax " + tempMsg,
		},
		{
			field:   "TempMax",
			valid:   func(in saveInput) bool { return in.record.TempMin <= in.record.TempMax },
			message: "TempMax must not be lower than TempMin",
		},
		{
			field: "Condition",
			valid: func(in saveInput) bool {
				return in.record.Condition == nil ||
					utf8.RuneCountInString(strings.TrimSpace(*in.record.Condition)) <= l.ConditionMaxLength
			},
			message: fmt.Sprintf("Condition must be at most %d characters", l.ConditionMaxLength),
		},
		{
			field:   "CurrentTemp",
			valid:   func(in saveInput) bool { return in.record.CurrentTemp == nil || tempOK(*in.record.CurrentTemp) },
			message: "CurrentTemp " + tempMsg,
		},
		{
			field: "WindSpeed",
			valid: func(in saveInput) bool {
				return in.record.WindSpeed == nil || (*in.record.WindSpeed >= 0 && *in.record.WindSpeed <= l.WindSpeedMax)
			},
			message: fmt.Sprintf("WindSpeed must be between 0 and %g km/h", l.WindSpeedMax),
		},
		{
			field: "WindDeg",
			valid: func(in saveInput) bool {
				return in.record.WindDeg == nil || (*in.record.WindDeg >= 0 && *in.record.WindDeg <= l.WindDegMax)
			},
			message: fmt.Sprintf("WindDeg must be between 0 and %d degrees", l.WindDegMax),
		},
		{
			field:   "UserID",
			onSave:  true,
			valid:   func(in saveInput) bool { return in.userID > 0 },
			message: "UserID must be positive",
		},
	}
}

// ruleValidator checks records against the rule table.
type ruleValidator struct {
	rules []rule
}

func newRuleValidator(l Limits) *ruleValidator {
	if l.ConditionMaxLength <= 0 {
		l.ConditionMaxLength = DefaultLimits().ConditionMaxLength
	}
	return &ruleValidator{rules: rules(l)}
}

// Validate checks a new record saved by userID. It returns a validation
// AppError naming every failing field, or nil.
func (v *ruleValidator) Validate(record *domain.WeatherSearch, userID uint) error {
	return v.check(record, userID, true)
}

// ValidateState checks the mutable fields of an update candidate. City,
// date and owner are kept from the stored record and are not checked.
func (v *ruleValidator) ValidateState(record *domain.WeatherSearch) error {
	return v.check(record, 0, false)
}

func (v *ruleValidator) check(record *domain.WeatherSearch, userID uint, saving bool) error {
	if record == nil {
		return domain.NewValidationError(map[string]string{"Record": "Record is required"})
	}
	in := saveInput{record: record, userID: userID}
	failed := make(map[string]string)
	for _, r := range v.rules {
		if r.onSave && !saving {
			continue
		}
		if _, seen := failed[r.field]; seen {
			continue
		}
		if !r.valid(in) {
			failed[r.field] = r.message
		}
	}
	if len(failed) > 0 {
		return domain.NewValidationError(failed)
	}
	return nil
}
