package weather

import (
	"time"

	"github.com/simp-lee/weatherlog/internal/domain"
)

const dateLayout = "2006-01-02"

// SaveRequest is the input for saving a new observation.
type SaveRequest struct {
	City        string   `json:"city" binding:"required"`
	Humidity    *int     `json:"humidity" binding:"required"`
	TempMin     *float64 `json:"temp_min" binding:"required"`
	TempMax     *float64 `json:"temp_max" binding:"required"`
	SearchDate  string   `json:"search_date" binding:"omitempty,datetime=2006-01-02"`
	Condition   *string  `json:"condition"`
	CurrentTemp *float64 `json:"current_temp"`
	WindSpeed   *float64 `json:"wind_speed"`
	WindDeg     *int     `json:"wind_deg"`
}

// toRecord builds the record to save. Range checks are left to the service.
func (r SaveRequest) toRecord() *domain.WeatherSearch {
	rec := &domain.WeatherSearch{
		City:        r.City,
		Condition:   r.Condition,
		CurrentTemp: r.CurrentTemp,
		WindSpeed:   r.WindSpeed,
		WindDeg:     r.WindDeg,
	}
	if r.Humidity != nil {
		rec.Humidity = *r.Humidity
	}
	if r.TempMin != nil {
		rec.TempMin = *r.TempMin
	}
	if r.TempMax != nil {
		rec.TempMax = *r.TempMax
	}
	if d, err := time.Parse(dateLayout, r.SearchDate); err == nil {
		rec.SearchDate = d
	}
	return rec
}

// StateRequest carries the full candidate state of the mutable fields.
// Optional fields left out are treated as cleared. Value ranges are checked
// by the service against the configured limits.
type StateRequest struct {
	Humidity    *int     `json:"humidity" binding:"required"`
	TempMin     *float64 `json:"temp_min" binding:"required"`
	TempMax     *float64 `json:"temp_max" binding:"required"`
	CurrentTemp *float64 `json:"current_temp"`
	Condition   *string  `json:"condition"`
	WindSpeed   *float64 `json:"wind_speed"`
	WindDeg     *int     `json:"wind_deg"`
}

func (r StateRequest) toCandidate(id uint) *domain.WeatherSearch {
	c := &domain.WeatherSearch{
		CurrentTemp: r.CurrentTemp,
		Condition:   r.Condition,
		WindSpeed:   r.WindSpeed,
		WindDeg:     r.WindDeg,
	}
	c.ID = id
	if r.Humidity != nil {
		c.Humidity = *r.Humidity
	}
	if r.TempMin != nil {
		c.TempMin = *r.TempMin
	}
	if r.TempMax != nil {
		c.TempMax = *r.TempMax
	}
	return c
}

// ChangeItem is one candidate of a batch update.
type ChangeItem struct {
	ID uint `json:"id" binding:"required"`
	StateRequest
}

// ChangesRequest is the input for a batch update.
type ChangesRequest struct {
	Changes []ChangeItem `json:"changes" binding:"required,min=1,dive"`
}

// SearchQuery holds the search filters taken from the query string.
type SearchQuery struct {
	City      string `form:"city" binding:"omitempty,max=100"`
	Condition string `form:"condition" binding:"omitempty,max=100"`
	Username  string `form:"username" binding:"omitempty,max=50"`
	Mine      bool   `form:"mine"`
	From      string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// toFilter converts the query to a domain filter. userID scopes the result
// when Mine is set.
func (q SearchQuery) toFilter(userID uint) domain.SearchFilter {
	var f domain.SearchFilter
	if q.City != "" {
		f.City = &q.City
	}
	if q.Condition != "" {
		f.Condition = &q.Condition
	}
	if q.Username != "" {
		f.Username = &q.Username
	}
	if q.Mine {
		f.UserID = &userID
	}
	if d, err := time.Parse(dateLayout, q.From); err == nil {
		f.From = &d
	}
	if d, err := time.Parse(dateLayout, q.To); err == nil {
		f.To = &d
	}
	return f
}
