package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/weatherlog/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testInput is used to generate real validator.ValidationErrors.
type testInput struct {
	City     string `json:"city" validate:"required"`
	Humidity *int   `json:"humidity" validate:"required"`
}

// newResponseTestContext creates a gin context backed by an httptest.ResponseRecorder.
func newResponseTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

// newResponseTestContextWithBody creates a gin context with a JSON request body.
func newResponseTestContextWithBody(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// makeValidationErrors validates an empty testInput and returns the resulting
// validator.ValidationErrors.
func makeValidationErrors(t *testing.T) validator.ValidationErrors {
	t.Helper()
	validate := validator.New()
	err := validate.Struct(testInput{})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validator.ValidationErrors, got %T", err)
	}
	return ve
}

func TestEnvelopes(t *testing.T) {
	page := domain.PageResult[domain.WeatherSearch]{
		Items:      []domain.WeatherSearch{{City: "Oslo", Humidity: 81}},
		Total:      3,
		Page:       2,
		PageSize:   1,
		TotalPages: 3,
	}

	tests := []struct {
		name        string
		write       func(c *gin.Context)
		wantStatus  int
		wantMessage string
		wantData    bool
	}{
		{"success", func(c *gin.Context) { Success(c, gin.H{"city": "Oslo"}) }, http.StatusOK, "success", true},
		{"success without data", func(c *gin.Context) { Success(c, nil) }, http.StatusOK, "success", false},
		{"created", func(c *gin.Context) { Created(c, gin.H{"id": 7}) }, http.StatusCreated, "created", true},
		{"list", func(c *gin.Context) { List(c, page) }, http.StatusOK, "success", true},
		{
			"missing record",
			func(c *gin.Context) { Error(c, domain.NewAppError(domain.CodeNotFound, "weather search 9 not found", nil)) },
			http.StatusNotFound, "weather search 9 not found", false,
		},
		{
			"taken username",
			func(c *gin.Context) { Error(c, domain.NewAppError(domain.CodeAlreadyExists, "username taken", nil)) },
			http.StatusConflict, "username taken", false,
		},
		{
			"validation without fields",
			func(c *gin.Context) { Error(c, domain.NewAppError(domain.CodeValidation, "empty update", nil)) },
			http.StatusBadRequest, "empty update", false,
		},
		{
			"unexpected error hides detail",
			func(c *gin.Context) { Error(c, errors.New("database is locked")) },
			http.StatusInternalServerError, "internal error", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseTestContext()
			tt.write(c)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Code != tt.wantStatus || resp.Message != tt.wantMessage || (resp.Data != nil) != tt.wantData {
				t.Errorf("envelope = %+v", resp)
			}
		})
	}
}

func TestList_PageShape(t *testing.T) {
	c, w := newResponseTestContext()
	List(c, domain.PageResult[domain.WeatherSearch]{
		Items:      []domain.WeatherSearch{{City: "Oslo"}, {City: "Bergen"}},
		Total:      5,
		Page:       1,
		PageSize:   2,
		TotalPages: 3,
	})

	var resp struct {
		Data domain.PageResult[domain.WeatherSearch] `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := resp.Data
	if len(got.Items) != 2 || got.Items[1].City != "Bergen" || got.Total != 5 || got.TotalPages != 3 {
		t.Errorf("page = %+v", got)
	}
}

func TestValidationError_WithValidatorErrors(t *testing.T) {
	c, w := newResponseTestContext()

	ve := makeValidationErrors(t)
	ValidationError(c, ve)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected code %d, got %d", http.StatusBadRequest, resp.Code)
	}
	if resp.Message != "validation error" {
		t.Errorf("expected message %q, got %q", "validation error", resp.Message)
	}
	if len(resp.Errors) == 0 {
		t.Fatal("expected field errors, got none")
	}

	// Without obj, ValidationError falls back to lowercased struct field names.
	if msg, ok := resp.Errors["city"]; !ok {
		t.Error("expected error for field 'city'")
	} else if msg != "This field is required" {
		t.Errorf("expected message %q for city, got %q", "This field is required", msg)
	}

	if msg, ok := resp.Errors["humidity"]; !ok {
		t.Error("expected error for field 'humidity'")
	} else if msg != "This field is required" {
		t.Errorf("expected message %q for humidity, got %q", "This field is required", msg)
	}
}

func TestValidationError_NonValidationError(t *testing.T) {
	c, w := newResponseTestContext()

	ValidationError(c, errors.New("bad json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected code %d, got %d", http.StatusBadRequest, resp.Code)
	}
	if resp.Message != "bad request" {
		t.Errorf("expected message %q, got %q", "bad request", resp.Message)
	}
}

// bindInput mirrors a weather save request with gin binding tags.
type bindInput struct {
	City     string `json:"city" binding:"required,max=100"`
	Humidity *int   `json:"humidity" binding:"required,gte=0,lte=100"`
	Username string `json:"username" binding:"omitempty,min=3"`
	Date     string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

func TestBindAndValidate_InvalidJSON(t *testing.T) {
	c, w := newResponseTestContextWithBody(`{"invalid json`)

	var input bindInput
	if BindAndValidate(c, &input) {
		t.Error("expected BindAndValidate to return false for invalid JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Message != "bad request" {
		t.Errorf("expected message %q, got %q", "bad request", resp.Message)
	}
}

func TestBindAndValidate_FieldMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{
			name: "missing fields",
			body: `{}`,
			want: map[string]string{
				"city":     "This field is required",
				"humidity": "This field is required",
			},
		},
		{
			name: "numeric bound",
			body: `{"city":"Paris","humidity":101}`,
			want: map[string]string{"humidity": "Must be at most 100"},
		},
		{
			name: "string length",
			body: `{"city":"Paris","humidity":40,"username":"al"}`,
			want: map[string]string{"username": "Must be at least 3 characters"},
		},
		{
			name: "date layout",
			body: `{"city":"Paris","humidity":40,"date":"03/01/2024"}`,
			want: map[string]string{"date": "Must be a date formatted as 2006-01-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newResponseTestContextWithBody(tt.body)

			var input bindInput
			if BindAndValidate(c, &input) {
				t.Fatal("expected BindAndValidate to return false")
			}
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}

			var resp ValidationErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Message != "validation error" {
				t.Errorf("expected message %q, got %q", "validation error", resp.Message)
			}
			if len(resp.Errors) != len(tt.want) {
				t.Errorf("errors = %v, want %v", resp.Errors, tt.want)
			}
			for field, msg := range tt.want {
				if resp.Errors[field] != msg {
					t.Errorf("Errors[%s] = %q, want %q", field, resp.Errors[field], msg)
				}
			}
		})
	}
}

func TestBindAndValidate_ValidInput(t *testing.T) {
	c, w := newResponseTestContextWithBody(`{"city":"Paris","humidity":40}`)

	var input bindInput
	if !BindAndValidate(c, &input) {
		t.Fatal("expected BindAndValidate to return true for valid input")
	}
	// No response should be written on success.
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body on success, got %q", w.Body.String())
	}
	if input.City != "Paris" {
		t.Errorf("expected City='Paris', got %q", input.City)
	}
	if input.Humidity == nil || *input.Humidity != 40 {
		t.Errorf("expected Humidity=40, got %v", input.Humidity)
	}
}

func TestError_ValidationFields(t *testing.T) {
	c, w := newResponseTestContext()

	Error(c, domain.NewValidationError(map[string]string{
		"City":     "City is required",
		"Humidity": "Humidity must be between 0 and 100",
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	var resp ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Message != "validation error" {
		t.Errorf("expected message %q, got %q", "validation error", resp.Message)
	}
	if resp.Errors["City"] != "City is required" {
		t.Errorf("Errors[City] = %q", resp.Errors["City"])
	}
	if len(resp.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(resp.Errors))
	}
}

func TestCreated(t *testing.T) {
	c, w := newResponseTestContext()

	Created(c, map[string]int{"id": 7})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != http.StatusCreated || resp.Message != "created" {
		t.Errorf("unexpected envelope %+v", resp)
	}
}
