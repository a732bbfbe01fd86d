package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/weatherlog/internal/domain"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse replaces Data with per-field messages keyed by the
// JSON field name.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

const (
	msgSuccess    = "success"
	msgCreated    = "created"
	msgInternal   = "internal error"
	msgBadRequest = "bad request"
	msgValidation = "validation error"
)

func reply(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

func replyFields(c *gin.Context, status int, fields map[string]string) {
	c.JSON(status, ValidationErrorResponse{Code: status, Message: msgValidation, Errors: fields})
}

// Success answers 200 with data.
func Success(c *gin.Context, data any) { reply(c, http.StatusOK, msgSuccess, data) }

// Created answers 201 with the stored resource.
func Created(c *gin.Context, data any) { reply(c, http.StatusCreated, msgCreated, data) }

// List answers 200 with a page, usually a domain.PageResult.
func List(c *gin.Context, page any) { reply(c, http.StatusOK, msgSuccess, page) }

// Error maps err onto a status with domain.HTTPStatusCode. An AppError
// carrying field messages becomes a ValidationErrorResponse; anything that
// is not an AppError is reported as an internal error without detail.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		reply(c, status, msgInternal, nil)
		return
	}
	if len(appErr.Fields) > 0 {
		replyFields(c, status, appErr.Fields)
		return
	}
	reply(c, status, appErr.Message, nil)
}

// ValidationError answers 400. validator.ValidationErrors are expanded per
// field using lowercased Go field names; other errors get "bad request".
func ValidationError(c *gin.Context, err error) {
	rejectBinding(c, err, nil)
}

// BindAndValidate binds the request into obj. On failure it answers 400
// with fields named after obj's json tags and returns false:
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		rejectBinding(c, err, obj)
		return false
	}
	return true
}

func rejectBinding(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		reply(c, http.StatusBadRequest, msgBadRequest, nil)
		return
	}

	names := jsonNames(obj)
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, ok := names[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		fields[name] = fieldMessage(fe)
	}
	replyFields(c, http.StatusBadRequest, fields)
}

func fieldMessage(fe validator.FieldError) string {
	param := fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "datetime":
		return "Must be a date formatted as " + param
	case "min", "gte":
		return fmt.Sprintf("Must be at least %s%s", param, unit)
	case "max", "lte":
		return fmt.Sprintf("Must be at most %s%s", param, unit)
	case "gt":
		return "Must be greater than " + param
	case "oneof":
		return "Must be one of: " + param
	}
	if param == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + param
}

// jsonNames maps struct field names of obj to their json names. Fields
// without a usable tag are left out.
func jsonNames(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	names := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			names[f.Name] = name
		}
	}
	return names
}
