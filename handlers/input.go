package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/store"
)

// Field is one optional request value. Set reports whether the key was in
// the body at all, so an explicit null can be told apart from an absent key.
type Field[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func present[T any](f Field[T]) bool { return f.Set && f.Value != nil }

func required[T any](name string, f Field[T]) error {
	if !present(f) {
		return invalidf("%s is required", name)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// setValue copies a non-nullable field.
func setValue[T any](name string, f Field[T], dst *T) error {
	if !f.Set {
		return nil
	}
	if f.Value == nil {
		return invalidf("%s may not be null", name)
	}
	*dst = *f.Value
	return nil
}

// setPtr copies a nullable field.
func setPtr[T any](f Field[T], dst **T) {
	if f.Set {
		*dst = f.Value
	}
}

// setDate copies a nullable YYYY-MM-DD field. An empty string clears it.
func setDate(name string, f Field[string], dst **string) error {
	if !f.Set {
		return nil
	}
	if f.Value == nil || *f.Value == "" {
		*dst = nil
		return nil
	}
	d, err := models.ParseDate(name, *f.Value)
	if err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	*dst = &d
	return nil
}

// setText stores a string or structured value as text.
func setText(f Field[models.FlexText], dst **string) {
	if f.Set {
		*dst = f.Value.Ptr()
	}
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id "+strconv.Quote(c.Param("id")))
	}
	return id, nil
}

// queryInt reads an optional integer query parameter; absent is 0.
func queryInt(c echo.Context, name string, def int) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}

func scopeParams(c echo.Context) (store.Scope, error) {
	id, err := queryInt(c, "drill_hole_id", 0)
	if err != nil {
		return store.Scope{}, err
	}
	return store.Scope{DrillHoleID: id, ProjectName: c.QueryParam("project_name")}, nil
}
