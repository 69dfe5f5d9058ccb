package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LinkInput carries the fields of a link to create. Nil pointers take the
// documented defaults.
type LinkInput struct {
	Title       string    `json:"title" validate:"required,max=1024"`
	URL         string    `json:"url" validate:"required,max=2048"`
	Description *string   `json:"description" validate:"omitempty,max=4096"`
	Target      *string   `json:"target" validate:"omitempty,oneof=_blank _self"`
	Groups      []string  `json:"groups" validate:"omitempty,max=64,dive,max=64"`
	Position    *int      `json:"position" validate:"omitempty,min=0"`
	Enabled     *FlexBool `json:"enabled"`
}

// LinkPatch is a partial update: only non-nil (or Set) fields change.
type LinkPatch struct {
	Title       *string          `json:"title" validate:"omitempty,max=1024"`
	URL         *string          `json:"url" validate:"omitempty,max=2048"`
	Description Optional[string] `json:"description"`
	Target      *string          `json:"target" validate:"omitempty,oneof=_blank _self"`
	Groups      *[]string        `json:"groups" validate:"omitempty,max=64,dive,max=64"`
	Position    *int             `json:"position" validate:"omitempty,min=0"`
	Enabled     *FlexBool        `json:"enabled"`
}

// Empty reports whether the patch changes nothing.
func (p LinkPatch) Empty() bool {
	return p.Title == nil && p.URL == nil && !p.Description.Set && p.Target == nil &&
		p.Groups == nil && p.Position == nil && p.Enabled == nil
}

// ImportRecord is one entry of an import file.
type ImportRecord struct {
	Title       string    `json:"title" yaml:"title"`
	URL         string    `json:"url" yaml:"url"`
	Description *string   `json:"description,omitempty" yaml:"description"`
	Target      *string   `json:"target,omitempty" yaml:"target"`
	Groups      []string  `json:"groups,omitempty" yaml:"groups"`
	Enabled     *FlexBool `json:"enabled,omitempty" yaml:"enabled"`
	IconURL     string    `json:"iconUrl,omitempty" yaml:"iconUrl"`
}

// Input converts the record into a create request.
func (r ImportRecord) Input() LinkInput {
	return LinkInput{
		Title:       r.Title,
		URL:         r.URL,
		Description: r.Description,
		Target:      r.Target,
		Groups:      r.Groups,
		Enabled:     r.Enabled,
	}
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// Optional distinguishes an absent JSON key from an explicit null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some builds a present, non-null optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

// Null builds a present null optional.
func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// Ptr returns nil for null, or a pointer to the value.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// FlexBool accepts true/false as well as the 0/1 integers older exports
// used for the enabled flag.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", `"0"`, `"false"`, "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean value %s", b)
	}
	return nil
}

func (f *FlexBool) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = FlexBool(t)
	case int:
		*f = t != 0
	case string:
		return f.UnmarshalJSON([]byte(t))
	default:
		return fmt.Errorf("invalid boolean value %v", v)
	}
	return nil
}

func (f *FlexBool) Bool(def bool) bool {
	if f == nil {
		return def
	}
	return bool(*f)
}
