// Package model holds the transient records passed between the feed and
// intake handlers and the external services they front.
package model

import (
	"encoding/json"
	"errors"
)

// ContentItem is one published post as served by the feed.
type ContentItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Category        string `json:"category"`
	MetaDescription string `json:"metaDescription"`
	ReadTime        string `json:"readTime"`
	Author          string `json:"author"`
	PublishDate     string `json:"publishDate"`
	URL             string `json:"url"`
}

// LeadStatus is written to every appended lead row.
const LeadStatus = "Sent"

// LeadHeaders are the column titles of the leads sheet, in row order.
var LeadHeaders = []string{"Date/Time", "Name", "Email", "Source", "Status"}

// LeadRecord is one row appended to the leads spreadsheet.
type LeadRecord struct {
	Timestamp string
	Name      string
	Email     string
	Source    string
	Status    string
}

// Row renders the record in LeadHeaders order.
func (l LeadRecord) Row() []any {
	return []any{l.Timestamp, l.Name, l.Email, l.Source, l.Status}
}

// ErrNullSubmission is returned for a body of literal null.
var ErrNullSubmission = errors.New("submission is null")

// Submission is the form payload posted to the intake webhook. Fields that
// are missing or carry a non-string JSON value decode as empty. The body
// itself must be an object.
type Submission struct {
	Name   string
	Email  string
	Source string
	// Timestamp is the raw JSON value: a date string or epoch milliseconds.
	Timestamp json.RawMessage
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return ErrNullSubmission
	}
	*s = Submission{
		Name:   stringField(raw, "name"),
		Email:  stringField(raw, "email"),
		Source: stringField(raw, "source"),
	}
	if ts, ok := raw["timestamp"]; ok && string(ts) != "null" {
		s.Timestamp = ts
	}
	return nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
