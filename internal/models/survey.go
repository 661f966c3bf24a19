// Package models defines data structures exchanged with the survey backend.
package models

import (
	"strings"
	"time"
)

// SurveyRecord is an immutable snapshot of one submission as returned by the
// backend. Nothing client-side mutates it; copies are passed by value.
type SurveyRecord struct {
	ID            string    `json:"_id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Gender        string    `json:"gender" yaml:"gender"`
	Nationality   string    `json:"nationality" yaml:"nationality"`
	Email         string    `json:"email" yaml:"email"`
	Phone         string    `json:"phone" yaml:"phone"`
	StreetAddress string    `json:"streetAddress" yaml:"street_address"`
	City          string    `json:"city" yaml:"city"`
	State         string    `json:"state" yaml:"state"`
	Pincode       string    `json:"pincode" yaml:"pincode"`
	Message       string    `json:"message" yaml:"message"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
}

// Submission is the payload of POST /survey (createRecord).
type Submission struct {
	Name          string `json:"name" yaml:"name"`
	Gender        string `json:"gender" yaml:"gender"`
	Nationality   string `json:"nationality" yaml:"nationality"`
	Email         string `json:"email" yaml:"email"`
	Phone         string `json:"phone" yaml:"phone"`
	StreetAddress string `json:"streetAddress" yaml:"street_address"`
	City          string `json:"city" yaml:"city"`
	State         string `json:"state" yaml:"state"`
	Pincode       string `json:"pincode" yaml:"pincode"`
	Message       string `json:"message" yaml:"message"`
	BotField      string `json:"botField,omitempty" yaml:"bot_field,omitempty"` // honeypot, always empty from humans
}

// MissingFields returns the names of required fields that are blank.
// Only presence is checked; field formats belong to the backend.
func (s Submission) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(s.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(s.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

// ListResult is one page of records plus the total count across all pages.
type ListResult struct {
	Records []SurveyRecord `json:"surveys" yaml:"records"`
	Total   int            `json:"total" yaml:"total"`
}

// Request types

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response types

// Envelope is the common {success, message} wrapper on every backend response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ListResponse struct {
	Envelope
	Surveys []SurveyRecord `json:"surveys"`
	Total   int            `json:"total"`
}

type RecordResponse struct {
	Envelope
	Survey SurveyRecord `json:"survey"`
}

// ErrorResponse is what the backend sends alongside non-2xx statuses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
