package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestSurveyRecordDecodesBackendFieldNames(t *testing.T) {
	raw := `{
		"_id": "66a1f0",
		"name": "Asha Rao",
		"gender": "female",
		"nationality": "Indian",
		"email": "asha@example.com",
		"phone": "+91 98765 43210",
		"streetAddress": "12 MG Road",
		"city": "Pune",
		"state": "MH",
		"pincode": "411001",
		"message": "Hello",
		"createdAt": "2025-03-04T10:15:00Z"
	}`

	var rec SurveyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if rec.ID != "66a1f0" {
		t.Errorf("ID = %q, want %q", rec.ID, "66a1f0")
	}
	if rec.StreetAddress != "12 MG Road" {
		t.Errorf("StreetAddress = %q, want %q", rec.StreetAddress, "12 MG Road")
	}
	want := time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)
	if !rec.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, want)
	}
}

func TestSubmissionMissingFields(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
		want []string
	}{
		{"complete", Submission{Name: "A", Email: "a@example.com"}, nil},
		{"blank name", Submission{Name: "  ", Email: "a@example.com"}, []string{"name"}},
		{"both blank", Submission{}, []string{"name", "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sub.MissingFields()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubmissionOmitsEmptyBotField(t *testing.T) {
	data, err := json.Marshal(Submission{Name: "A", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := m["botField"]; ok {
		t.Error("botField should be omitted when empty")
	}
	if _, ok := m["streetAddress"]; !ok {
		t.Error("streetAddress should always be present")
	}
}
