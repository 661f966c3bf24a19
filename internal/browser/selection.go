package browser

import (
	"sync"

	"github.com/surveyops/surveyctl/internal/events"
	"github.com/surveyops/surveyctl/internal/models"
)

// EventSelectionChanged is published on Select and Clear.
const EventSelectionChanged events.EventType = "browser.selection"

// SelectionEvent carries the new selection; Record is nil after Clear.
type SelectionEvent struct {
	events.BaseEvent
	Record *models.SurveyRecord
}

// Selection holds at most one record under inspection. It stores a copy, so
// later page loads never change or clear it; only Clear does.
type Selection struct {
	mu      sync.Mutex
	current *models.SurveyRecord
	bus     *events.EventBus
}

// NewSelection creates an empty selection. bus may be nil.
func NewSelection(bus *events.EventBus) *Selection {
	return &Selection{bus: bus}
}

// Select replaces the selection with a copy of rec.
func (s *Selection) Select(rec models.SurveyRecord) {
	s.mu.Lock()
	s.current = &rec
	s.mu.Unlock()

	cp := rec
	s.bus.Publish(&SelectionEvent{BaseEvent: events.NewBase(EventSelectionChanged), Record: &cp})
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if had {
		s.bus.Publish(&SelectionEvent{BaseEvent: events.NewBase(EventSelectionChanged)})
	}
}

// Current returns the selected record, if any.
func (s *Selection) Current() (models.SurveyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.SurveyRecord{}, false
	}
	return *s.current, true
}
