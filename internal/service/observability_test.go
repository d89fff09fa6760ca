package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver keeps events in memory.
type recordingObserver struct {
	Events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	r.Events = append(r.Events, event)
}

// Last returns the most recent event with the given name.
func (r *recordingObserver) Last(name string) (UseCaseEvent, bool) {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Name == name {
			return r.Events[i], true
		}
	}
	return UseCaseEvent{}, false
}

func TestLogUseCaseObserver_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:     "search-slots",
		Duration: 12 * time.Millisecond,
		Success:  true,
		Fields:   map[string]any{"slots": 2},
	})

	line := buf.String()
	assert.Contains(t, line, "msg=service_use_case")
	assert.Contains(t, line, "use_case=search-slots")
	assert.Contains(t, line, "duration_ms=12")
	assert.Contains(t, line, "slots=2")
	assert.Contains(t, line, "level=INFO")
}

func TestLogUseCaseObserver_ErrorsLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "commit-slot", Err: errors.New("conflict")})

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "error=conflict")
}

func TestNewLogUseCaseObserver_NilWriterIsNoop(t *testing.T) {
	_, ok := NewLogUseCaseObserver(nil).(NoopUseCaseObserver)
	assert.True(t, ok)
}

func TestUseCase_FinishReportsOutcome(t *testing.T) {
	rec := &recordingObserver{}
	uc := startUseCase("create-order", map[string]any{"order": "A-1"})
	uc.fields["tasks"] = 3
	uc.finish(context.Background(), rec, nil)

	ev, ok := rec.Last("create-order")
	require.True(t, ok)
	assert.True(t, ev.Success)
	assert.Equal(t, 3, ev.Fields["tasks"])
	assert.Equal(t, "A-1", ev.Fields["order"])
	assert.False(t, ev.StartedAt.IsZero())
}

func TestUseCaseObserverOrNoop(t *testing.T) {
	rec := &recordingObserver{}
	assert.Same(t, rec, useCaseObserverOrNoop([]UseCaseObserver{nil, rec}))
	assert.Equal(t, NoopUseCaseObserver{}, useCaseObserverOrNoop(nil))
}

func TestUseCaseObserverOrNoop_FansOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	obs := useCaseObserverOrNoop([]UseCaseObserver{a, nil, b})

	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "commit-slot"})

	assert.Len(t, a.Events, 1)
	assert.Len(t, b.Events, 1)
}

func TestLogUseCaseObserver_PlanningRejectionsLogAtWarn(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf)

	conflict := &domain.ConflictError{}
	obs.ObserveUseCase(context.Background(), UseCaseEvent{Name: "commit-slot", Err: fmt.Errorf("commit: %w", conflict)})

	assert.Contains(t, buf.String(), "level=WARN")
	assert.NotContains(t, buf.String(), "level=ERROR")
}

func TestLogUseCaseObserver_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf)

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:    "create-order",
		Success: true,
		Fields:  map[string]any{"tasks": 2, "order": "A-1", "product": "Flyer"},
	})

	line := buf.String()
	order, product, tasks := strings.Index(line, "order="), strings.Index(line, "product="), strings.Index(line, "tasks=")
	assert.Less(t, order, product)
	assert.Less(t, product, tasks)
}
