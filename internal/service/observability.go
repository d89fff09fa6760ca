package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/alexanderramin/slotwise/internal/domain"
)

// UseCaseEvent captures lightweight execution telemetry for a service use case.
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger *slog.Logger
}

// NewLogUseCaseObserver writes one structured line per use case to w.
func NewLogUseCaseObserver(w io.Writer) UseCaseObserver {
	if w == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"use_case", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, event.Fields[k])
	}

	level := slog.LevelInfo
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		level = slog.LevelError
		if isPlanningRejection(event.Err) {
			level = slog.LevelWarn
		}
	}
	o.logger.Log(ctx, level, "service_use_case", attrs...)
}

// isPlanningRejection reports errors a planner resolves by searching again
// or picking another slot; they are expected, not failures of the shop.
func isPlanningRejection(err error) bool {
	for _, target := range []error{
		domain.ErrSlotConflict,
		domain.ErrNoFeasibleSlot,
		domain.ErrPrerequisitesPending,
		domain.ErrAlreadyScheduled,
		domain.ErrOutsideShift,
		domain.ErrBeforePrerequisites,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// useCase times one service call. Fields may be filled in while it runs.
type useCase struct {
	name      string
	startedAt time.Time
	fields    map[string]any
}

func startUseCase(name string, fields map[string]any) *useCase {
	if fields == nil {
		fields = map[string]any{}
	}
	return &useCase{name: name, startedAt: time.Now().UTC(), fields: fields}
}

func (u *useCase) finish(ctx context.Context, obs UseCaseObserver, err error) {
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:      u.name,
		StartedAt: u.startedAt,
		Duration:  time.Since(u.startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    u.fields,
	})
}

// multiObserver fans one event out to several observers.
type multiObserver []UseCaseObserver

func (m multiObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	for _, obs := range m {
		obs.ObserveUseCase(ctx, event)
	}
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	var live multiObserver
	for _, obs := range observers {
		if obs != nil {
			live = append(live, obs)
		}
	}
	switch len(live) {
	case 0:
		return NoopUseCaseObserver{}
	case 1:
		return live[0]
	default:
		return live
	}
}
