package form

import (
	"context"
	"time"

	"github.com/kdsmith18542/liveform/observability"
)

// Observer defines hooks for tracing and metrics
// Users can implement this interface and register with RegisterObserver
// All hooks are optional (no-op if not set)
type Observer interface {
	OnValidationStart(ctx context.Context, formName string)
	OnValidationEnd(ctx context.Context, formName string, errors ValidationErrors, duration time.Duration)
	OnFieldChanged(ctx context.Context, formName string, field string)
	OnSubmitStart(ctx context.Context, formName string)
	OnSubmitEnd(ctx context.Context, formName string, err error, duration time.Duration)
}

var observer Observer

// RegisterObserver sets the global observer for form events
func RegisterObserver(obs Observer) {
	observer = obs
}

// getObserver returns the registered observer (or nil)
func getObserver() Observer {
	return observer
}

// formObserver implements Observer using the global observability system
type formObserver struct{}

func (f *formObserver) OnValidationStart(ctx context.Context, formName string) {
	observability.GetObserver().OnFormValidationStart(ctx, formName)
}

func (f *formObserver) OnValidationEnd(ctx context.Context, formName string, errors ValidationErrors, duration time.Duration) {
	observability.GetObserver().OnFormValidationEnd(ctx, formName, errors.Count(), duration)

	for field, fieldErrors := range errors {
		for _, err := range fieldErrors {
			observability.GetObserver().OnFormValidationError(ctx, formName, field, err)
		}
	}
}

func (f *formObserver) OnFieldChanged(ctx context.Context, formName string, field string) {
	observability.GetObserver().OnFieldChanged(ctx, formName, field)
}

func (f *formObserver) OnSubmitStart(ctx context.Context, formName string) {
	observability.GetObserver().OnSubmitStart(ctx, formName)
}

func (f *formObserver) OnSubmitEnd(ctx context.Context, formName string, err error, duration time.Duration) {
	observability.GetObserver().OnSubmitEnd(ctx, formName, duration, err == nil)
	if err != nil {
		observability.LogError(ctx, "form submission failed", err, map[string]string{"form.name": formName})
	}
}

// handleValidationObservability reports the end of a full validation pass
func handleValidationObservability(ctx context.Context, formName string, errors ValidationErrors, start time.Time) {
	if obs := getObserver(); obs != nil {
		obs.OnValidationEnd(ctx, formName, errors, time.Since(start))
	}
}

// EnableObservability enables observability integration for the form package
func EnableObservability() {
	RegisterObserver(&formObserver{})
}
