package validation_test

import (
	"errors"
	"testing"
	"time"

	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
	"github.com/vnykmshr/fiberflow/pkg/fiber"
	"github.com/vnykmshr/fiberflow/pkg/scheduling/scheduler"
)

func TestFactoryConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fiber.FactoryConfig)
		field  string
	}{
		{"no workers", func(c *fiber.FactoryConfig) { c.Workers = 0 }, "Workers"},
		{"negative timeout", func(c *fiber.FactoryConfig) { c.TaskTimeout = -time.Second }, "TaskTimeout"},
		{"zero window", func(c *fiber.FactoryConfig) { c.BatchWindow = 0 }, "BatchWindow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fiber.DefaultFactoryConfig()
			tt.mutate(&cfg)

			var verr *gferrors.ValidationError
			if err := cfg.Validate(); !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Module != "fiber" || verr.Field != tt.field {
				t.Errorf("got %s.%s, want fiber.%s", verr.Module, verr.Field, tt.field)
			}
		})
	}

	if err := fiber.DefaultFactoryConfig().Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestEmptyCronExpression(t *testing.T) {
	s := scheduler.New(fiber.NewThreadFiber(fiber.Config{}), scheduler.Config{})
	defer s.Dispose()

	_, err := s.ParseCron("")

	var verr *gferrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Reason != "cannot be empty" || verr.Hint != "provide a non-empty cron" {
		t.Errorf("unexpected details: %+v", verr)
	}
}

func TestNonPositiveIntervalPanics(t *testing.T) {
	s := scheduler.New(fiber.NewThreadFiber(fiber.Config{}), scheduler.Config{})
	defer s.Dispose()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !gferrors.IsValidationError(err) {
			t.Fatalf("expected ValidationError panic, got %v", r)
		}
	}()
	s.ScheduleOnInterval(func() {}, 0, 0)
}
