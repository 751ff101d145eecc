package scheduler_test

import (
	"context"
	"testing"

	"go-payroll/internal/payroll"
	"go-payroll/internal/scheduler"

	"github.com/stretchr/testify/assert"
)

type fakeBulkService struct {
	payroll.Service
	runBulkFn func(ctx context.Context, mode string) (payroll.BulkResult, error)
}

func (f *fakeBulkService) RunBulk(ctx context.Context, mode string) (payroll.BulkResult, error) {
	return f.runBulkFn(ctx, mode)
}

func TestScheduler_DisabledIsNoop(t *testing.T) {
	svc := &fakeBulkService{
		runBulkFn: func(ctx context.Context, mode string) (payroll.BulkResult, error) {
			t.Fatal("bulk run must not fire when automation is disabled")
			return payroll.BulkResult{}, nil
		},
	}

	s := scheduler.New(scheduler.Config{Enabled: false}, svc)

	assert.NoError(t, s.Start())
	s.Stop()
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	svc := &fakeBulkService{}

	s := scheduler.New(scheduler.Config{
		Enabled:  true,
		Schedule: "every day at nine",
		Mode:     payroll.BulkModeBestEffort,
	}, svc)

	assert.Error(t, s.Start())
}
