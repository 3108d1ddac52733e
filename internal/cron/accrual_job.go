package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/contactevin2u/orderops-api/internal/accrual"
	"github.com/contactevin2u/orderops-api/pkg/logger"
)

const accrualJobName = "monthly_accrual"

// AccrualJobParams configure the scheduled accrual sweep.
type AccrualJobParams struct {
	Logger    *logger.Logger
	Accrual   accrual.Service
	BatchSize int
}

type accrualJob struct {
	logg      *logger.Logger
	accrual   accrual.Service
	batchSize int
	now       func() time.Time
}

// NewAccrualJob constructs the job that keeps recurring monthly charges
// current for every order with an active plan.
func NewAccrualJob(params AccrualJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Accrual == nil {
		return nil, fmt.Errorf("accrual service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &accrualJob{
		logg:      params.Logger,
		accrual:   params.Accrual,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

func (j *accrualJob) Name() string {
	return accrualJobName
}

func (j *accrualJob) Run(ctx context.Context) error {
	created, err := j.accrual.AccrueAll(ctx, j.now(), j.batchSize)
	if err != nil {
		return fmt.Errorf("accrue all: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "entries_created", created), "accrual sweep complete")
	return nil
}
