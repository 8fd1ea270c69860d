package budget

import (
	"context"
	"fmt"

	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// maxCatchUpPeriods bounds how many missed periods a single run creates per budget.
const maxCatchUpPeriods = 12

// RolloverJob starts the next period of every budget whose period has ended, carrying over
// what was left unspent.
type RolloverJob struct {
	repo     Repository
	clock    utils.Clock
	schedule string
	cron     *cron.Cron
}

func NewRolloverJob(repo Repository, clock utils.Clock, schedule string) *RolloverJob {
	return &RolloverJob{repo: repo, clock: clock, schedule: schedule}
}

// Start schedules the job. It is run once immediately so that periods missed while
// the service was down are caught up.
func (j *RolloverJob) Start() error {
	j.cron = cron.New()
	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.Run(context.Background()); err != nil {
			log.Errorf("budget rollover failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid rollover schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()
	log.Infof("Budget rollover scheduled (%s)", j.schedule)

	go func() {
		if _, err := j.Run(context.Background()); err != nil {
			log.Errorf("initial budget rollover failed: %v", err)
		}
	}()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish or ctx to expire.
func (j *RolloverJob) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn("budget rollover still running at shutdown")
	}
}

// Run creates the following budgets and returns how many were created.
func (j *RolloverJob) Run(ctx context.Context) (int, error) {
	today := utils.DateOf(j.clock.Now())
	created := 0
	for range maxCatchUpPeriods {
		candidates, err := j.repo.FindRolloverCandidates(ctx, today)
		if err != nil {
			return created, err
		}
		if len(candidates) == 0 {
			break
		}
		for _, ended := range candidates {
			if err := ctx.Err(); err != nil {
				return created, err
			}
			next := ended.Budget
			next.Id = 0
			next.PeriodStart, next.PeriodEnd = ended.NextPeriod()
			next.RolloverAmount = ended.Carryover()
			if _, err := j.repo.Create(ctx, ended.UserId, next); err != nil {
				return created, fmt.Errorf("failed to roll over budget %d: %w", ended.Id, err)
			}
			log.Debugf("rolled over budget %d of user %d carrying %s", ended.Id, ended.UserId, next.RolloverAmount.StringFixed(2))
			created++
		}
	}
	if created > 0 {
		log.Infof("Budget rollover created %d budgets", created)
	}
	return created, nil
}
