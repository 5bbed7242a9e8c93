package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/status"
)

// Refresher reloads the conversation list on a cron schedule and drives the
// session status from the outcome.
type Refresher struct {
	cron    *cron.Cron
	inbox   *inbox.Controller
	machine *status.Machine
	timeout time.Duration
	logger  *zap.Logger
}

// NewRefresher schedules refreshes with a cron expression. An empty schedule adds no job;
// RunOnce still works.
func NewRefresher(schedule string, ctrl *inbox.Controller, machine *status.Machine, timeout time.Duration, logger *zap.Logger) (*Refresher, error) {
	cl := cronLogger{logger.Sugar()}
	r := &Refresher{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		inbox:   ctrl,
		machine: machine,
		timeout: timeout,
		logger:  logger,
	}
	if schedule != "" {
		if _, err := r.cron.AddFunc(schedule, r.tick); err != nil {
			return nil, fmt.Errorf("refresh schedule %q: %w", schedule, err)
		}
	}
	return r, nil
}

// Start begins the schedule.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh, or for ctx.
func (r *Refresher) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_ = r.RunOnce(ctx)
}

// RunOnce refreshes now and records the result on the session machine.
func (r *Refresher) RunOnce(ctx context.Context) error {
	err := r.inbox.Refresh(ctx)
	r.record(err)
	return err
}

func (r *Refresher) record(err error) {
	var to status.State
	switch {
	case err == nil:
		to = status.Ready
	case errors.Is(err, inbox.ErrClosed), errors.Is(err, context.Canceled):
		return
	case api.Code(err) == codes.Unauthenticated:
		to = status.AuthRequired
	case r.machine.Current() == status.Ready:
		to = status.Degraded
	default:
		r.logger.Warn("refresh failed", zap.Error(err))
		return
	}
	if err != nil {
		r.logger.Warn("refresh failed", zap.String("next_state", string(to)), zap.Error(err))
	}
	if terr := r.machine.Transition(to); terr != nil {
		r.logger.Debug("session state unchanged", zap.Error(terr))
	}
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
