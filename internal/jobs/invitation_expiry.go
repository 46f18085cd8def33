package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiryReconciler persists the expired status of overdue invitations
type ExpiryReconciler interface {
	ReconcileExpired(ctx context.Context) (int, error)
}

// TokenPurger removes refresh tokens that can no longer be used
type TokenPurger interface {
	PurgeExpired(ctx context.Context) error
}

// InvitationExpiryJob periodically moves lapsed pending invitations to
// expired so stored status and effective status converge. Reads never
// depend on it: every lookup computes the effective status itself.
type InvitationExpiryJob struct {
	invitations  ExpiryReconciler
	tokens       TokenPurger
	interval     time.Duration
	initialDelay time.Duration
	timeout      time.Duration
	logger       *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// InvitationExpiryJobConfig holds configuration for the expiry job
type InvitationExpiryJobConfig struct {
	Invitations  ExpiryReconciler
	Tokens       TokenPurger   // Optional: purge stale refresh tokens on the same tick
	Interval     time.Duration // Default: 15m
	InitialDelay time.Duration // Default: 5s, lets the server finish starting
	Timeout      time.Duration // Per-run timeout, default 2m
	Logger       *slog.Logger
}

// NewInvitationExpiryJob creates a new invitation expiry job
func NewInvitationExpiryJob(cfg InvitationExpiryJobConfig) *InvitationExpiryJob {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = 5 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &InvitationExpiryJob{
		invitations:  cfg.Invitations,
		tokens:       cfg.Tokens,
		interval:     cfg.Interval,
		initialDelay: cfg.InitialDelay,
		timeout:      cfg.Timeout,
		logger:       cfg.Logger.With("job", "invitation_expiry"),
		stopCh:       make(chan struct{}),
	}
}

// Start begins the job loop
func (j *InvitationExpiryJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.logger.Info("job started", "interval", j.interval)
}

// Stop stops the loop and waits for an in-progress run to finish
func (j *InvitationExpiryJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("job stopped")
}

func (j *InvitationExpiryJob) run() {
	defer j.wg.Done()

	select {
	case <-time.After(j.initialDelay):
	case <-j.stopCh:
		return
	}
	j.tick()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.tick()
		case <-j.stopCh:
			return
		}
	}
}

func (j *InvitationExpiryJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("run failed", "error", err)
	}
}

// RunOnce reconciles invitations and purges tokens once. A token purge
// failure does not hide a successful reconcile; both errors are logged.
func (j *InvitationExpiryJob) RunOnce(ctx context.Context) error {
	n, err := j.invitations.ReconcileExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("invitations expired", "count", n)
	}

	if j.tokens != nil {
		if err := j.tokens.PurgeExpired(ctx); err != nil {
			j.logger.Warn("refresh token purge failed", "error", err)
		}
	}
	return nil
}

// IsRunning returns whether the job loop is running
func (j *InvitationExpiryJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
