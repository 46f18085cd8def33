// Package jobs implements background work for the True Tone API.
//
// InvitationExpiryJob reconciles stored invitation status with the
// effective status and purges stale refresh tokens:
//
//	job := jobs.NewInvitationExpiryJob(jobs.InvitationExpiryJobConfig{
//	    Invitations: invitationService,
//	    Tokens:      tokenService,
//	    Interval:    cfg.Invitation.ReconcileInterval,
//	})
//	job.Start()
//	defer job.Stop()
//
// Jobs log failures and keep running; RunOnce exposes a single pass for
// tests and manual triggers.
package jobs
