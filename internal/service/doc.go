// Package service implements the business logic layer for the True Tone API.
//
// Services validate input, orchestrate repository calls and translate
// storage failures into the sentinel errors in errors.go. Handlers map
// those errors to problem details.
//
// # Service Pattern
//
//   - NewXxxService accepts a XxxServiceConfig holding its dependencies
//   - Repository interfaces are declared here, next to their consumer
//   - Clocks are injected as func() time.Time so expiry can be tested
//
// # Services
//
//   - CatalogService: saxophone records, reviews and read-time aggregates
//   - InvitationService: invitation issue, list, resend and lazy expiry
//   - ProvisioningService: turns an invitation into a reviewer account
//   - AuthService, LocalAuthProvider, TokenService: sign-in sessions
//
// # Example Usage
//
//	invitations := NewInvitationService(InvitationServiceConfig{
//	    InvitationRepo: repository.NewInvitationRepository(db),
//	    Origin:         cfg.Server.Origin,
//	})
//	view, err := invitations.Create(ctx, adminID, &model.CreateInvitationRequest{
//	    Email: "player@example.com",
//	})
//	if errors.Is(err, ErrDuplicatePending) {
//	    // an unexpired invitation is already outstanding
//	}
package service
