// Package jwt issues and validates RS256 access tokens for the True Tone API.
//
// Signing and parsing are delegated to github.com/golang-jwt/jwt/v5; this
// package adds key loading, issuer pinning, and a small error vocabulary the
// middleware can switch on.
//
// # Usage
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "api.truetone.reviews",
//	    ExpirationMins: 15,
//	})
//
//	token, err := svc.Sign(jwt.Claims{UserID: user.ID, Email: user.Email})
//	claims, err := svc.Validate(token)
//
// # Errors
//
//   - ErrTokenExpired: exp is in the past
//   - ErrTokenNotYetValid: nbf or iat is in the future
//   - ErrInvalidSignature: signature does not verify
//   - ErrInvalidToken: malformed token, wrong algorithm, or wrong issuer
//   - ErrInvalidKey: the service has no key for the operation
package jwt
