package otp

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"fleettrack-backend/internal/apperr"

	"go.uber.org/zap"
)

// DefaultTTL is how long a pending code stays valid.
const DefaultTTL = 300 * time.Second

// Resolver matches contact numbers to accounts. Exists is consulted at
// request time, Resolve at verify time; Resolve returns NotFound when the
// account disappeared between the two steps.
type Resolver interface {
	Exists(ctx context.Context, contactNumber string) (bool, error)
	Resolve(ctx context.Context, contactNumber string) (accountID string, err error)
}

// TokenIssuer mints or retrieves the account's long-lived token. Issuing is
// idempotent: a second call for the same account returns the same token.
type TokenIssuer interface {
	IssueToken(ctx context.Context, accountID string) (string, error)
}

// Sender dispatches the code to the contact number.
type Sender interface {
	SendOTP(ctx context.Context, contactNumber, code string) error
}

// Service implements the two-step challenge-response flow. The same service
// backs both variants (user sessions and vehicle tokens); the resolver and
// issuer decide which account space a contact number belongs to.
type Service struct {
	store    Store
	sender   Sender
	resolver Resolver
	issuer   TokenIssuer
	ttl      time.Duration
	log      *zap.Logger
}

func NewService(store Store, sender Sender, resolver Resolver, issuer TokenIssuer, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, sender: sender, resolver: resolver, issuer: issuer, ttl: ttl, log: log}
}

type VerifyResult struct {
	AccountID string
	Token     string
}

// Request issues a fresh code for a registered contact number, caches it and
// dispatches it over SMS. An unregistered number is rejected before anything
// is cached.
func (s *Service) Request(ctx context.Context, contactNumber string) error {
	ok, err := s.resolver.Exists(ctx, contactNumber)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.CodeValidation, "contact number is not registered")
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.store.Put(ctx, contactNumber, code, s.ttl); err != nil {
		return err
	}

	if err := s.sender.SendOTP(ctx, contactNumber, code); err != nil {
		return apperr.Wrap(apperr.CodeDeliveryFailure, "failed to send OTP", err)
	}

	s.log.Info("otp dispatched", zap.String("contact_number", contactNumber))
	return nil
}

// Verify consumes the pending code and hands back the account's long-lived
// token. Missing, expired and mismatched codes are indistinguishable. The
// cached entry is deleted on success, so a replay with the same code fails.
func (s *Service) Verify(ctx context.Context, contactNumber, code string) (*VerifyResult, error) {
	ok, err := s.store.TakeIfMatch(ctx, contactNumber, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.CodeOTPInvalid, "invalid OTP")
	}

	accountID, err := s.resolver.Resolve(ctx, contactNumber)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.IssueToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	s.log.Info("otp verified", zap.String("contact_number", contactNumber), zap.String("account_id", accountID))
	return &VerifyResult{AccountID: accountID, Token: token}, nil
}

// generateCode samples a 6-digit code uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
