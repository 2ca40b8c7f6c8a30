package otp

import (
	"context"
	"testing"
	"time"

	"fleettrack-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendOTP(ctx context.Context, contactNumber, code string) error {
	args := m.Called(ctx, contactNumber, code)
	return args.Error(0)
}

// fakeResolver maps contact numbers to account ids; a missing entry at
// verify time reports NotFound like a deleted account would.
type fakeResolver struct {
	accounts map[string]string
}

func (r *fakeResolver) Exists(ctx context.Context, contactNumber string) (bool, error) {
	_, ok := r.accounts[contactNumber]
	return ok, nil
}

func (r *fakeResolver) Resolve(ctx context.Context, contactNumber string) (string, error) {
	id, ok := r.accounts[contactNumber]
	if !ok {
		return "", apperr.New(apperr.CodeNotFound, "account not found")
	}
	return id, nil
}

// fakeIssuer mints one token per account and keeps handing it back.
type fakeIssuer struct {
	tokens map[string]string
	calls  int
}

func (i *fakeIssuer) IssueToken(ctx context.Context, accountID string) (string, error) {
	i.calls++
	if tok, ok := i.tokens[accountID]; ok {
		return tok, nil
	}
	tok := "token-" + accountID
	i.tokens[accountID] = tok
	return tok, nil
}

func newTestService(t *testing.T, resolver *fakeResolver) (*Service, *mockSender, *fakeIssuer) {
	t.Helper()
	store, _ := newTestStore(t)
	sender := &mockSender{}
	issuer := &fakeIssuer{tokens: map[string]string{}}
	svc := NewService(store, sender, resolver, issuer, 300*time.Second, zap.NewNop())
	return svc, sender, issuer
}

func TestRequestUnregisteredNumber(t *testing.T) {
	ctx := context.Background()
	svc, sender, _ := newTestService(t, &fakeResolver{accounts: map[string]string{}})

	err := svc.Request(ctx, "9999999999")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	sender.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything)

	// Nothing was cached, so any code is rejected.
	_, err = svc.Verify(ctx, "9999999999", "123456")
	assert.True(t, apperr.Is(err, apperr.CodeOTPInvalid))
}

func TestRequestAndVerifyOnce(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{accounts: map[string]string{"9876543210": "acct-1"}}
	svc, sender, _ := newTestService(t, resolver)

	var sentCode string
	sender.On("SendOTP", mock.Anything, "9876543210", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentCode = args.String(2) }).
		Return(nil)

	require.NoError(t, svc.Request(ctx, "9876543210"))
	require.Len(t, sentCode, 6)
	assert.GreaterOrEqual(t, sentCode, "100000")
	assert.LessOrEqual(t, sentCode, "999999")

	res, err := svc.Verify(ctx, "9876543210", sentCode)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", res.AccountID)
	assert.Equal(t, "token-acct-1", res.Token)

	// Replay with the exact same code fails: the entry was consumed.
	_, err = svc.Verify(ctx, "9876543210", sentCode)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeOTPInvalid))
}

func TestVerifyWrongCode(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{accounts: map[string]string{"9876543210": "acct-1"}}
	svc, sender, _ := newTestService(t, resolver)

	var sentCode string
	sender.On("SendOTP", mock.Anything, "9876543210", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentCode = args.String(2) }).
		Return(nil)
	require.NoError(t, svc.Request(ctx, "9876543210"))

	wrong := "000000"
	if wrong == sentCode {
		wrong = "000001"
	}
	_, err := svc.Verify(ctx, "9876543210", wrong)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeOTPInvalid))

	// The pending code survives a failed attempt.
	res, err := svc.Verify(ctx, "9876543210", sentCode)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", res.AccountID)
}

func TestVerifyAccountDeletedBetweenSteps(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{accounts: map[string]string{"9876543210": "acct-1"}}
	svc, sender, _ := newTestService(t, resolver)

	var sentCode string
	sender.On("SendOTP", mock.Anything, "9876543210", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentCode = args.String(2) }).
		Return(nil)
	require.NoError(t, svc.Request(ctx, "9876543210"))

	delete(resolver.accounts, "9876543210")

	_, err := svc.Verify(ctx, "9876543210", sentCode)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound), "deleted account is NotFound, not OTPInvalid")
}

func TestVerifyTokenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{accounts: map[string]string{"9876543210": "acct-1"}}
	svc, sender, issuer := newTestService(t, resolver)

	var sentCode string
	sender.On("SendOTP", mock.Anything, "9876543210", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentCode = args.String(2) }).
		Return(nil)

	require.NoError(t, svc.Request(ctx, "9876543210"))
	first, err := svc.Verify(ctx, "9876543210", sentCode)
	require.NoError(t, err)

	// Fresh OTP cycle for the same account.
	require.NoError(t, svc.Request(ctx, "9876543210"))
	second, err := svc.Verify(ctx, "9876543210", sentCode)
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token, "same long-lived token across cycles")
	assert.Equal(t, 2, issuer.calls)
}

func TestRequestDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{accounts: map[string]string{"9876543210": "acct-1"}}
	svc, sender, _ := newTestService(t, resolver)

	sender.On("SendOTP", mock.Anything, "9876543210", mock.AnythingOfType("string")).
		Return(assert.AnError)

	err := svc.Request(ctx, "9876543210")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeDeliveryFailure))
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
