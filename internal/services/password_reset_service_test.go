package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"ruangpena/internal/credentials"
	"ruangpena/internal/models"
	"ruangpena/internal/repositories"
	"ruangpena/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type resetFixture struct {
	service *services.PasswordResetService
	users   *repositories.MockUserRepository
	codes   *repositories.MockResetCodeRepository
	sender  *MockResetCodeSender
	user    *models.User
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	f := &resetFixture{
		users:  repositories.NewMockUserRepository(),
		codes:  repositories.NewMockResetCodeRepository(),
		sender: new(MockResetCodeSender),
		user:   &models.User{Email: "alice@example.com", PasswordHash: mustHash(t, "Passw0rd1")},
	}
	require.NoError(t, f.users.Create(context.Background(), f.user))
	f.service = services.NewPasswordResetService(f.users, f.codes, f.sender, time.Minute, bcrypt.MinCost)
	return f
}

// requestCode asks for a reset and returns the code handed to the sender.
func (f *resetFixture) requestCode(t *testing.T) string {
	t.Helper()
	var code string
	f.sender.On("SendResetCode", "alice@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { code = args.String(1) }).
		Return(nil).Once()
	require.NoError(t, f.service.RequestReset(context.Background(), models.ForgotPasswordRequest{Email: " Alice@Example.com "}))
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	return code
}

func TestPasswordReset_FullFlow(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	code := f.requestCode(t)

	err := f.service.ResetPassword(ctx, models.ResetPasswordRequest{
		Email: "alice@example.com", Code: code, NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234",
	})
	require.NoError(t, err)

	stored, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, credentials.VerifyPassword("Fresh1234", stored.PasswordHash))

	// Codes are single use.
	err = f.service.ResetPassword(ctx, models.ResetPasswordRequest{
		Email: "alice@example.com", Code: code, NewPassword: "Again1234", ConfirmPassword: "Again1234",
	})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.EqualError(t, err, services.MsgResetCodeInvalid)
	f.sender.AssertExpectations(t)
}

func TestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newResetFixture(t)

	err := f.service.RequestReset(context.Background(), models.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	f.sender.AssertNotCalled(t, "SendResetCode", mock.Anything, mock.Anything)
}

func TestPasswordReset_RequestValidatesEmail(t *testing.T) {
	f := newResetFixture(t)

	err := f.service.RequestReset(context.Background(), models.ForgotPasswordRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.EqualError(t, err, credentials.MsgEmailInvalid)
}

func TestPasswordReset_SenderFailure(t *testing.T) {
	f := newResetFixture(t)
	f.sender.On("SendResetCode", "alice@example.com", mock.Anything).Return(errors.New("smtp down")).Once()

	err := f.service.RequestReset(context.Background(), models.ForgotPasswordRequest{Email: "alice@example.com"})
	require.Error(t, err)
	var serviceErr *services.Error
	assert.False(t, errors.As(err, &serviceErr))
}

func TestPasswordReset_Validation(t *testing.T) {
	f := newResetFixture(t)
	code := f.requestCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	tests := []struct {
		name string
		req  models.ResetPasswordRequest
		msg  string
	}{
		{"short code", models.ResetPasswordRequest{Email: "alice@example.com", Code: "123", NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234"}, services.MsgResetCodeFormat},
		{"signed code", models.ResetPasswordRequest{Email: "alice@example.com", Code: "-12345", NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234"}, services.MsgResetCodeFormat},
		{"letters in code", models.ResetPasswordRequest{Email: "alice@example.com", Code: "12a456", NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234"}, services.MsgResetCodeFormat},
		{"weak password", models.ResetPasswordRequest{Email: "alice@example.com", Code: code, NewPassword: "fresh1234", ConfirmPassword: "fresh1234"}, credentials.MsgPasswordUppercase},
		{"mismatch", models.ResetPasswordRequest{Email: "alice@example.com", Code: code, NewPassword: "Fresh1234", ConfirmPassword: "Fresh12345"}, "Password confirmation does not match"},
		{"wrong code", models.ResetPasswordRequest{Email: "alice@example.com", Code: wrong, NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234"}, services.MsgResetCodeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.ResetPassword(context.Background(), tt.req)
			assert.ErrorIs(t, err, services.ErrValidation)
			assert.EqualError(t, err, tt.msg)
		})
	}

	// None of the failures above consumed the code.
	require.NoError(t, f.service.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Email: "alice@example.com", Code: code, NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234",
	}))
}

func TestPasswordReset_CodeBurnsAfterRepeatedWrongGuesses(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	code := f.requestCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < repositories.MaxResetCodeAttempts; i++ {
		err := f.service.ResetPassword(ctx, models.ResetPasswordRequest{
			Email: "alice@example.com", Code: wrong, NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234",
		})
		assert.EqualError(t, err, services.MsgResetCodeInvalid)
	}

	err := f.service.ResetPassword(ctx, models.ResetPasswordRequest{
		Email: "alice@example.com", Code: code, NewPassword: "Fresh1234", ConfirmPassword: "Fresh1234",
	})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.EqualError(t, err, services.MsgResetCodeInvalid)

	stored, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, credentials.VerifyPassword("Passw0rd1", stored.PasswordHash))
}
