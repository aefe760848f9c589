package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"miniblog/internal/models"
	"miniblog/internal/services"
	"miniblog/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func tokenFromBody(t *testing.T, body string) string {
	t.Helper()
	const marker = "/reset_password/"
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0, "body has no reset link: %s", body)
	rest := body[i+len(marker):]
	if j := strings.IndexAny(rest, " \n"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func newResetFixture(mailer services.Mailer) (*MockUserRepository, *services.PasswordResetService, *clock) {
	users := new(MockUserRepository)
	c := &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := services.NewResetTokenService("test_secret", 0).WithClock(c.Now)
	auth := services.NewAuthService(users, bcrypt.MinCost)
	svc := services.NewPasswordResetService(users, auth, tokens, mailer, "http://blog.test/", 1800*time.Second)
	return users, svc, c
}

func TestPasswordResetService_FullFlow(t *testing.T) {
	ctx := context.Background()
	mailer := &captureMailer{}
	users, svc, c := newResetFixture(mailer)

	u1 := &models.User{ID: 1, Email: "u1@example.com"}
	users.On("GetByEmail", ctx, "u1@example.com").Return(u1, nil).Once()

	require.NoError(t, svc.RequestReset(ctx, "u1@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "u1@example.com", mailer.sent[0].To)
	assert.Equal(t, "Password Reset Request", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "http://blog.test/reset_password/")

	token := tokenFromBody(t, mailer.sent[0].Body)

	users.On("GetByID", ctx, uint(1)).Return(u1, nil)
	got, err := svc.CheckToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ID)

	users.On("UpdatePassword", ctx, uint(1), mock.AnythingOfType("string")).Return(nil).Once()
	_, err = svc.ResetPassword(ctx, token, "brand-new-pass")
	require.NoError(t, err)

	// Expired tokens are refused
	c.Advance(31 * time.Minute)
	_, err = svc.ResetPassword(ctx, token, "another-pass")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	users.AssertExpectations(t)
}

func TestPasswordResetService_UnknownEmailSendsNothing(t *testing.T) {
	ctx := context.Background()
	mailer := &captureMailer{}
	users, svc, _ := newResetFixture(mailer)

	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, notFound("ghost")).Once()

	assert.NoError(t, svc.RequestReset(ctx, "ghost@example.com"))
	assert.Empty(t, mailer.sent)
}

func TestPasswordResetService_MailFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	mailer := &captureMailer{err: errors.New("broker down")}
	users, svc, _ := newResetFixture(mailer)

	users.On("GetByEmail", ctx, "u1@example.com").Return(&models.User{ID: 1, Email: "u1@example.com"}, nil).Once()

	err := svc.RequestReset(ctx, "u1@example.com")
	assert.ErrorIs(t, err, apperrors.ErrMailDelivery)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPasswordResetService_TokenForDeletedUser(t *testing.T) {
	ctx := context.Background()
	users, svc, _ := newResetFixture(&captureMailer{})
	tokens := services.NewResetTokenService("test_secret", 0).WithClock((&clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}).Now)

	token, err := tokens.Issue(55, time.Hour)
	require.NoError(t, err)
	users.On("GetByID", ctx, uint(55)).Return(nil, notFound("55")).Once()

	_, err = svc.CheckToken(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	_, err = svc.CheckToken(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}
