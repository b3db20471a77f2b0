package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestore-emulator/internal/identitytoolkit/domain/model"
	"firestore-emulator/internal/identitytoolkit/security"
	"firestore-emulator/internal/identitytoolkit/usecase"
)

func newService() *usecase.AuthService {
	return usecase.NewAuthService(security.NewJWTIssuer("test-secret", time.Hour))
}

func TestSignUp_CreatesAccount(t *testing.T) {
	svc := newService()
	u, token, err := svc.SignUp("ada@example.com", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, u.LocalID)
	assert.NotEmpty(t, token)
}

func TestSignUp_RejectsDuplicateEmail(t *testing.T) {
	svc := newService()
	_, _, err := svc.SignUp("ada@example.com", "s3cret!")
	require.NoError(t, err)

	_, _, err = svc.SignUp("ada@example.com", "different!")
	assert.ErrorIs(t, err, model.ErrEmailExists)
}

func TestSignUp_RejectsWeakPassword(t *testing.T) {
	svc := newService()
	_, _, err := svc.SignUp("ada@example.com", "short")
	assert.ErrorIs(t, err, model.ErrInvalidPassword)
}

func TestSignIn_SucceedsWithCorrectCredentials(t *testing.T) {
	svc := newService()
	svc.SignUp("ada@example.com", "s3cret!")

	u, token, err := svc.SignIn("ada@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, token)
}

func TestSignIn_FailsWithWrongPassword(t *testing.T) {
	svc := newService()
	svc.SignUp("ada@example.com", "s3cret!")

	_, _, err := svc.SignIn("ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestLookup_ResolvesTokenToAccount(t *testing.T) {
	svc := newService()
	_, token, _ := svc.SignUp("ada@example.com", "s3cret!")

	u, err := svc.Lookup(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestDelete_RemovesAccountAndRevokesToken(t *testing.T) {
	svc := newService()
	_, token, _ := svc.SignUp("ada@example.com", "s3cret!")

	require.NoError(t, svc.Delete(token))

	_, err := svc.Lookup(token)
	assert.ErrorIs(t, err, security.ErrTokenInvalid)
}

func TestUpdate_ChangesDisplayNameAndPassword(t *testing.T) {
	svc := newService()
	_, token, _ := svc.SignUp("ada@example.com", "s3cret!")

	u, err := svc.Update(token, "Ada Lovelace", "newpassword1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.DisplayName)

	_, _, err = svc.SignIn("ada@example.com", "newpassword1")
	assert.NoError(t, err)
}
