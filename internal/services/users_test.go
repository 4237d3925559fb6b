package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"portfolio-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) UserService {
	return UserService{
		Store:  newTestStore(t),
		Tokens: TokenService{Secret: []byte("test-secret"), Issuer: "portfolio", AccessTTL: time.Hour},
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3r-secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, VerifyPassword("Sup3r-secret", hash))
	assert.False(t, VerifyPassword("wrong", hash))

	legacy, err := bcrypt.GenerateFromPassword([]byte("old-pass!"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword("old-pass!", string(legacy)))
	assert.False(t, VerifyPassword("old-pass", string(legacy)))

	assert.False(t, VerifyPassword("x", "$argon2id$garbage"))
}

func TestDecodeArgon2idRejectsBadParameters(t *testing.T) {
	const salt, key = "c2FsdHNhbHRzYWx0c2FsdA", "a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2U"
	for name, params := range map[string]string{
		"zero parallelism":     "m=65536,t=3,p=0",
		"parallelism overflow": "m=65536,t=3,p=256",
		"zero iterations":      "m=65536,t=0,p=1",
		"zero memory":          "m=0,t=3,p=1",
	} {
		t.Run(name, func(t *testing.T) {
			encoded := "$argon2id$v=19$" + params + "$" + salt + "$" + key
			_, _, _, err := decodeArgon2id(encoded)
			assert.Error(t, err)
			assert.NotPanics(t, func() { assert.False(t, VerifyPassword("x", encoded)) })
		})
	}

	_, _, _, err := decodeArgon2id("$argon2id$v=19$m=65536,t=3,p=1$$" + key)
	assert.Error(t, err)
}

func TestPasswordPolicy(t *testing.T) {
	assert.NoError(t, checkPasswordPolicy("abcdefg!"))
	for _, weak := range []string{"abc!", "abcdefgh", "12345678"} {
		err := checkPasswordPolicy(weak)
		svcErr := requireKind(t, err, KindValidation)
		assert.Equal(t, weakPasswordMessage, svcErr.Message, weak)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := TokenService{Secret: []byte("s"), Issuer: "portfolio", AccessTTL: time.Hour}
	token, exp, err := tokens.CreateAccessToken(models.User{Meta: models.Meta{ID: "u1"}, Email: "a@b.c", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	p, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "u1", Email: "a@b.c", Role: models.RoleAdmin}, p)
	assert.True(t, p.Can(CapBulkDelete))

	other := TokenService{Secret: []byte("other"), Issuer: "portfolio", AccessTTL: time.Hour}
	_, err = other.Verify(token)
	requireKind(t, err, KindAuth)

	expired := TokenService{Secret: []byte("s"), Issuer: "portfolio", AccessTTL: -time.Minute}
	old, _, err := expired.CreateAccessToken(models.User{Meta: models.Meta{ID: "u1"}})
	require.NoError(t, err)
	_, err = tokens.Verify(old)
	requireKind(t, err, KindAuth)
}

func TestLoginUnknownEmailStillVerifies(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()
	_, err := users.Register(ctx, RegisterInput{Name: "Known", Email: "known@example.com", Password: "Kn0wn-pass!"})
	require.NoError(t, err)

	var hashes []string
	verifyPassword = func(raw, hashed string) bool {
		hashes = append(hashes, hashed)
		return VerifyPassword(raw, hashed)
	}
	t.Cleanup(func() { verifyPassword = VerifyPassword })

	_, err = users.Login(ctx, Credentials{Email: "nobody@example.com", Password: "Kn0wn-pass!"})
	svcErr := requireKind(t, err, KindAuth)
	assert.Equal(t, "Invalid credentials", svcErr.Message)

	_, err = users.Login(ctx, Credentials{Email: "known@example.com", Password: "wrong-pass!"})
	requireKind(t, err, KindAuth)

	require.Len(t, hashes, 2)
	assert.True(t, strings.HasPrefix(hashes[0], "$argon2id$"))
	assert.Equal(t, dummyPasswordHash(), hashes[0])
}

func TestAuthenticateReloadsAccount(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()
	session, err := users.Register(ctx, RegisterInput{Name: "Ed", Email: "ed@example.com", Password: "Ed1tor-pass!", Role: models.RoleAdmin})
	require.NoError(t, err)

	p, err := users.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)

	_, err = users.Update(ctx, session.User.ID, UserPatch{Role: ptr(models.RoleUser)})
	require.NoError(t, err)
	p, err = users.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.False(t, p.Can(CapManageContent))

	require.NoError(t, users.Delete(ctx, Principal{UserID: "someone-else"}, session.User.ID))
	_, err = users.Authenticate(ctx, session.Token)
	requireKind(t, err, KindAuth)

	_, err = users.Authenticate(ctx, "garbage")
	requireKind(t, err, KindAuth)
}

func TestCapabilities(t *testing.T) {
	user := Principal{Role: models.RoleUser}
	assert.True(t, user.Can(CapViewDashboard))
	assert.False(t, user.Can(CapManageContent))
	assert.False(t, user.Can(CapBulkDelete))
	assert.False(t, Principal{Role: "guest"}.Can(CapViewDashboard))
}

func TestRegisterAndLogin(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()

	session, err := users.Register(ctx, RegisterInput{Name: "Sam", Email: " Sam@Example.com", Password: "p@ssword1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "sam@example.com", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)

	_, err = users.Register(ctx, RegisterInput{Name: "Sam", Email: "sam@example.com", Password: "p@ssword1"})
	svcErr := requireKind(t, err, KindConflict)
	assert.Equal(t, "User already exists", svcErr.Message)

	_, err = users.Register(ctx, RegisterInput{Name: "Weak", Email: "weak@example.com", Password: "password"})
	requireKind(t, err, KindValidation)

	_, err = users.Login(ctx, Credentials{Email: "sam@example.com"})
	svcErr = requireKind(t, err, KindValidation)
	assert.Equal(t, "Please provide an email and password", svcErr.Message)

	_, err = users.Login(ctx, Credentials{Email: "sam@example.com", Password: "nope"})
	svcErr = requireKind(t, err, KindAuth)
	assert.Equal(t, "Invalid credentials", svcErr.Message)

	_, err = users.Login(ctx, Credentials{Email: "ghost@example.com", Password: "p@ssword1"})
	requireKind(t, err, KindAuth)

	logged, err := users.Login(ctx, Credentials{Email: "SAM@example.com", Password: "p@ssword1"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, logged.User.ID)
}

func TestUpdatePasswordAndDetails(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()

	session, err := users.Register(ctx, RegisterInput{Name: "Sam", Email: "sam@example.com", Password: "p@ssword1"})
	require.NoError(t, err)
	id := session.User.ID

	_, err = users.UpdatePassword(ctx, id, PasswordChange{CurrentPassword: "wrong", NewPassword: "n3w-pass!"})
	svcErr := requireKind(t, err, KindAuth)
	assert.Equal(t, "Password is incorrect", svcErr.Message)

	_, err = users.UpdatePassword(ctx, id, PasswordChange{CurrentPassword: "p@ssword1", NewPassword: "short"})
	requireKind(t, err, KindValidation)

	_, err = users.UpdatePassword(ctx, id, PasswordChange{CurrentPassword: "p@ssword1", NewPassword: "n3w-pass!"})
	require.NoError(t, err)
	_, err = users.Login(ctx, Credentials{Email: "sam@example.com", Password: "n3w-pass!"})
	require.NoError(t, err)

	_, err = users.Register(ctx, RegisterInput{Name: "Kim", Email: "kim@example.com", Password: "p@ssword1"})
	require.NoError(t, err)
	_, err = users.UpdateDetails(ctx, id, DetailsInput{Email: ptr("KIM@example.com")})
	svcErr = requireKind(t, err, KindConflict)
	assert.Equal(t, "Email already in use", svcErr.Message)

	renamed, err := users.UpdateDetails(ctx, id, DetailsInput{Name: ptr("Samantha")})
	require.NoError(t, err)
	assert.Equal(t, "Samantha", renamed.Name)
	assert.Equal(t, "sam@example.com", renamed.Email)
}

func TestAdminUserManagement(t *testing.T) {
	users := newUserService(t)
	ctx := context.Background()

	admin, err := users.EnsureAdmin(ctx, "Owner", "owner@example.com", "Adm1n-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	again, err := users.EnsureAdmin(ctx, "Owner", "OWNER@example.com", "N3w-admin-pass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
	_, err = users.Login(ctx, Credentials{Email: "owner@example.com", Password: "N3w-admin-pass"})
	require.NoError(t, err)

	member, err := users.Register(ctx, RegisterInput{Name: "Sam", Email: "sam@example.com", Password: "p@ssword1"})
	require.NoError(t, err)

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	promoted, err := users.Update(ctx, member.User.ID, UserPatch{Role: ptr(models.RoleAdmin)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = users.Update(ctx, member.User.ID, UserPatch{Role: ptr("root")})
	requireKind(t, err, KindValidation)

	actor := Principal{UserID: admin.ID, Role: models.RoleAdmin}
	err = users.Delete(ctx, actor, admin.ID)
	svcErr := requireKind(t, err, KindValidation)
	assert.Equal(t, "You cannot delete your own account", svcErr.Message)

	require.NoError(t, users.Delete(ctx, actor, member.User.ID))
	_, err = users.Get(ctx, member.User.ID)
	svcErr = requireKind(t, err, KindNotFound)
	assert.Equal(t, "User not found", svcErr.Message)
}
