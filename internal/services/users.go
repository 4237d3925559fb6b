package services

import (
	"context"
	"errors"
	"strings"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/store"
)

type UserService struct {
	Store  store.Store
	Tokens TokenService
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

type DetailsInput struct {
	Name  *string `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitnil,email"`
}

type UserPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitnil,email"`
	Role  *string `json:"role,omitempty" validate:"omitnil,oneof=admin user"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Session is what a successful login or registration returns.
type Session struct {
	Token     string            `json:"token"`
	ExpiresAt int64             `json:"expiresAt"`
	User      models.PublicUser `json:"user"`
}

func (s UserService) Login(ctx context.Context, in Credentials) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return Session{}, ErrValidation("Please provide an email and password")
	}
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			verifyPassword(in.Password, dummyPasswordHash())
			return Session{}, ErrUnauthorized("Invalid credentials")
		}
		return Session{}, err
	}
	if !verifyPassword(in.Password, user.PasswordHash) {
		return Session{}, ErrUnauthorized("Invalid credentials")
	}
	return s.session(user)
}

// Authenticate verifies a bearer token and reloads the account it names.
// The principal carries the stored role, not the one in the claims.
func (s UserService) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return Principal{}, err
	}
	doc, err := s.Store.Get(ctx, models.CollUsers, claims.UserID)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return Principal{}, ErrUnauthorized("Not authorized to access this route")
	}
	if err != nil {
		return Principal{}, err
	}
	user, err := decodeAs[models.User](doc)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s UserService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := check(&in); err != nil {
		return Session{}, err
	}
	if err := checkPasswordPolicy(in.Password); err != nil {
		return Session{}, err
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	user, err := s.create(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// EnsureAdmin creates the admin account or resets the password and role of
// an existing account with the same email.
func (s UserService) EnsureAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	in := RegisterInput{Name: name, Email: strings.ToLower(strings.TrimSpace(email)), Password: password, Role: models.RoleAdmin}
	if err := check(&in); err != nil {
		return models.User{}, err
	}
	if err := checkPasswordPolicy(in.Password); err != nil {
		return models.User{}, err
	}
	existing, err := s.findByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return s.create(ctx, in)
	}
	if err != nil {
		return models.User{}, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	doc, err := s.Store.Patch(ctx, models.CollUsers, existing.ID, store.Document{
		"name":         in.Name,
		"role":         models.RoleAdmin,
		"passwordHash": hash,
	})
	if err != nil {
		return models.User{}, err
	}
	return decodeAs[models.User](doc)
}

func (s UserService) Get(ctx context.Context, id string) (models.User, error) {
	doc, err := s.Store.Get(ctx, models.CollUsers, id)
	if err != nil {
		return models.User{}, notFoundAs(err, "User not found")
	}
	return decodeAs[models.User](doc)
}

func (s UserService) List(ctx context.Context) ([]models.PublicUser, error) {
	docs, err := s.Store.Find(ctx, models.CollUsers, store.Query{
		Sort: []store.SortKey{{Field: store.FieldCreatedAt, Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	users, err := decodeAll[models.User](docs)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s UserService) UpdateDetails(ctx context.Context, id string, in DetailsInput) (models.User, error) {
	if in.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &lowered
	}
	if err := check(&in); err != nil {
		return models.User{}, err
	}
	return s.patch(ctx, id, in)
}

func (s UserService) Update(ctx context.Context, id string, in UserPatch) (models.User, error) {
	if in.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &lowered
	}
	if err := check(&in); err != nil {
		return models.User{}, err
	}
	return s.patch(ctx, id, in)
}

func (s UserService) Delete(ctx context.Context, actor Principal, id string) error {
	if actor.UserID == id {
		return ErrValidation("You cannot delete your own account")
	}
	return notFoundAs(s.Store.Delete(ctx, models.CollUsers, id), "User not found")
}

func (s UserService) UpdatePassword(ctx context.Context, id string, in PasswordChange) (Session, error) {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return Session{}, ErrValidation("Please provide current and new password")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !VerifyPassword(in.CurrentPassword, user.PasswordHash) {
		return Session{}, ErrUnauthorized("Password is incorrect")
	}
	if err := checkPasswordPolicy(in.NewPassword); err != nil {
		return Session{}, err
	}
	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return Session{}, err
	}
	doc, err := s.Store.Patch(ctx, models.CollUsers, id, store.Document{"passwordHash": hash})
	if err != nil {
		return Session{}, notFoundAs(err, "User not found")
	}
	user, err = decodeAs[models.User](doc)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

func (s UserService) create(ctx context.Context, in RegisterInput) (models.User, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	doc, err := s.Store.Insert(ctx, models.CollUsers, store.Document{
		"name":         in.Name,
		"email":        in.Email,
		"passwordHash": hash,
		"role":         in.Role,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return models.User{}, ErrConflict("User already exists")
	}
	if err != nil {
		return models.User{}, err
	}
	return decodeAs[models.User](doc)
}

func (s UserService) patch(ctx context.Context, id string, in any) (models.User, error) {
	set, err := store.FromValue(in)
	if err != nil {
		return models.User{}, err
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}
	doc, err := s.Store.Patch(ctx, models.CollUsers, id, set)
	if errors.Is(err, store.ErrDuplicate) {
		return models.User{}, ErrConflict("Email already in use")
	}
	if err != nil {
		return models.User{}, notFoundAs(err, "User not found")
	}
	return decodeAs[models.User](doc)
}

func (s UserService) findByEmail(ctx context.Context, email string) (models.User, error) {
	docs, err := s.Store.Find(ctx, models.CollUsers, store.Query{
		Filter: store.Filter{Equals: map[string]any{"email": email}},
		Limit:  1,
	})
	if err != nil {
		return models.User{}, err
	}
	if len(docs) == 0 {
		return models.User{}, store.ErrNotFound
	}
	return decodeAs[models.User](docs[0])
}

func (s UserService) session(user models.User) (Session, error) {
	token, exp, err := s.Tokens.CreateAccessToken(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: user.Public()}, nil
}
