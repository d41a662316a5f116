package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"library_borrowing_service/db"
	"library_borrowing_service/models"
	"library_borrowing_service/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

type Users struct {
	repo    *db.Repo
	tokens  *session.Tokens
	revoked *session.RevocationStore
}

func NewUsers(repo *db.Repo, tokens *session.Tokens, revoked *session.RevocationStore) *Users {
	return &Users{repo: repo, tokens: tokens, revoked: revoked}
}

func (s *Users) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, false)
}

// CreateStaff is used by the CLI and the bootstrap account.
func (s *Users) CreateStaff(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *Users) create(ctx context.Context, in RegisterInput, staff bool) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, &ValidationError{Field: "email", Message: "Enter a valid email address."}
	}
	if len(in.Password) < minPasswordLen {
		return nil, &ValidationError{Field: "password", Message: "Password must be at least 8 characters."}
	}
	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, &ValidationError{Field: "email", Message: "User with this email already exists."}
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsStaff:      staff,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Users) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.repo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	tok, claims, err := s.tokens.Issue(u.ID, u.Email, u.IsStaff)
	if err != nil {
		return nil, err
	}
	if err := s.repo.TouchUserLogin(ctx, u.ID); err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, ExpiresAt: claims.ExpiresAt.Unix(), User: u}, nil
}

// Logout revokes the token the claims came from.
func (s *Users) Logout(ctx context.Context, c *session.Claims) error {
	return s.revoked.Revoke(ctx, c)
}

func (s *Users) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Users) List(ctx context.Context, q string, page, size int) (db.ListUsersResult, error) {
	return s.repo.ListUsers(ctx, q, page, size)
}

func (s *Users) SetStaff(ctx context.Context, userID string, isStaff bool) (*models.User, error) {
	if err := s.repo.SetUserStaff(ctx, userID, isStaff); err != nil {
		return nil, translate(err)
	}
	return s.Me(ctx, userID)
}
