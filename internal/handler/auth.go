package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetix/cinema-booking/internal/model"
	"github.com/cinetix/cinema-booking/internal/repository"
	"github.com/cinetix/cinema-booking/internal/utils"
)

// AuthHandler serves registration, login and the authenticated profile
// endpoint.  Tokens are stateless HS256 JWTs; nothing is persisted per
// login, so logout is simply discarding the token client-side.
type AuthHandler struct {
	UserRepo     *repository.UserRepo
	JWTSecret    string
	AccessTTLMin int
	BcryptCost   int
}

// NewAuthHandler builds an AuthHandler from its dependencies.
func NewAuthHandler(userRepo *repository.UserRepo, jwtSecret string, accessTTLMin, bcryptCost int) *AuthHandler {
	if userRepo == nil {
		panic("nil UserRepo passed to NewAuthHandler")
	}
	return &AuthHandler{
		UserRepo:     userRepo,
		JWTSecret:    jwtSecret,
		AccessTTLMin: accessTTLMin,
		BcryptCost:   bcryptCost,
	}
}

// Register handles POST /v1/auth/register.  It validates the email and
// password, hashes the password with bcrypt and creates a CUSTOMER
// account.  Duplicate emails return 409.
func (h *AuthHandler) Register(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email is required"})
	}
	if len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	ctx := c.Request().Context()
	if _, err := h.UserRepo.GetByEmail(ctx, email); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check email"})
	}
	hash, err := utils.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hash password"})
	}
	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
	}
	if err := h.UserRepo.Create(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create user"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role,
	})
}

// Login handles POST /v1/auth/login.  On valid credentials it returns a
// signed access token together with its expiry.  Unknown emails and bad
// passwords are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	ctx := c.Request().Context()
	u, err := h.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}
	if !utils.VerifyPassword(u.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, u.ID, u.Role, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
	})
}

// Me handles GET /v1/auth/me and returns the profile of the
// authenticated user taken from the JWT subject claim.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.UserRepo.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":         u.ID,
		"email":      u.Email,
		"role":       u.Role,
		"created_at": u.CreatedAt.UTC(),
	})
}
