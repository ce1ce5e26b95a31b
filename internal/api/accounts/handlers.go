// Package accounts implements signup, login, and logout for the dashboard.
// Credentials never leave this package unhashed; login failures are
// indistinguishable between unknown email and wrong password.
package accounts

import (
	"database/sql"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/auth"
	"github.com/lagden-dev/ldev-api/internal/config"
	"github.com/lagden-dev/ldev-api/internal/db/models"
	"github.com/lagden-dev/ldev-api/internal/db/repositories"
	"github.com/lagden-dev/ldev-api/internal/middleware"
	"github.com/lagden-dev/ldev-api/internal/recaptcha"
)

// MinNameLength is the minimum accepted display name length after trimming
const MinNameLength = 2

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Handlers handles account lifecycle endpoints
type Handlers struct {
	cfg         *config.Config
	accountRepo *repositories.AccountRepository
	sessionRepo *repositories.SessionRepository
	verifier    recaptcha.Verifier
}

// NewHandlers creates a new accounts Handlers instance
func NewHandlers(cfg *config.Config, db *sql.DB, verifier recaptcha.Verifier) *Handlers {
	return &Handlers{
		cfg:         cfg,
		accountRepo: repositories.NewAccountRepository(db),
		sessionRepo: repositories.NewSessionRepository(db),
		verifier:    verifier,
	}
}

// SignupRequest represents the request to create a new account
type SignupRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	Org             *string `json:"org"`
	RecaptchaToken  string  `json:"recaptcha_token"`
}

// @Summary      Sign up
// @Description  Create a new account. The reCAPTCHA token is verified before any database work.
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        body  body  SignupRequest  true  "Signup request"
// @Success      201  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Validation failure or failed bot check"
// @Failure      409  {object}  respond.Envelope  "Email already in use"
// @Router       /api/accounts/signup [post]
// SignupHandler creates a new account and logs it in
// POST /api/accounts/signup
func (h *Handlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		if len(req.Name) < MinNameLength {
			respond.Error(c, http.StatusBadRequest, "Name must be at least 2 characters")
			return
		}
		if !emailPattern.MatchString(req.Email) {
			respond.Error(c, http.StatusBadRequest, "Invalid email address")
			return
		}
		if err := auth.ValidatePasswordStrength(req.Password); err != nil {
			respond.Error(c, http.StatusBadRequest, capitalize(err.Error()))
			return
		}
		if req.Password != req.ConfirmPassword {
			respond.Error(c, http.StatusBadRequest, "Passwords do not match")
			return
		}

		// Bot check runs before any database work
		human, err := h.verifier.Verify(c.Request.Context(), req.RecaptchaToken, c.ClientIP())
		if err != nil {
			slog.Error("recaptcha verification failed", "error", err)
			respond.Error(c, http.StatusBadGateway, "Could not verify bot check")
			return
		}
		if !human {
			respond.Error(c, http.StatusBadRequest, "Bot verification failed")
			return
		}

		passwordHash, err := auth.HashPassword(req.Password)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			respond.Error(c, http.StatusInternalServerError, "Failed to create account")
			return
		}

		account := &models.Account{
			Email:        req.Email,
			PasswordHash: passwordHash,
			Name:         req.Name,
			Org:          req.Org,
		}

		err = h.accountRepo.CreateAccount(c.Request.Context(), account)
		if err == repositories.ErrDuplicateEmail {
			respond.Error(c, http.StatusConflict, "Email already in use")
			return
		}
		if err != nil {
			slog.Error("failed to create account", "error", err)
			respond.Error(c, http.StatusInternalServerError, "Failed to create account")
			return
		}

		session, err := h.startSession(c, account.ID, true)
		if err != nil {
			slog.Error("failed to create session after signup", "error", err, "account_id", account.ID)
			// Account exists; the client can log in normally.
			respond.OK(c, http.StatusCreated, "Account created", gin.H{
				"account": accountView(account),
			})
			return
		}

		respond.OK(c, http.StatusCreated, "Account created", gin.H{
			"account": accountView(account),
			"session": gin.H{"expires_at": session.ExpiresAt},
		})
	}
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Remember       bool   `json:"remember"`
	RecaptchaToken string `json:"recaptcha_token"`
}

// @Summary      Log in
// @Description  Authenticate with email and password. Sets the session cookie on success.
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Login request"
// @Success      200  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Failed bot check"
// @Failure      401  {object}  respond.Envelope  "Invalid credentials"
// @Router       /api/accounts/login [post]
// LoginHandler authenticates an account and starts a session
// POST /api/accounts/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		// Same bot check as signup, before any credential lookup
		human, err := h.verifier.Verify(c.Request.Context(), req.RecaptchaToken, c.ClientIP())
		if err != nil {
			slog.Error("recaptcha verification failed", "error", err)
			respond.Error(c, http.StatusBadGateway, "Could not verify bot check")
			return
		}
		if !human {
			respond.Error(c, http.StatusBadRequest, "Bot verification failed")
			return
		}

		account, err := h.accountRepo.GetAccountByEmail(c.Request.Context(), req.Email)
		if err != nil {
			slog.Error("failed to look up account", "error", err)
			respond.Error(c, http.StatusInternalServerError, "Login failed")
			return
		}

		// Unknown email and wrong password produce the identical response,
		// so the endpoint cannot be used to probe for registered addresses.
		if account == nil || !auth.CheckPassword(req.Password, account.PasswordHash) {
			respond.Error(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		session, err := h.startSession(c, account.ID, req.Remember)
		if err != nil {
			slog.Error("failed to create session", "error", err, "account_id", account.ID)
			respond.Error(c, http.StatusInternalServerError, "Login failed")
			return
		}

		respond.OK(c, http.StatusOK, "Logged in", gin.H{
			"account": accountView(account),
			"session": gin.H{"expires_at": session.ExpiresAt},
		})
	}
}

// @Summary      Log out
// @Description  Delete the current session and clear the session cookie.
// @Tags         Accounts
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Failure      403  {object}  respond.Envelope  "Not session-authenticated"
// @Router       /api/accounts/logout [post]
// LogoutHandler ends the current browser session
// POST /api/accounts/logout
func (h *Handlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionVal, ok := c.Get(middleware.SessionKey)
		if !ok {
			respond.Error(c, http.StatusForbidden, "This endpoint requires a browser session")
			return
		}
		session := sessionVal.(*models.Session)
		accountID := c.GetString(middleware.AccountIDKey)

		if _, err := h.sessionRepo.DeleteSession(c.Request.Context(), session.ID, accountID); err != nil {
			slog.Error("failed to delete session", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Logout failed")
			return
		}

		h.clearSessionCookie(c)
		respond.OK(c, http.StatusOK, "Logged out", nil)
	}
}

// @Summary      Current account
// @Description  Return the authenticated account's profile.
// @Tags         Accounts
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       /api/accounts/me [get]
// MeHandler returns the authenticated account
// GET /api/accounts/me
func (h *Handlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountVal, ok := c.Get(middleware.AccountKey)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "No authentication provided")
			return
		}
		account := accountVal.(*models.Account)

		respond.OK(c, http.StatusOK, "Account retrieved", gin.H{
			"account": accountView(account),
		})
	}
}

// startSession creates a session row and sets the cookie. remember selects
// the long TTL; otherwise the session lasts cfg short TTL.
func (h *Handlers) startSession(c *gin.Context, accountID string, remember bool) (*models.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	ttl := h.cfg.Auth.Sessions.ShortTTL
	if remember {
		ttl = h.cfg.Auth.Sessions.TTL
	}

	session := &models.Session{
		ID:        token,
		AccountID: accountID,
		IP:        c.ClientIP(),
	}
	session.ExpiresAt = time.Now().Add(ttl)

	if err := h.sessionRepo.CreateSession(c.Request.Context(), session); err != nil {
		return nil, err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cfg.Auth.Sessions.CookieName,
		token,
		int(ttl.Seconds()),
		"/",
		h.cfg.Auth.Sessions.CookieDomain,
		h.cfg.Auth.Sessions.Secure,
		true, // HttpOnly
	)

	return session, nil
}

func (h *Handlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cfg.Auth.Sessions.CookieName,
		"",
		-1,
		"/",
		h.cfg.Auth.Sessions.CookieDomain,
		h.cfg.Auth.Sessions.Secure,
		true,
	)
}

// accountView is the serializable profile shape. The password hash never
// appears in any response.
func accountView(a *models.Account) gin.H {
	return gin.H{
		"id":             a.ID,
		"email":          a.Email,
		"email_verified": a.EmailVerified,
		"name":           a.Name,
		"org":            a.Org,
		"created_at":     a.CreatedAt,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
