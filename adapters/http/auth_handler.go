package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	"github.com/khoahotran/folio/internal/domain/session"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const oauthStateCookie = "folio_oauth_state"

type CookieSettings struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	loginUseCase  *authUC.LoginUseCase
	signupUseCase *authUC.SignupUseCase
	oauthUseCase  *authUC.OAuthUseCase
	sessions      *authUC.SessionManager
	cookie        CookieSettings
	dashboardPath string
	logger        logger.Logger
}

// NewAuthHandler wires sign-in. oauthUC may be nil when no provider is
// configured.
func NewAuthHandler(
	loginUC *authUC.LoginUseCase,
	signupUC *authUC.SignupUseCase,
	oauthUC *authUC.OAuthUseCase,
	sessions *authUC.SessionManager,
	cookie CookieSettings,
	dashboardPath string,
	log logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		loginUseCase:  loginUC,
		signupUseCase: signupUC,
		oauthUseCase:  oauthUC,
		sessions:      sessions,
		cookie:        cookie,
		dashboardPath: dashboardPath,
		logger:        log,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, s *session.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, s.Token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("Email and password are required", err))
		return
	}

	output, err := h.signupUseCase.Execute(c.Request.Context(), authUC.SignupInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.setSessionCookie(c, output.Session)
	c.JSON(http.StatusCreated, gin.H{
		"user":    output.User,
		"session": output.Session,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("Email and password are required", err))
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), authUC.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.setSessionCookie(c, output.Session)
	c.JSON(http.StatusOK, gin.H{
		"access_token": output.Session.Token,
		"expires_at":   output.Session.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context(), tokenFromRequest(c, h.cookie.Name)); err != nil {
		c.Error(err)
		return
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Session reports the current session. Always 200; session is null when
// signed out.
func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := h.sessions.Current(c.Request.Context(), tokenFromRequest(c, h.cookie.Name))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// LoginForm handles the login page post and redirects like the page would.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	output, err := h.loginUseCase.Execute(c.Request.Context(), authUC.LoginInput{
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	})
	if err != nil {
		renderPage(c, apperror.ToHTTPStatus(err), "login", gin.H{
			"Error":    apperror.UserMessage(err),
			"Email":    c.PostForm("email"),
			"Redirect": c.PostForm("redirect"),
		})
		return
	}
	h.setSessionCookie(c, output.Session)
	c.Redirect(http.StatusSeeOther, h.safeRedirect(c.PostForm("redirect")))
}

func (h *AuthHandler) SignupForm(c *gin.Context) {
	output, err := h.signupUseCase.Execute(c.Request.Context(), authUC.SignupInput{
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	})
	if err != nil {
		renderPage(c, apperror.ToHTTPStatus(err), "signup", gin.H{
			"Error": apperror.UserMessage(err),
			"Email": c.PostForm("email"),
		})
		return
	}
	h.setSessionCookie(c, output.Session)
	c.Redirect(http.StatusSeeOther, h.dashboardPath)
}

func (h *AuthHandler) LogoutForm(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context(), tokenFromRequest(c, h.cookie.Name)); err != nil {
		h.logger.Warn("Sign out failed", zap.Error(err))
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

// safeRedirect only follows local paths. Browsers read a backslash as a
// slash, so `/\host` is rejected like "//host".
func (h *AuthHandler) safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") ||
		strings.ContainsAny(target, "\\\r\n") {
		return h.dashboardPath
	}
	if u, err := url.Parse(target); err != nil || u.Host != "" {
		return h.dashboardPath
	}
	return target
}

func (h *AuthHandler) OAuthBegin(c *gin.Context) {
	if h.oauthUseCase == nil {
		c.Error(apperror.NewNotFound("oauth provider", "github"))
		return
	}
	redirectURL, state := h.oauthUseCase.Begin()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, redirectURL)
}

func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	if h.oauthUseCase == nil {
		c.Error(apperror.NewNotFound("oauth provider", "github"))
		return
	}
	expected, _ := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.cookie.Secure, true)

	sess, err := h.oauthUseCase.Callback(c.Request.Context(), authUC.OAuthCallbackInput{
		Code:          c.Query("code"),
		State:         c.Query("state"),
		ExpectedState: expected,
	})
	if err != nil {
		h.logger.Warn("OAuth callback failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/login?error=oauth")
		return
	}
	h.setSessionCookie(c, sess)
	c.Redirect(http.StatusFound, h.dashboardPath)
}
