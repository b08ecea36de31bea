package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	collectionUC "github.com/khoahotran/folio/internal/application/usecase/collection"
	profileUC "github.com/khoahotran/folio/internal/application/usecase/profile"
	publicUC "github.com/khoahotran/folio/internal/application/usecase/public"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

var pageTitles = map[string]string{
	"home":      "",
	"projects":  "Projects",
	"thank_you": "Thank you",
	"login":     "Sign in",
	"signup":    "Sign up",
	"dashboard": "Dashboard",
	"not_found": "Not found",
	"error":     "Error",
}

// renderPage fills the layout keys every page expects, then renders name.
func renderPage(c *gin.Context, status int, name string, data gin.H) {
	page := gin.H{
		"Title":    pageTitles[name],
		"SignedIn": false,
		"OAuth":    c.GetBool(ginContextKeyOAuth),
	}
	if _, ok := GetOwnerIDFromGinContext(c); ok {
		page["SignedIn"] = true
	}
	for k, v := range data {
		page[k] = v
	}
	c.HTML(status, name+".html", page)
}

const ginContextKeyOAuth = "oauthEnabled"

// oauthFlag tells templates whether to offer provider sign-in.
func oauthFlag(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ginContextKeyOAuth, enabled)
		c.Next()
	}
}

type PageHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	publicUseCase  *publicUC.GetPublicProfileUseCase
	experiences    *collectionUC.Service[experience.WorkExperience]
	projects       *collectionUC.Service[project.Project]
	images         *collectionUC.Service[image.Image]
	logger         logger.Logger
}

func NewPageHandler(
	profileUseCase *profileUC.ProfileUseCase,
	publicUseCase *publicUC.GetPublicProfileUseCase,
	experiences *collectionUC.Service[experience.WorkExperience],
	projects *collectionUC.Service[project.Project],
	images *collectionUC.Service[image.Image],
	log logger.Logger,
) *PageHandler {
	return &PageHandler{
		profileUseCase: profileUseCase,
		publicUseCase:  publicUseCase,
		experiences:    experiences,
		projects:       projects,
		images:         images,
		logger:         log,
	}
}

// Static renders a page with no data of its own.
func (h *PageHandler) Static(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{}
		if name == "login" {
			data["Redirect"] = c.Query("redirect")
			if c.Query("error") != "" {
				data["Error"] = "Sign in failed. Please try again."
			}
		}
		renderPage(c, http.StatusOK, name, data)
	}
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		// the guard runs first, so this only happens on misconfiguration
		c.Redirect(http.StatusFound, "/login")
		return
	}
	ctx := c.Request.Context()

	prof, err := h.profileUseCase.ExecuteGetProfile(ctx, profileUC.GetProfileInput{OwnerID: ownerID})
	if err != nil {
		h.renderError(c, err)
		return
	}
	list := collectionUC.ListInput{OwnerID: ownerID}
	experiences, err := h.experiences.List(ctx, list)
	if err != nil {
		h.renderError(c, err)
		return
	}
	projects, err := h.projects.List(ctx, list)
	if err != nil {
		h.renderError(c, err)
		return
	}
	images, err := h.images.List(ctx, list)
	if err != nil {
		h.renderError(c, err)
		return
	}

	renderPage(c, http.StatusOK, "dashboard", gin.H{
		"Profile":         prof.Profile,
		"WorkExperiences": experiences,
		"Projects":        projects,
		"Images":          images,
	})
}

func (h *PageHandler) PublicProfile(c *gin.Context) {
	output, err := h.publicUseCase.Execute(c.Request.Context(), publicUC.GetPublicProfileInput{
		Username: c.Param("username"),
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			renderPage(c, http.StatusNotFound, "not_found", nil)
			return
		}
		h.renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "profile", gin.H{
		"Title":  output.Public.Profile.Name,
		"Public": output.Public,
	})
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	status := apperror.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Page render failed", err, zap.String("path", c.Request.URL.Path))
	}
	renderPage(c, status, "error", gin.H{"Error": apperror.UserMessage(err)})
}
