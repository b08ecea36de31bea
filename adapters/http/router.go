package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/internal/guard"
	"github.com/khoahotran/folio/pkg/logger"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Profile     *ProfileHandler
	Experiences *CollectionHandler[experience.WorkExperience]
	Projects    *CollectionHandler[project.Project]
	ImageItems  *CollectionHandler[image.Image]
	Images      *ImageHandler
	Public      *PublicHandler
	Pages       *PageHandler

	Sessions       *authUC.SessionManager
	Guard          guard.Policy
	CookieName     string
	OAuthEnabled   bool
	MaxUploadBytes int64
	Logger         logger.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), ErrorMiddleware(d.Logger))
	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = d.MaxUploadBytes + 1<<20
	router.SetHTMLTemplate(loadTemplates())

	router.NoMethod(func(c *gin.Context) {
		c.Header("Allow", strings.Join(allowedMethods(router.Routes(), c.Request.URL.Path), ", "))
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method " + c.Request.Method + " Not Allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	authMiddleware := AuthMiddleware(d.Sessions, d.CookieName, d.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		authGroup := api.Group("/auth")
		authGroup.POST("/signup", d.Auth.Signup)
		authGroup.POST("/login", d.Auth.Login)
		authGroup.POST("/logout", d.Auth.Logout)
		authGroup.GET("/session", d.Auth.Session)

		public := api.Group("/public")
		public.GET("/:username", d.Public.GetPublicProfile)
		public.GET("/:username/feed", d.Public.GetFeed)

		private := api.Group("")
		private.Use(authMiddleware)
		{
			private.GET("/profile", d.Profile.GetProfile)
			private.POST("/profile", d.Profile.SaveProfile)
			private.PUT("/profile", d.Profile.SaveProfile)
			private.DELETE("/profile", d.Profile.DeleteProfile)

			experiences := private.Group("/work-experiences")
			experiences.GET("", d.Experiences.List)
			experiences.POST("", d.Experiences.Create)
			experiences.PUT("", d.Experiences.Update)
			experiences.DELETE("", d.Experiences.Delete)
			experiences.PUT("/order", d.Experiences.Reorder)

			projects := private.Group("/projects")
			projects.GET("", d.Projects.List)
			projects.POST("", d.Projects.Create)
			projects.PUT("", d.Projects.Update)
			projects.DELETE("", d.Projects.Delete)
			projects.PUT("/order", d.Projects.Reorder)

			images := private.Group("/images")
			images.GET("", d.ImageItems.List)
			images.POST("", d.Images.UploadImage)
			images.PUT("", d.ImageItems.Update)
			images.DELETE("", d.Images.DeleteImage)
			images.PUT("/order", d.ImageItems.Reorder)
		}
	}

	pages := router.Group("")
	pages.Use(oauthFlag(d.OAuthEnabled), GuardMiddleware(d.Guard, d.Sessions, d.CookieName, d.Logger))
	{
		pages.GET("/", d.Pages.Static("home"))
		pages.GET("/projects", d.Pages.Static("projects"))
		pages.GET("/thank-you", d.Pages.Static("thank_you"))
		pages.GET("/login", d.Pages.Static("login"))
		pages.POST("/login", d.Auth.LoginForm)
		pages.GET("/signup", d.Pages.Static("signup"))
		pages.POST("/signup", d.Auth.SignupForm)
		pages.POST("/logout", d.Auth.LogoutForm)
		pages.GET("/dashboard", d.Pages.Dashboard)
		pages.GET("/dashboard/*section", d.Pages.Dashboard)
		pages.GET("/auth/github", d.Auth.OAuthBegin)
		pages.GET("/auth/github/callback", d.Auth.OAuthCallback)
		pages.GET("/:username", d.Pages.PublicProfile)
	}

	return router
}

// allowedMethods lists the methods registered for any route pattern that
// matches path.
func allowedMethods(routes gin.RoutesInfo, path string) []string {
	seen := map[string]bool{}
	for _, r := range routes {
		if matchRoute(r.Path, path) {
			seen[r.Method] = true
		}
	}
	methods := make([]string, 0, len(seen))
	for m := range seen {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func matchRoute(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range ps {
		if strings.HasPrefix(p, "*") {
			return true
		}
		if i >= len(xs) {
			return false
		}
		if strings.HasPrefix(p, ":") {
			continue
		}
		if p != xs[i] {
			return false
		}
	}
	return len(ps) == len(xs)
}
