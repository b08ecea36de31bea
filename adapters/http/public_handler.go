package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	publicUC "github.com/khoahotran/folio/internal/application/usecase/public"
	"github.com/khoahotran/folio/pkg/logger"
)

type PublicHandler struct {
	profileUseCase *publicUC.GetPublicProfileUseCase
	feedUseCase    *publicUC.FeedUseCase
	logger         logger.Logger
}

func NewPublicHandler(profileUC *publicUC.GetPublicProfileUseCase, feedUC *publicUC.FeedUseCase, log logger.Logger) *PublicHandler {
	return &PublicHandler{
		profileUseCase: profileUC,
		feedUseCase:    feedUC,
		logger:         log,
	}
}

func (h *PublicHandler) GetPublicProfile(c *gin.Context) {
	output, err := h.profileUseCase.Execute(c.Request.Context(), publicUC.GetPublicProfileInput{
		Username: c.Param("username"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, output.Public)
}

func (h *PublicHandler) GetFeed(c *gin.Context) {
	feed, err := h.feedUseCase.Execute(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")

	if err := feed.WriteRss(c.Writer); err != nil {
		h.logger.Error("Failed to write RSS feed to response", err)
	}
}
