package public

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/pkg/logger"
)

// FeedUseCase renders a public profile's projects and work history as a feed.
type FeedUseCase struct {
	profiles *GetPublicProfileUseCase
	baseURL  string
	logger   logger.Logger
}

func NewFeedUseCase(profiles *GetPublicProfileUseCase, baseURL string, log logger.Logger) *FeedUseCase {
	return &FeedUseCase{
		profiles: profiles,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   log,
	}
}

func (uc *FeedUseCase) Execute(ctx context.Context, username string) (*feeds.Feed, error) {
	out, err := uc.profiles.Execute(ctx, GetPublicProfileInput{Username: username})
	if err != nil {
		return nil, err
	}
	pub := out.Public
	pageURL := fmt.Sprintf("%s/%s", uc.baseURL, pub.Profile.Username)

	feed := &feeds.Feed{
		Title:   pub.Profile.Name,
		Link:    &feeds.Link{Href: pageURL},
		Author:  &feeds.Author{Name: pub.Profile.Name},
		Created: pub.Profile.UpdatedAt,
	}
	if pub.Profile.CustomTitle != nil {
		feed.Description = *pub.Profile.CustomTitle
	}

	for _, p := range pub.Projects {
		item := &feeds.Item{
			Id:      p.ID.String(),
			Title:   p.Name,
			Link:    &feeds.Link{Href: pageURL + "#projects"},
			Created: p.CreatedAt,
			Updated: p.UpdatedAt,
		}
		if p.URL != nil && *p.URL != "" {
			item.Link = &feeds.Link{Href: *p.URL}
		}
		if p.Description != nil {
			item.Description = *p.Description
		}
		feed.Items = append(feed.Items, item)
	}

	for _, w := range pub.WorkExperiences {
		period := w.StartDate.String() + " - present"
		if !w.Current() {
			period = w.StartDate.String() + " - " + w.EndDate.String()
		}
		item := &feeds.Item{
			Id:          w.ID.String(),
			Title:       fmt.Sprintf("%s at %s", w.Title, w.Company),
			Link:        &feeds.Link{Href: pageURL + "#experience"},
			Description: period,
			Created:     w.StartDate.Time,
			Updated:     w.UpdatedAt,
		}
		if w.Description != nil {
			item.Content = *w.Description
		}
		feed.Items = append(feed.Items, item)
	}

	uc.logger.Info("Public feed generated", zap.String("username", pub.Profile.Username), zap.Int("item_count", len(feed.Items)))
	return feed, nil
}
