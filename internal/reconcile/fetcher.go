package reconcile

import (
	"context"
	"fmt"
	"strings"

	"animesync/internal/catalog"
	"animesync/internal/shikimori"
)

// Fetcher retrieves and normalizes the detail for one identifier.
type Fetcher struct {
	client shikimori.DetailGetter
}

// NewFetcher constructs a Fetcher.
func NewFetcher(client shikimori.DetailGetter) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch returns the normalized detail. Any failure wraps ErrDetailUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, id string) (catalog.Detail, error) {
	anime, err := f.client.AnimeDetail(ctx, id)
	if err != nil {
		return catalog.Detail{}, fmt.Errorf("%w: %w", ErrDetailUnavailable, err)
	}
	if anime == nil {
		return catalog.Detail{}, fmt.Errorf("%w: empty response for %s", ErrDetailUnavailable, id)
	}
	return NormalizeDetail(anime), nil
}

// NormalizeDetail maps a service payload onto the catalog's detail shape.
// A zero score means the service has no rating and is treated as absent.
func NormalizeDetail(anime *shikimori.Anime) catalog.Detail {
	detail := catalog.Detail{
		Status: catalog.ParseStatus(anime.Status),
		URL:    strings.TrimSpace(anime.URL),
	}
	if anime.Score != nil && *anime.Score > 0 {
		score := *anime.Score
		detail.Score = &score
	}
	if anime.Episodes != nil {
		episodes := *anime.Episodes
		detail.Episodes = &episodes
	}

	detail.Genres = make([]catalog.Genre, 0, len(anime.Genres))
	for _, genre := range anime.Genres {
		name := strings.TrimSpace(genre.Name)
		localized := strings.TrimSpace(genre.Russian)
		if name == "" && localized == "" {
			continue
		}
		detail.Genres = append(detail.Genres, catalog.Genre{Name: name, LocalizedName: localized})
	}

	detail.Studios = make([]string, 0, len(anime.Studios))
	for _, studio := range anime.Studios {
		if name := strings.TrimSpace(studio.Name); name != "" {
			detail.Studios = append(detail.Studios, name)
		}
	}

	detail.Links = make([]catalog.Link, 0, len(anime.ExternalLinks))
	for _, link := range anime.ExternalLinks {
		url := strings.TrimSpace(link.URL)
		if url == "" {
			continue
		}
		detail.Links = append(detail.Links, catalog.Link{Kind: strings.TrimSpace(link.Kind), URL: url})
	}
	return detail
}
