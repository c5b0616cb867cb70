// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package catalog serves the built-in demo video library. There is no
// upload pipeline; the catalog is a fixed set of openly licensed films
// plus a short-form feed cut from the same sources.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/watchpoints/watchpoints/internal/models"
)

// ErrVideoNotFound is returned for unknown video IDs.
var ErrVideoNotFound = errors.New("video not found")

// Catalog is an immutable in-memory video library.
type Catalog struct {
	videos []models.Video
	byID   map[string]*models.Video
}

// New builds the catalog from the built-in library.
func New() *Catalog {
	videos := builtinLibrary()
	byID := make(map[string]*models.Video, len(videos))
	for i := range videos {
		byID[videos[i].ID] = &videos[i]
	}
	return &Catalog{videos: videos, byID: byID}
}

// List returns catalog entries, optionally filtered by category. Shorts
// are excluded; they have their own feed.
func (c *Catalog) List(ctx context.Context, category string) []models.Video {
	out := make([]models.Video, 0, len(c.videos))
	for _, v := range c.videos {
		if v.Short {
			continue
		}
		if category != "" && !strings.EqualFold(v.Category, category) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Shorts returns the short-form feed.
func (c *Catalog) Shorts(ctx context.Context) []models.Video {
	out := make([]models.Video, 0, 8)
	for _, v := range c.videos {
		if v.Short {
			out = append(out, v)
		}
	}
	return out
}

// Get returns one video by ID.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Video, error) {
	v, ok := c.byID[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	clone := *v
	return &clone, nil
}

// builtinLibrary is the demo content set: the Blender open movies and the
// Google sample bucket clips, with stable IDs so watch history survives
// restarts.
func builtinLibrary() []models.Video {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return []models.Video{
		{
			ID:          "video-1",
			Title:       "Big Buck Bunny",
			Description: "Big Buck Bunny tells the story of a giant rabbit with a heart bigger than himself.",
			Thumbnail:   "https://peach.blender.org/wp-content/uploads/title_anouncement.jpg?x11217",
			VideoURL:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
			Channel:     "Blender Foundation",
			Category:    "Animation",
			Duration:    634,
			Views:       1500000,
			Likes:       75000,
			UploadedAt:  base.AddDate(0, 0, -7),
		},
		{
			ID:          "video-2",
			Title:       "Elephant Dream",
			Description: "The first Blender Open Movie from 2006",
			Thumbnail:   "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/ElephantsDream.jpg",
			VideoURL:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
			Channel:     "Orange Open Movie Project",
			Category:    "Animation",
			Duration:    660,
			Views:       2500000,
			Likes:       125000,
			UploadedAt:  base.AddDate(0, 0, -14),
		},
		{
			ID:          "video-3",
			Title:       "Sintel",
			Description: "Third Blender Open Movie from 2010",
			Thumbnail:   "https://durian.blender.org/wp-content/uploads/2010/05/sintel_trailer.jpg",
			VideoURL:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/Sintel.mp4",
			Channel:     "Blender Foundation",
			Category:    "Animation",
			Duration:    888,
			Views:       3500000,
			Likes:       175000,
			UploadedAt:  base.AddDate(0, 0, -21),
		},
		{
			ID:          "video-4",
			Title:       "Tears of Steel",
			Description: "Tears of Steel was realized with crowd-funding by users of the open source 3D creation tool Blender.",
			Thumbnail:   "https://mango.blender.org/wp-content/uploads/2013/05/01_thom_celia_bridge.jpg",
			VideoURL:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/TearsOfSteel.mp4",
			Channel:     "Blender Foundation",
			Category:    "Animation",
			Duration:    734,
			Views:       4500000,
			Likes:       225000,
			UploadedAt:  base.AddDate(0, 0, -28),
		},
		{
			ID:          "video-5",
			Title:       "Subaru WRX STI",
			Description: "The Smoking Tire takes the all-new Subaru Outback to the highest point we can find.",
			Thumbnail:   "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/SubaruOutbackOnStreetAndDirt.jpg",
			VideoURL:    "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/SubaruOutbackOnStreetAndDirt.mp4",
			Channel:     "Garage419",
			Category:    "Automotive",
			Duration:    15,
			Views:       5500000,
			Likes:       275000,
			UploadedAt:  base.AddDate(0, 0, -35),
		},
		{
			ID:         "short-1",
			Title:      "For Bigger Blazes",
			Thumbnail:  "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/ForBiggerBlazes.jpg",
			VideoURL:   "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
			Channel:    "Google",
			Category:   "Tech",
			Duration:   15,
			Views:      820000,
			Likes:      41000,
			UploadedAt: base.AddDate(0, 0, -3),
			Short:      true,
		},
		{
			ID:         "short-2",
			Title:      "For Bigger Escapes",
			Thumbnail:  "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/ForBiggerEscapes.jpg",
			VideoURL:   "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerEscapes.mp4",
			Channel:    "Google",
			Category:   "Tech",
			Duration:   15,
			Views:      640000,
			Likes:      32000,
			UploadedAt: base.AddDate(0, 0, -5),
			Short:      true,
		},
		{
			ID:         "short-3",
			Title:      "For Bigger Fun",
			Thumbnail:  "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/ForBiggerFun.jpg",
			VideoURL:   "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerFun.mp4",
			Channel:    "Google",
			Category:   "Tech",
			Duration:   60,
			Views:      910000,
			Likes:      45500,
			UploadedAt: base.AddDate(0, 0, -9),
			Short:      true,
		},
	}
}
