// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package models

import "strconv"

// Surface is a distinct ranked list shown to the shopper.
type Surface string

const (
	SurfaceTrending  Surface = "trending"
	SurfaceSuggested Surface = "suggested"
	SurfaceSimilar   Surface = "similar"
	SurfaceRecent    Surface = "recent"
	SurfaceCategory  Surface = "category"
)

// Surfaces lists every surface the engine serves.
var Surfaces = []Surface{SurfaceTrending, SurfaceSuggested, SurfaceSimilar, SurfaceRecent, SurfaceCategory}

// Valid reports whether s is a known surface.
func (s Surface) Valid() bool {
	for _, known := range Surfaces {
		if s == known {
			return true
		}
	}
	return false
}

// SurfaceRequest is the input to a candidate selector.
//
// SubjectID is the product id for similar and the user id for suggested and
// recent. Category is required for category and optional for trending.
// Limit 0 means the surface default.
type SurfaceRequest struct {
	Surface   Surface `json:"surface" validate:"required,surface"`
	SubjectID string  `json:"subjectId,omitempty" validate:"omitempty,max=128"`
	Category  string  `json:"category,omitempty" validate:"omitempty,max=64"`
	Limit     int     `json:"limit"`
}

// CacheKey is a canonical string form of the request.
func (r SurfaceRequest) CacheKey() string {
	return string(r.Surface) + "|" + r.SubjectID + "|" + r.Category + "|" + strconv.Itoa(r.Limit)
}

// ResultItem is one ranked product in a surface response.
type ResultItem struct {
	Product
	Score    float64         `json:"score"` // 0..1
	Reason   string          `json:"reason"`
	Rank     int             `json:"rank"` // 1-based
	Trending *TrendingDetail `json:"trending,omitempty"`
}

// TrendingDetail is display metadata attached to trending items.
type TrendingDetail struct {
	ViewCount      int64   `json:"viewCount"`
	PurchaseCount  int64   `json:"purchaseCount"`
	ShareCount     int64   `json:"shareCount"`
	EngagementRate float64 `json:"engagementRate"` // percent of views that liked, shared or bought
}
