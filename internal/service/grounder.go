package service

import (
	"concierge/internal/model"
	"concierge/internal/observability"
)

// Ground replaces the model's slugs with the matching candidate records,
// in the model's order. Slugs that were not among the candidates are
// dropped, so every returned amenity was retrieved for this request.
// retrieved is the retrieval size reported as totalResults.
func Ground(out *model.GenerationOutput, candidates []model.Amenity, filters *model.ExtractedFilters, retrieved int) *model.ChatResponse {
	bySlug := make(map[string]model.Amenity, len(candidates))
	for _, a := range candidates {
		if _, seen := bySlug[a.Slug]; !seen {
			bySlug[a.Slug] = a
		}
	}

	amenities := make([]model.Amenity, 0, len(out.RecommendedSlugs))
	for _, slug := range out.RecommendedSlugs {
		a, ok := bySlug[slug]
		if !ok {
			observability.GroundingDropped.Inc()
			continue
		}
		amenities = append(amenities, a)
	}

	return &model.ChatResponse{
		Message:   out.Message,
		Amenities: amenities,
		FollowUp:  out.FollowUp,
		Context: model.ResponseContext{
			Terminal:     filters.Terminal,
			IsTransit:    filters.IsTransit,
			TotalResults: retrieved,
		},
	}
}
