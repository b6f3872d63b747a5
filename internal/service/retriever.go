package service

import (
	"context"
	"fmt"

	"concierge/internal/model"
	"concierge/internal/observability"
	"concierge/internal/repository"

	"github.com/rs/zerolog"
)

// AmenityStore is the read capability the retriever needs
type AmenityStore interface {
	SearchAmenities(ctx context.Context, q repository.AmenityQuery) ([]model.Amenity, error)
}

// Retriever fetches candidate amenities for a set of filters
type Retriever struct {
	store       AmenityStore
	airportCode string
	minResults  int
	maxResults  int
	log         zerolog.Logger
}

// NewRetriever creates a retriever bound to one airport. minResults is the
// size below which a keyword search is broadened; maxResults caps every
// search.
func NewRetriever(store AmenityStore, airportCode string, minResults, maxResults int, log zerolog.Logger) *Retriever {
	return &Retriever{
		store:       store,
		airportCode: airportCode,
		minResults:  minResults,
		maxResults:  maxResults,
		log:         log,
	}
}

// Retrieve runs the primary search and, when keywords made it too narrow, a
// second search without them. Only the keywords are dropped: the fallback
// stays in the same terminal, and a transit-only search stays transit-only.
// A store failure on either search is fatal to the request.
func (r *Retriever) Retrieve(ctx context.Context, f *model.ExtractedFilters) ([]model.Amenity, error) {
	query := repository.AmenityQuery{
		AirportCode:  r.airportCode,
		TerminalCode: f.Terminal,
		TransitOnly:  f.IsTransit,
		Keywords:     f.Keywords,
		Limit:        r.maxResults,
	}

	amenities, err := r.store.SearchAmenities(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(amenities) >= r.minResults || len(f.Keywords) == 0 {
		observability.RetrievalCandidates.Observe(float64(len(amenities)))
		return amenities, nil
	}

	observability.FromContext(ctx, r.log).Debug().
		Int("primary_results", len(amenities)).
		Strs("keywords", f.Keywords).
		Msg("keyword search too narrow, retrying without keywords")
	observability.RetrievalFallbacks.Inc()

	query.Keywords = nil
	amenities, err = r.store.SearchAmenities(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback search: %v", ErrStoreUnavailable, err)
	}
	observability.RetrievalCandidates.Observe(float64(len(amenities)))
	return amenities, nil
}
