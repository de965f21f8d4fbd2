package service

import (
	"context"
	"errors"
	"fmt"
	"geo-jigsaw/internal/catalog"
	"geo-jigsaw/internal/constants"

	"golang.org/x/sync/errgroup"
)

// loadBundle fetches a country from the remote data source, falling back to
// the bundled catalogue when the source is down or incomplete. The second
// return value is true when the fallback was taken.
func (s *PuzzleService) loadBundle(ctx context.Context, countryID string) (catalog.Bundle, bool, error) {
	if countryID == "" {
		b, err := s.catalog.Default()
		return b, false, err
	}
	if !s.client.Configured() {
		b, err := s.catalog.Bundle(countryID)
		return b, false, err
	}

	b, err := s.fetchBundle(ctx, countryID)
	if err == nil {
		return b, false, nil
	}

	s.logger.Warn().Err(err).Str("country_id", countryID).Msg("region data source failed, using bundled data")
	fallback, ferr := s.catalog.Bundle(countryID)
	if ferr != nil {
		return catalog.Bundle{}, false, fmt.Errorf("failed to load country %s: %w", countryID, errors.Join(err, ferr))
	}
	return fallback, true, nil
}

func (s *PuzzleService) fetchBundle(ctx context.Context, countryID string) (catalog.Bundle, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	var b catalog.Bundle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := s.client.GetCountry(gctx, countryID)
		if err != nil {
			return fmt.Errorf("failed to fetch country: %w", err)
		}
		b.Country = resp.Data
		return nil
	})
	g.Go(func() error {
		resp, err := s.client.GetRegions(gctx, countryID)
		if err != nil {
			return fmt.Errorf("failed to fetch regions: %w", err)
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("failed to fetch regions: empty dataset")
		}
		b.Regions = resp.Data
		return nil
	})
	g.Go(func() error {
		// The display dataset is optional; guidance falls back to targets.
		resp, err := s.client.GetDisplayRegions(gctx, countryID)
		if err != nil {
			s.logger.Warn().Err(err).Str("country_id", countryID).Msg("display regions unavailable")
			return nil
		}
		b.Display = resp.Data
		return nil
	})

	if err := g.Wait(); err != nil {
		return catalog.Bundle{}, err
	}
	if b.Country.ID == "" {
		b.Country.ID = countryID
	}
	return b, nil
}
