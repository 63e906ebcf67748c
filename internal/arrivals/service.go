package arrivals

import (
	"context"
	"errors"

	"mystops/internal/trimet"
)

// Fetcher returns the raw arrivals payload for a set of stops.
type Fetcher interface {
	Arrivals(ctx context.Context, stopIDs []int) ([]byte, error)
}

type Metrics interface {
	BoardComputed(included, dropped int)
	BoardFailed(kind string)
}

// Service fetches arrivals and normalizes them into a board.
type Service struct {
	fetcher    Fetcher
	normalizer *Normalizer
	metrics    Metrics
}

func NewService(f Fetcher, n *Normalizer, m Metrics) *Service {
	return &Service{fetcher: f, normalizer: n, metrics: m}
}

// Board builds the arrival board for stopIDs. Upstream failures abort the
// whole board; there is never a partial result.
func (s *Service) Board(ctx context.Context, stopIDs, routeIDs []int) (*Board, error) {
	body, err := s.fetcher.Arrivals(ctx, stopIDs)
	if err != nil {
		s.failed(err)
		return nil, err
	}
	board, err := s.normalizer.Normalize(body, routeIDs)
	if err != nil {
		s.failed(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BoardComputed(board.Count, board.dropped)
	}
	return board, nil
}

func (s *Service) failed(err error) {
	if s.metrics != nil {
		s.metrics.BoardFailed(ErrorKind(err))
	}
}

// ErrorKind names the class of a board error for logs and metrics.
func ErrorKind(err error) string {
	var (
		upstream *trimet.UpstreamError
		notFound *trimet.StopNotFoundError
		api      *trimet.APIError
	)
	switch {
	case errors.As(err, &notFound):
		return "stop_not_found"
	case errors.As(err, &api):
		return "api"
	case errors.As(err, &upstream):
		return "upstream"
	}
	return "decode"
}
