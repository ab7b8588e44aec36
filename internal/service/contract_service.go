package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/symbol"
)

// ContractSource is the slice of exchange.Client the warm-up needs. The
// client writes every listed contract to its contract cache.
type ContractSource interface {
	Venue() domain.Venue
	Contracts(ctx context.Context) ([]domain.Contract, error)
}

// ContractService preloads contract metadata.
type ContractService struct {
	source ContractSource
	logger *slog.Logger
}

// NewContractService creates a ContractService.
func NewContractService(source ContractSource, logger *slog.Logger) *ContractService {
	return &ContractService{
		source: source,
		logger: logger.With(slog.String("component", "contract_service")),
	}
}

// WarmReport summarises one warm-up.
type WarmReport struct {
	Venue   domain.Venue `json:"venue"`
	Listed  int          `json:"listed"`
	Matched []string     `json:"matched"`
}

// Warm fetches the venue's contract list, refreshing the cache, and
// reports which contracts have one of the given base currencies. No bases
// matches everything.
func (s *ContractService) Warm(ctx context.Context, bases []string) (WarmReport, error) {
	contracts, err := s.source.Contracts(ctx)
	if err != nil {
		return WarmReport{}, fmt.Errorf("contract_service: warm: %w", err)
	}

	want := make(map[string]struct{}, len(bases))
	for _, b := range bases {
		want[strings.ToUpper(b)] = struct{}{}
	}

	report := WarmReport{Venue: s.source.Venue(), Listed: len(contracts), Matched: []string{}}
	for _, c := range contracts {
		base := c.BaseCurrency
		if base == "" {
			base, _ = symbol.Split(c.Symbol)
		}
		if _, ok := want[strings.ToUpper(base)]; len(want) == 0 || ok {
			report.Matched = append(report.Matched, c.Symbol)
		}
	}

	s.logger.InfoContext(ctx, "contracts warmed",
		slog.String("venue", string(report.Venue)),
		slog.Int("listed", report.Listed),
		slog.Int("matched", len(report.Matched)),
	)
	return report, nil
}
