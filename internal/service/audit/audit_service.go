package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/ledger"
)

// StateLister is the read surface the auditor needs from the store.
type StateLister interface {
	ListStockStates(ctx context.Context) ([]models.StockState, error)
}

// Service re-folds every ledger and checks the cached projections against
// it. The commit protocol should make drift impossible; the audit exists so
// that if it ever happens anyway it is noticed, not discovered months later
// in a tax return.
type Service struct {
	store  StateLister
	logger *zap.Logger
}

// NewService wires a ledger auditor.
func NewService(store StateLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Finding describes a single stock state failing an audit check.
type Finding struct {
	OwnerID  string
	Category string
	Problem  string
}

// Report summarizes one audit run.
type Report struct {
	Checked  int
	Findings []Finding
}

// Clean reports whether the run found no inconsistencies.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

// Run audits every stored stock state and returns the findings. Each
// finding is also logged at warn level as it is discovered.
func (s *Service) Run(ctx context.Context) (Report, error) {
	states, err := s.store.ListStockStates(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list stock states: %w", err)
	}

	report := Report{Checked: len(states)}
	for _, state := range states {
		for _, problem := range auditState(state) {
			finding := Finding{OwnerID: state.OwnerID, Category: state.Category, Problem: problem}
			report.Findings = append(report.Findings, finding)
			s.logger.Warn("ledger audit finding",
				zap.String("ownerId", finding.OwnerID),
				zap.String("category", finding.Category),
				zap.String("problem", finding.Problem))
		}
	}

	s.logger.Info("ledger audit completed",
		zap.Int("checked", report.Checked),
		zap.Int("findings", len(report.Findings)))
	return report, nil
}

func auditState(state models.StockState) []string {
	var problems []string

	if state.CurrentBirds < 0 {
		problems = append(problems, fmt.Sprintf("negative head-count %d", state.CurrentBirds))
	}

	if folded := ledger.FoldHeadCount(state.Entries); folded != state.CurrentBirds {
		problems = append(problems, fmt.Sprintf("cached head-count %d diverges from ledger fold %d", state.CurrentBirds, folded))
	}

	running := 0
	for i, entry := range state.Entries {
		if entry.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("entry %d has non-positive quantity %d", i, entry.Quantity))
		}
		if entry.IsAcquisition() {
			running += entry.Quantity
		} else {
			running -= entry.Quantity
		}
		if running < 0 {
			problems = append(problems, fmt.Sprintf("entry %d drives head-count negative", i))
		}
		if entry.RemainingStock != running {
			problems = append(problems, fmt.Sprintf("entry %d snapshot %d does not match replay %d", i, entry.RemainingStock, running))
		}
	}

	return problems
}
