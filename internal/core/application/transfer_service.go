package application

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application/planner"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// PlanTransfer returns the plan that sends the intent amount to its
// recipient using the stored balances of the wallet. Balances are consumed
// notes first, then vault, unified contract and stealth address ones, and
// larger first within the same kind.
func (s *Service) PlanTransfer(
	ctx context.Context, walletID string, intent domain.Intent,
) (*planner.Plan, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	network, err := s.networks.Get(intent.Network)
	if err != nil {
		return nil, err
	}

	entries, err := s.repoManager.BalanceRepository().GetBalancesForCurrency(
		ctx, walletID, network.Slug, intent.Currency,
	)
	if err != nil {
		return nil, err
	}

	return planner.Generate(spendable(entries), intent, network)
}

// EstimatePlan returns the total fees of the commands of the plan.
func (s *Service) EstimatePlan(
	ctx context.Context, plan *planner.Plan,
) (*ports.Fee, error) {
	if plan == nil || plan.Root == nil {
		return nil, ErrEmptyPlan
	}
	return s.executor.Estimate(ctx, plan.Root, nil)
}

// ExecutePlan runs the plan and returns its result. Step failures are
// reported in the result, the returned error is set only if the plan could
// not be run at all. Plan execution events are published along the way.
func (s *Service) ExecutePlan(
	ctx context.Context, plan *planner.Plan,
) (domain.ExecutionResult, error) {
	if s.isClosed() {
		return domain.ExecutionResult{}, ErrServiceClosed
	}
	if plan == nil || plan.Root == nil || plan.Commands() <= 0 {
		return domain.ExecutionResult{}, ErrEmptyPlan
	}

	tracker := newPlanTracker(s.bus, plan)
	tracker.started()

	res, err := s.executor.ExecuteObserved(ctx, plan.Root, nil, tracker.observe)
	if err != nil {
		tracker.failed(err)
		return domain.ExecutionResult{}, err
	}

	if !res.Success {
		cause := res.Err
		if failures := res.Failures(); len(failures) > 0 {
			cause = failures[0]
		}
		if cause == nil {
			cause = fmt.Errorf("plan execution failed")
		}
		log.WithError(cause).WithField("wallet", tracker.event.WalletID).Warn(
			"plan execution failed",
		)
		tracker.failed(cause)
		return res, nil
	}

	s.updateBalances(ctx, plan, res.Data)
	tracker.completed()
	return res, nil
}

// Transfer plans and executes the given intent.
func (s *Service) Transfer(
	ctx context.Context, walletID string, intent domain.Intent,
) (*planner.Plan, domain.ExecutionResult, error) {
	plan, err := s.PlanTransfer(ctx, walletID, intent)
	if err != nil {
		return nil, domain.ExecutionResult{}, err
	}
	res, err := s.ExecutePlan(ctx, plan)
	return plan, res, err
}

// updateBalances removes the balances spent by a successful plan and stores
// the notes it left to the wallet, ie. the change of a payment. Anything
// else is picked up by the next scan.
func (s *Service) updateBalances(
	ctx context.Context, plan *planner.Plan, data domain.Payload,
) {
	walletID := ""
	keys := make([]domain.BalanceKey, 0, len(plan.Consumed))
	for _, entry := range plan.Consumed {
		keys = append(keys, entry.Key())
		walletID = entry.WalletID
	}

	repo := s.repoManager.BalanceRepository()
	if err := repo.DeleteBalances(ctx, keys); err != nil {
		log.WithError(err).Warn("failed to remove spent balances")
	}

	kept := make([]domain.BalanceEntry, 0)
	for _, entry := range data.Entries() {
		if entry.Kind == domain.NoteBalance && entry.WalletID == walletID &&
			!entry.IsEmpty() {
			kept = append(kept, entry)
		}
	}
	if len(kept) <= 0 {
		return
	}
	if err := repo.UpsertBalances(ctx, kept); err != nil {
		log.WithError(err).Warn("failed to store change notes")
	}
}

// spendable filters out the empty entries and sorts the others by
// preference.
func spendable(entries []domain.BalanceEntry) []domain.BalanceEntry {
	list := make([]domain.BalanceEntry, 0, len(entries))
	for _, e := range entries {
		if e.Balance == nil || e.Balance.Sign() <= 0 {
			continue
		}
		list = append(list, e)
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if pa, pb := kindPreference(a.Kind), kindPreference(b.Kind); pa != pb {
			return pa < pb
		}
		return a.Balance.Cmp(b.Balance) > 0
	})
	return list
}

func kindPreference(kind domain.BalanceKind) int {
	switch kind {
	case domain.NoteBalance:
		return 0
	case domain.VaultBalance:
		return 1
	case domain.UnifiedContractBalance:
		return 2
	case domain.StealthAddressBalance:
		return 3
	default:
		return 4
	}
}

func planData(plan *planner.Plan) map[string]string {
	return map[string]string{
		"commands":  strconv.Itoa(plan.Commands()),
		"inputs":    strconv.Itoa(len(plan.Consumed)),
		"amount":    amountString(plan.Intent),
		"currency":  plan.Intent.Currency,
		"recipient": plan.Intent.Recipient.String(),
	}
}

func amountString(intent domain.Intent) string {
	if intent.Amount == nil {
		return "0"
	}
	return intent.Amount.String()
}
