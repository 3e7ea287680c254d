package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shieldpay/shieldpay-sdk/internal/core/application/scanner"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
)

// ScanOptions customizes a balance scan.
type ScanOptions = scanner.Options

// ScanWalletBalances refreshes all the balances of the wallet in the given
// environment. Concurrent scans of the same wallet are skipped.
func (s *Service) ScanWalletBalances(
	ctx context.Context, walletID string, env domain.Environment, opts ScanOptions,
) (domain.ScanOutcome, error) {
	if s.isClosed() {
		return 0, ErrServiceClosed
	}
	return s.scanner.ScanWalletBalances(ctx, walletID, env, opts)
}

// ScanNoteBalances refreshes only the note balances of the wallet.
func (s *Service) ScanNoteBalances(
	ctx context.Context, walletID string, env domain.Environment, opts ScanOptions,
) (domain.ScanOutcome, error) {
	if s.isClosed() {
		return 0, ErrServiceClosed
	}
	return s.scanner.ScanNoteBalances(ctx, walletID, env, opts)
}

// ScanAddressBalances refreshes the balances of one of the wallet addresses.
func (s *Service) ScanAddressBalances(
	ctx context.Context, address string, opts ScanOptions,
) (domain.ScanOutcome, error) {
	if s.isClosed() {
		return 0, ErrServiceClosed
	}
	return s.scanner.ScanAddressBalances(ctx, address, opts)
}

// AddAddresses adds the given addresses to the address book of the wallet
// and returns how many of them were new.
func (s *Service) AddAddresses(
	ctx context.Context, walletID string, addresses []string,
) (int, error) {
	if len(walletID) <= 0 {
		return 0, fmt.Errorf("missing wallet id")
	}

	list := make([]domain.WalletAddress, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if len(addr) <= 0 {
			continue
		}
		wa := domain.WalletAddress{WalletID: walletID, Address: addr}
		if wa.IsEVM() {
			wa.Kind = domain.EVMChain
		}
		list = append(list, wa)
	}
	if len(list) <= 0 {
		return 0, nil
	}
	return s.repoManager.WalletRepository().AddAddresses(ctx, list)
}

// ListBalances returns the stored balances of the wallet in the given
// environment, sorted by network, currency and kind.
func (s *Service) ListBalances(
	ctx context.Context, walletID string, env domain.Environment,
) ([]domain.BalanceEntry, error) {
	if !env.IsValid() {
		return nil, domain.ErrInvalidEnvironment
	}

	entries, err := s.repoManager.BalanceRepository().GetBalances(
		ctx, walletID, env,
	)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.NetworkSlug != b.NetworkSlug {
			return a.NetworkSlug < b.NetworkSlug
		}
		if !strings.EqualFold(a.CurrencyAddress, b.CurrencyAddress) {
			return strings.ToLower(a.CurrencyAddress) < strings.ToLower(b.CurrencyAddress)
		}
		return kindPreference(a.Kind) < kindPreference(b.Kind)
	})
	return entries, nil
}

// GetCurrency returns the metadata of a tracked currency, including its
// latest known price.
func (s *Service) GetCurrency(
	ctx context.Context, networkSlug, address string,
) (*domain.Currency, error) {
	return s.repoManager.CurrencyRepository().GetCurrency(
		ctx, domain.CurrencyKey{Address: address, NetworkSlug: networkSlug},
	)
}
