package scanner

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// scanAddresses refreshes the balances of the wallet addresses in batches of
// domain.AddressBatchSize. A failing batch saturates the progress and the
// scan goes on with the next one.
func (s *Service) scanAddresses(
	ctx context.Context, walletID string, env domain.Environment,
	scanAll bool, setProgress func(float64),
) domain.ScanOutcome {
	limit := s.addressLimit
	if scanAll {
		limit = 0
	}

	addresses, err := s.repoManager.WalletRepository().GetAddresses(
		ctx, walletID, env, limit,
	)
	if ctx.Err() != nil {
		return domain.ScanCancelled
	}
	if err != nil {
		s.batchFailed("addresses", walletID, env, 0, err)
		setProgress(1)
		return domain.ScanCompleted
	}
	if len(addresses) <= 0 || len(s.networks.ForEnvironment(env)) <= 0 {
		setProgress(1)
		return domain.ScanCompleted
	}

	batches := chunk(addresses, domain.AddressBatchSize)
	log.Debugf(
		"scanning %d addresses of wallet %s in %d batches",
		len(addresses), walletID, len(batches),
	)

	for i, batch := range batches {
		outcome, err := s.scanAddressBatch(ctx, walletID, env, batch)
		if outcome == domain.ScanCancelled {
			return domain.ScanCancelled
		}
		if err != nil {
			s.batchFailed("addresses", walletID, env, i, err)
			setProgress(1)
			continue
		}
		setProgress(float64(i+1) / float64(len(batches)))
	}

	return domain.ScanCompleted
}

// scanAddressBatch fetches and commits the balances of a batch of addresses.
// The batch is not committed if the context is done once balances are
// fetched.
func (s *Service) scanAddressBatch(
	ctx context.Context, walletID string, env domain.Environment,
	batch []domain.WalletAddress,
) (domain.ScanOutcome, error) {
	entries, err := s.fetchAddressBalances(ctx, walletID, env, batch)
	if ctx.Err() != nil {
		return domain.ScanCancelled, nil
	}
	if err != nil {
		return domain.ScanCompleted, err
	}

	if err := s.repoManager.BalanceRepository().UpsertBalances(
		ctx, entries,
	); err != nil {
		return domain.ScanCompleted, fmt.Errorf("failed to store balances: %w", err)
	}

	addresses := make([]string, 0, len(batch))
	for _, a := range batch {
		addresses = append(addresses, a.Address)
	}
	if err := s.repoManager.WalletRepository().MarkScanned(
		ctx, addresses, env, time.Now(),
	); err != nil {
		return domain.ScanCompleted, fmt.Errorf("failed to mark addresses as scanned: %w", err)
	}

	return domain.ScanCompleted, nil
}

// fetchAddressBalances concurrently reads the token and vault balances of the
// addresses on every network of the environment.
func (s *Service) fetchAddressBalances(
	ctx context.Context, walletID string, env domain.Environment,
	batch []domain.WalletAddress,
) ([]domain.BalanceEntry, error) {
	lock := &sync.Mutex{}
	entries := make([]domain.BalanceEntry, 0)
	collect := func(e domain.BalanceEntry) {
		lock.Lock()
		defer lock.Unlock()
		entries = append(entries, e)
	}

	networks := s.networks.ForEnvironment(env)
	chains := make(map[string]ports.ChainRpc, len(networks))
	for _, n := range networks {
		chain, err := s.chains.Chain(n.Slug)
		if err != nil {
			return nil, err
		}
		chains[n.Slug] = chain
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, n := range networks {
		network := n
		chain := chains[network.Slug]

		for _, a := range batch {
			addr := a
			for _, c := range network.Currencies {
				currency := c

				eg.Go(func() error {
					balance, err := tokenBalance(
						egCtx, chain, network, currency, addr.Address,
					)
					if err != nil {
						return fmt.Errorf(
							"failed to get %s balance of %s on %s: %w",
							currency.Symbol, addr.Address, network.Slug, err,
						)
					}
					collect(newEntry(
						domain.StealthAddressBalance, walletID, env, network.Slug,
						addr.Address, currency, balance,
					))
					return nil
				})

				if !addr.IsEVM() || !network.IsEVM() || len(network.VaultAddress) <= 0 {
					continue
				}

				eg.Go(func() error {
					balance, err := chain.VaultBalance(egCtx, currency.Address, addr.Address)
					if err != nil {
						return fmt.Errorf(
							"failed to get %s vault balance of %s on %s: %w",
							currency.Symbol, addr.Address, network.Slug, err,
						)
					}
					collect(newEntry(
						domain.VaultBalance, walletID, env, network.Slug,
						addr.Address, currency, balance,
					))
					return nil
				})
			}
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func tokenBalance(
	ctx context.Context, chain ports.ChainRpc, network domain.Network,
	currency domain.Currency, address string,
) (*big.Int, error) {
	if currency.Native || network.IsNative(currency.Address) {
		return chain.NativeBalance(ctx, address)
	}
	return chain.TokenBalance(ctx, currency.Address, address)
}

func newEntry(
	kind domain.BalanceKind, walletID string, env domain.Environment,
	networkSlug, source string, currency domain.Currency, balance *big.Int,
) domain.BalanceEntry {
	e := domain.BalanceEntry{
		Kind:            kind,
		WalletID:        walletID,
		NetworkSlug:     networkSlug,
		Environment:     env,
		CurrencyAddress: currency.Address,
		Symbol:          currency.Symbol,
		Decimals:        currency.Decimals,
		Balance:         new(big.Int),
		LastUpdated:     time.Now(),
		Source:          source,
	}
	if balance != nil {
		e.Balance.Set(balance)
	}
	if kind == domain.VaultBalance {
		e.VaultTokenID = currency.TokenID()
	}
	return e
}
