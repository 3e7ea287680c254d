package dbbadger

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type balanceRepositoryImpl struct {
	store *badgerhold.Store
}

func newBalanceRepositoryImpl(store *badgerhold.Store) domain.BalanceRepository {
	return &balanceRepositoryImpl{store}
}

// UpsertBalances replaces the stored entries with the same keys in a single
// transaction.
func (r *balanceRepositoryImpl) UpsertBalances(
	_ context.Context, entries []domain.BalanceEntry,
) error {
	if len(entries) <= 0 {
		return nil
	}

	return r.store.Badger().Update(func(tx *badger.Txn) error {
		for i := range entries {
			entry := entries[i]
			if err := entry.Validate(); err != nil {
				return err
			}
			if err := r.store.TxUpsert(tx, entry.Key().String(), &entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *balanceRepositoryImpl) GetBalances(
	_ context.Context, walletID string, env domain.Environment,
) ([]domain.BalanceEntry, error) {
	query := badgerhold.Where("WalletID").Eq(walletID).
		And("Environment").Eq(env)

	return r.findBalances(query)
}

func (r *balanceRepositoryImpl) GetBalancesForCurrency(
	_ context.Context, walletID, networkSlug, currencyAddress string,
) ([]domain.BalanceEntry, error) {
	query := badgerhold.Where("WalletID").Eq(walletID).
		And("NetworkSlug").Eq(networkSlug)

	entries, err := r.findBalances(query)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.BalanceEntry, 0, len(entries))
	for _, e := range entries {
		if strings.EqualFold(e.CurrencyAddress, currencyAddress) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (r *balanceRepositoryImpl) DeleteBalances(
	_ context.Context, keys []domain.BalanceKey,
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := r.store.TxDelete(
				tx, key.String(), domain.BalanceEntry{},
			); err != nil && err != badgerhold.ErrNotFound {
				return err
			}
		}
		return nil
	})
}

func (r *balanceRepositoryImpl) findBalances(
	query *badgerhold.Query,
) ([]domain.BalanceEntry, error) {
	var entries []domain.BalanceEntry
	if err := r.store.Find(&entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}
