package dbbadger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"
)

type currencyRepositoryImpl struct {
	store *badgerhold.Store
}

func newCurrencyRepositoryImpl(store *badgerhold.Store) domain.CurrencyRepository {
	return &currencyRepositoryImpl{store}
}

// UpsertCurrencies stores the given currency metadata. Known prices are kept
// if the new metadata has none.
func (r *currencyRepositoryImpl) UpsertCurrencies(
	_ context.Context, currencies []domain.Currency,
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		for i := range currencies {
			currency := currencies[i]
			key := currency.Key().String()

			var stored domain.Currency
			err := r.store.TxGet(tx, key, &stored)
			if err != nil && err != badgerhold.ErrNotFound {
				return err
			}
			if err == nil && !currency.HasPrice() {
				currency.PriceUSD = stored.PriceUSD
				currency.UpdatedAt = stored.UpdatedAt
			}

			if err := r.store.TxUpsert(tx, key, &currency); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *currencyRepositoryImpl) GetCurrency(
	_ context.Context, key domain.CurrencyKey,
) (*domain.Currency, error) {
	var currency domain.Currency
	if err := r.store.Get(key.String(), &currency); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrCurrencyNotFound
		}
		return nil, err
	}
	return &currency, nil
}

func (r *currencyRepositoryImpl) GetCurrenciesForNetwork(
	_ context.Context, networkSlug string,
) ([]domain.Currency, error) {
	var currencies []domain.Currency
	query := badgerhold.Where("NetworkSlug").Eq(networkSlug)
	if err := r.store.Find(&currencies, query); err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *currencyRepositoryImpl) GetAllCurrencies(
	_ context.Context,
) ([]domain.Currency, error) {
	var currencies []domain.Currency
	if err := r.store.Find(&currencies, nil); err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *currencyRepositoryImpl) UpdatePrice(
	_ context.Context, ticker string, price decimal.Decimal, at time.Time,
) (int, error) {
	count := 0
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		var currencies []domain.Currency
		query := badgerhold.Where("Ticker").Eq(ticker)
		if err := r.store.TxFind(tx, &currencies, query); err != nil {
			return err
		}

		for i := range currencies {
			currency := currencies[i]
			if !currency.UpdatePrice(price, at) {
				continue
			}
			if err := r.store.TxUpsert(
				tx, currency.Key().String(), &currency,
			); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
