package dbbadger

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type walletRepositoryImpl struct {
	store *badgerhold.Store
}

func newWalletRepositoryImpl(store *badgerhold.Store) domain.WalletRepository {
	return &walletRepositoryImpl{store}
}

// AddAddresses adds the given addresses to the address book, skipping those
// already known. It returns the number of added addresses.
func (r *walletRepositoryImpl) AddAddresses(
	_ context.Context, addresses []domain.WalletAddress,
) (int, error) {
	count := 0
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		for i := range addresses {
			addr := addresses[i]
			if err := r.store.TxInsert(tx, addr.Key(), &addr); err != nil {
				if err == badgerhold.ErrKeyExists {
					continue
				}
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

func (r *walletRepositoryImpl) GetAddresses(
	_ context.Context, walletID string, env domain.Environment, limit int,
) ([]domain.WalletAddress, error) {
	var addresses []domain.WalletAddress
	query := badgerhold.Where("WalletID").Eq(walletID)
	if err := r.store.Find(&addresses, query); err != nil {
		return nil, err
	}

	sort.SliceStable(addresses, func(i, j int) bool {
		return addresses[i].ScannedAt(env).Before(addresses[j].ScannedAt(env))
	})

	if limit > 0 && len(addresses) > limit {
		addresses = addresses[:limit]
	}
	return addresses, nil
}

func (r *walletRepositoryImpl) GetAddress(
	_ context.Context, address string,
) (*domain.WalletAddress, error) {
	addresses, err := r.findAddresses(address)
	if err != nil {
		return nil, err
	}
	if len(addresses) <= 0 {
		return nil, domain.ErrAddressNotFound
	}
	return &addresses[0], nil
}

func (r *walletRepositoryImpl) MarkScanned(
	_ context.Context, addresses []string, env domain.Environment,
	at time.Time,
) error {
	if len(addresses) <= 0 {
		return nil
	}

	return r.store.Badger().Update(func(tx *badger.Txn) error {
		for _, address := range addresses {
			var found []domain.WalletAddress
			if err := r.store.TxFind(
				tx, &found, addressQuery(address),
			); err != nil {
				return err
			}
			for i := range found {
				addr := found[i]
				addr.MarkScanned(env, at)
				if err := r.store.TxUpsert(tx, addr.Key(), &addr); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetScanCursor returns the note scan cursor of the wallet on the network,
// nil if the wallet has never been scanned.
func (r *walletRepositoryImpl) GetScanCursor(
	_ context.Context, walletID, networkSlug string,
) (*domain.ScanCursor, error) {
	cursor := domain.ScanCursor{WalletID: walletID, NetworkSlug: networkSlug}

	var stored domain.ScanCursor
	if err := r.store.Get(cursor.Key(), &stored); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &stored, nil
}

func (r *walletRepositoryImpl) UpdateScanCursor(
	_ context.Context, cursor domain.ScanCursor,
) error {
	return r.store.Upsert(cursor.Key(), &cursor)
}

func (r *walletRepositoryImpl) findAddresses(
	address string,
) ([]domain.WalletAddress, error) {
	var addresses []domain.WalletAddress
	if err := r.store.Find(&addresses, addressQuery(address)); err != nil {
		return nil, err
	}
	return addresses, nil
}

func addressQuery(address string) *badgerhold.Query {
	return badgerhold.Where("Address").MatchFunc(
		func(ra *badgerhold.RecordAccess) (bool, error) {
			field, ok := ra.Field().(string)
			if !ok {
				return false, nil
			}
			return strings.EqualFold(field, address), nil
		},
	)
}
