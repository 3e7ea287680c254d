package dbbadger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	mainDir  = "main"
	priceDir = "prices"
)

type repoManager struct {
	store      *badgerhold.Store
	priceStore *badgerhold.Store
	quit       chan struct{}

	balanceRepository  domain.BalanceRepository
	walletRepository   domain.WalletRepository
	currencyRepository domain.CurrencyRepository
	webhookRepository  domain.WebhookRepository
}

// NewRepoManager opens (or creates if not existing) the badger stores in the
// given base directory. An empty dir opens in-memory stores.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var mainDbDir, priceDbDir string
	if len(baseDbDir) > 0 {
		mainDbDir = filepath.Join(baseDbDir, mainDir)
		priceDbDir = filepath.Join(baseDbDir, priceDir)
	}

	quit := make(chan struct{})

	store, err := createDb(mainDbDir, logger, quit)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	priceStore, err := createDb(priceDbDir, logger, quit)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening prices db: %w", err)
	}

	return &repoManager{
		store:              store,
		priceStore:         priceStore,
		quit:               quit,
		balanceRepository:  newBalanceRepositoryImpl(store),
		walletRepository:   newWalletRepositoryImpl(store),
		currencyRepository: newCurrencyRepositoryImpl(priceStore),
		webhookRepository:  newWebhookRepositoryImpl(store),
	}, nil
}

func (r *repoManager) BalanceRepository() domain.BalanceRepository {
	return r.balanceRepository
}

func (r *repoManager) WalletRepository() domain.WalletRepository {
	return r.walletRepository
}

func (r *repoManager) CurrencyRepository() domain.CurrencyRepository {
	return r.currencyRepository
}

func (r *repoManager) WebhookRepository() domain.WebhookRepository {
	return r.webhookRepository
}

func (r *repoManager) Close() {
	close(r.quit)
	r.store.Close()
	r.priceStore.Close()
}

func createDb(
	dbDir string, logger badger.Logger, quit chan struct{},
) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-quit:
					return
				case <-ticker.C:
					if err := db.Badger().RunValueLogGC(0.5); err != nil &&
						err != badger.ErrNoRewrite {
						log.Error(err)
					}
				}
			}
		}()
	}

	return db, nil
}
