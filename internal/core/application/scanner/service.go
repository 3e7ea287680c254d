package scanner

import (
	"context"
	"fmt"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/keylock"
	"github.com/shieldpay/shieldpay-sdk/pkg/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options customizes a scan. OnProgress is invoked with the overall progress
// in [0, 100] after every batch. ScanAll refreshes all the wallet addresses
// and rescans all notes from the first one.
type Options struct {
	ScanAll    bool
	OnProgress func(progress float64)
}

// Service discovers and refreshes the balances of the wallets. At most one
// scan runs at a time per wallet, per wallet notes and per address.
type Service struct {
	networks     domain.Networks
	repoManager  ports.RepoManager
	chains       ports.ChainRegistry
	crypto       ports.CryptoCore
	backend      ports.BackendApi
	bus          ports.EventBus
	guard        *keylock.Guard
	addressLimit int
}

func NewService(
	networks domain.Networks,
	repoManager ports.RepoManager,
	chains ports.ChainRegistry,
	crypto ports.CryptoCore,
	backend ports.BackendApi,
	bus ports.EventBus,
	addressLimit int,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if chains == nil {
		return nil, fmt.Errorf("missing chain registry")
	}
	if crypto == nil {
		return nil, fmt.Errorf("missing crypto core")
	}
	if backend == nil {
		return nil, fmt.Errorf("missing backend")
	}
	if bus == nil {
		return nil, fmt.Errorf("missing event bus")
	}
	if addressLimit <= 0 {
		addressLimit = domain.DefaultScanAddressLimit
	}

	return &Service{
		networks:     networks,
		repoManager:  repoManager,
		chains:       chains,
		crypto:       crypto,
		backend:      backend,
		bus:          bus,
		guard:        keylock.New(),
		addressLimit: addressLimit,
	}, nil
}

// ScanWalletBalances refreshes both address and note balances of the wallet
// for the given environment. The two sub-scans run concurrently. If another
// scan of the same wallet is in flight, ScanSkipped is returned and nothing
// happens.
func (s *Service) ScanWalletBalances(
	ctx context.Context, walletID string, env domain.Environment, opts Options,
) (domain.ScanOutcome, error) {
	if !env.IsValid() {
		return 0, domain.ErrInvalidEnvironment
	}

	release, ok := s.guard.TryAcquire(walletKey(walletID))
	if !ok {
		log.Debugf("scan of wallet %s already in progress, skipping", walletID)
		return domain.ScanSkipped, nil
	}
	defer release()

	event := ports.Event{WalletID: walletID, Environment: env}
	tracker := newProgressTracker(s.bus, event, walletProgress, opts.OnProgress)
	s.publish(event, ports.TopicBalanceRefreshStarted)

	var addrOutcome, notesOutcome domain.ScanOutcome
	eg := &errgroup.Group{}
	eg.Go(func() error {
		addrOutcome = s.scanAddresses(
			ctx, walletID, env, opts.ScanAll, tracker.setAddresses,
		)
		return nil
	})
	eg.Go(func() error {
		notesOutcome = s.scanNotes(
			ctx, walletID, env, opts.ScanAll, tracker.setNotes,
		)
		return nil
	})
	//nolint
	eg.Wait()

	outcome := domain.ScanCompleted
	if addrOutcome == domain.ScanCancelled || notesOutcome == domain.ScanCancelled {
		outcome = domain.ScanCancelled
	}
	s.finalize(ctx, "wallet", event, tracker, outcome)
	return outcome, nil
}

// ScanNoteBalances refreshes only the note balances of the wallet. It is
// mutually exclusive with other note scans of the same wallet, not with full
// wallet scans.
func (s *Service) ScanNoteBalances(
	ctx context.Context, walletID string, env domain.Environment, opts Options,
) (domain.ScanOutcome, error) {
	if !env.IsValid() {
		return 0, domain.ErrInvalidEnvironment
	}

	release, ok := s.guard.TryAcquire(notesKey(walletID))
	if !ok {
		log.Debugf("note scan of wallet %s already in progress, skipping", walletID)
		return domain.ScanSkipped, nil
	}
	defer release()

	event := ports.Event{WalletID: walletID, Environment: env}
	tracker := newProgressTracker(s.bus, event, notesProgress, opts.OnProgress)
	s.publish(event, ports.TopicBalanceRefreshStarted)

	outcome := s.scanNotes(ctx, walletID, env, opts.ScanAll, tracker.setNotes)
	s.finalize(ctx, "notes", event, tracker, outcome)
	return outcome, nil
}

// ScanAddressBalances refreshes the balances of a single wallet address on
// all known networks.
func (s *Service) ScanAddressBalances(
	ctx context.Context, address string, opts Options,
) (domain.ScanOutcome, error) {
	addr, err := s.repoManager.WalletRepository().GetAddress(ctx, address)
	if err != nil {
		return 0, err
	}

	release, ok := s.guard.TryAcquire(addressKey(address))
	if !ok {
		log.Debugf("scan of address %s already in progress, skipping", address)
		return domain.ScanSkipped, nil
	}
	defer release()

	event := ports.Event{WalletID: addr.WalletID, Address: addr.Address}
	tracker := newProgressTracker(
		s.bus, event, addressesProgress, opts.OnProgress,
	)
	s.publish(event, ports.TopicBalanceRefreshStarted)

	envs := []domain.Environment{domain.Mainnet, domain.Testnet}
	outcome := domain.ScanCompleted
	for i, env := range envs {
		if len(s.networks.ForEnvironment(env)) <= 0 {
			tracker.setAddresses(float64(i+1) / float64(len(envs)))
			continue
		}
		batch := []domain.WalletAddress{*addr}
		res, err := s.scanAddressBatch(ctx, addr.WalletID, env, batch)
		if res == domain.ScanCancelled {
			outcome = domain.ScanCancelled
			break
		}
		if err != nil {
			s.batchFailed("addresses", addr.WalletID, env, i, err)
			tracker.setAddresses(1)
			continue
		}
		tracker.setAddresses(float64(i+1) / float64(len(envs)))
	}

	s.finalize(ctx, "address", event, tracker, outcome)
	return outcome, nil
}

func (s *Service) finalize(
	ctx context.Context, kind string, event ports.Event,
	tracker *progressTracker, outcome domain.ScanOutcome,
) {
	stats.ScansTotal.WithLabelValues(kind, outcome.String()).Inc()

	if outcome == domain.ScanCancelled {
		reason := "scan cancelled"
		if err := ctx.Err(); err != nil {
			reason = err.Error()
		}
		log.WithFields(log.Fields{
			"wallet": event.WalletID, "kind": kind,
		}).Info("balance scan cancelled")

		event.Topic = ports.TopicBalanceRefreshCancelled
		event.Reason = reason
		event.Progress = tracker.current()
		s.bus.Publish(event)
		return
	}

	event.Topic = ports.TopicBalanceRefreshComplete
	event.Progress = 100
	s.bus.Publish(event)
}

func (s *Service) publish(event ports.Event, topic string) {
	event.Topic = topic
	s.bus.Publish(event)
}

func (s *Service) batchFailed(
	subscan, walletID string, env domain.Environment, batch int, err error,
) {
	stats.ScanBatchFailures.WithLabelValues(subscan).Inc()
	log.WithError(err).WithFields(log.Fields{
		"wallet":      walletID,
		"environment": env,
		"batch":       batch,
	}).Warnf("%s scan batch failed", subscan)
}
