package scanner

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// scanNotes refreshes the note balances of the wallet on every network of
// the environment that supports notes, one network after the other. Each
// network accounts for an equal share of the progress.
func (s *Service) scanNotes(
	ctx context.Context, walletID string, env domain.Environment,
	scanAll bool, setProgress func(float64),
) domain.ScanOutcome {
	networks := s.networks.NoteNetworks(env)
	if len(networks) <= 0 {
		setProgress(1)
		return domain.ScanCompleted
	}

	keys, err := s.crypto.ViewingKeys(ctx, walletID)
	if ctx.Err() != nil {
		return domain.ScanCancelled
	}
	if err != nil {
		s.batchFailed("notes", walletID, env, 0, err)
		setProgress(1)
		return domain.ScanCompleted
	}

	share := 1 / float64(len(networks))
	for i, network := range networks {
		base := float64(i) * share
		outcome := s.scanNetworkNotes(
			ctx, walletID, env, network, *keys, scanAll,
			func(fraction float64) {
				setProgress(base + fraction*share)
			},
			func() { setProgress(1) },
		)
		if outcome == domain.ScanCancelled {
			return domain.ScanCancelled
		}
	}

	return domain.ScanCompleted
}

func (s *Service) scanNetworkNotes(
	ctx context.Context, walletID string, env domain.Environment,
	network domain.Network, keys ports.ViewingKeys, scanAll bool,
	setProgress func(float64), saturate func(),
) domain.ScanOutcome {
	event := ports.Event{
		WalletID: walletID, Environment: env, NetworkSlug: network.Slug,
	}

	cursor, err := s.repoManager.WalletRepository().GetScanCursor(
		ctx, walletID, network.Slug,
	)
	if err != nil {
		log.WithError(err).Warnf(
			"failed to get note scan cursor of wallet %s on %s, rescanning",
			walletID, network.Slug,
		)
		cursor = nil
	}
	if cursor == nil || scanAll {
		cursor = &domain.ScanCursor{WalletID: walletID, NetworkSlug: network.Slug}
	}

	candidates, outcome, err := s.syncNotes(ctx, event, cursor.Latest)
	if outcome == domain.ScanCancelled {
		return outcome
	}
	if err != nil {
		s.batchFailed("notes", walletID, env, 0, err)
		saturate()
		return domain.ScanCompleted
	}

	owned, err := s.crypto.ScanNotes(ctx, keys, candidates)
	if ctx.Err() != nil {
		return domain.ScanCancelled
	}
	if err != nil {
		s.batchFailed("notes", walletID, env, 0, err)
		s.publishError(event, ports.TopicScanError, err)
		saturate()
		return domain.ScanCompleted
	}
	if len(owned) > 0 {
		matched := event
		matched.Topic = ports.TopicScanMatch
		matched.Data = map[string]string{"notes": strconv.Itoa(len(owned))}
		s.bus.Publish(matched)
	}

	batches := chunk(owned, domain.NoteBatchSize)
	failed := false
	for i, batch := range batches {
		entries, err := s.proveNotes(ctx, walletID, env, network, keys, batch)
		if ctx.Err() != nil {
			return domain.ScanCancelled
		}
		if err == nil {
			err = s.repoManager.BalanceRepository().UpsertBalances(ctx, entries)
		}
		if err != nil {
			failed = true
			s.batchFailed("notes", walletID, env, i, err)
			s.publishError(event, ports.TopicScanError, err)
			saturate()
			continue
		}

		fraction := float64(i+1) / float64(len(batches))
		progress := event
		progress.Topic = ports.TopicScanProgress
		progress.Progress = fraction * 100
		s.bus.Publish(progress)
		setProgress(fraction)
	}
	if len(batches) <= 0 {
		setProgress(1)
	}

	// Notes of failed batches must be scanned again, the cursor moves only if
	// all of them were committed.
	if !failed && len(candidates) > 0 {
		cursor.Advance(
			candidates[0].ID, candidates[len(candidates)-1].ID, time.Now(),
		)
		if err := s.repoManager.WalletRepository().UpdateScanCursor(
			ctx, *cursor,
		); err != nil {
			log.WithError(err).Warnf(
				"failed to update note scan cursor of wallet %s on %s",
				walletID, network.Slug,
			)
		}
	}

	complete := event
	complete.Topic = ports.TopicScanComplete
	complete.Progress = 100
	s.bus.Publish(complete)
	return domain.ScanCompleted
}

// syncNotes fetches all the public notes announced on the network after the
// given one.
func (s *Service) syncNotes(
	ctx context.Context, event ports.Event, after string,
) ([]ports.PublicNote, domain.ScanOutcome, error) {
	started := event
	started.Topic = ports.TopicSyncStarted
	s.bus.Publish(started)

	notes := make([]ports.PublicNote, 0)
	for {
		page, err := s.backend.ListNotes(ctx, event.NetworkSlug, after)
		if ctx.Err() != nil {
			return nil, domain.ScanCancelled, nil
		}
		if err != nil {
			err = fmt.Errorf("failed to list notes: %w", err)
			s.publishError(event, ports.TopicSyncError, err)
			return nil, domain.ScanCompleted, err
		}
		if len(page) <= 0 {
			break
		}

		notes = append(notes, page...)
		after = page[len(page)-1].ID

		progress := event
		progress.Topic = ports.TopicSyncProgress
		progress.Data = map[string]string{"notes": strconv.Itoa(len(notes))}
		s.bus.Publish(progress)
	}

	complete := event
	complete.Topic = ports.TopicSyncComplete
	complete.Progress = 100
	complete.Data = map[string]string{"notes": strconv.Itoa(len(notes))}
	s.bus.Publish(complete)
	return notes, domain.ScanCompleted, nil
}

// proveNotes proves the ownership of a batch of notes and returns their
// authenticated balances.
func (s *Service) proveNotes(
	ctx context.Context, walletID string, env domain.Environment,
	network domain.Network, keys ports.ViewingKeys, batch []ports.OwnedNote,
) ([]domain.BalanceEntry, error) {
	proof, err := s.crypto.GenerateOwnershipProof(ctx, keys, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ownership proof: %w", err)
	}

	notes, err := s.backend.SubmitNoteProof(ctx, network.Slug, *proof)
	if err != nil {
		return nil, fmt.Errorf("failed to submit ownership proof: %w", err)
	}

	now := time.Now()
	entries := make([]domain.BalanceEntry, 0, len(notes))
	for _, n := range notes {
		if len(n.NetworkSlug) <= 0 {
			n.NetworkSlug = network.Slug
		}
		currency, err := s.currency(ctx, network, n.CurrencyAddress)
		if err != nil {
			return nil, err
		}
		entry := n.ToBalanceEntry(walletID, env, currency, now)
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("invalid note %s: %w", n.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) currency(
	ctx context.Context, network domain.Network, address string,
) (domain.Currency, error) {
	if c, ok := network.Currency(address); ok {
		return c, nil
	}
	c, err := s.repoManager.CurrencyRepository().GetCurrency(
		ctx, domain.CurrencyKey{Address: address, NetworkSlug: network.Slug},
	)
	if err != nil {
		return domain.Currency{}, fmt.Errorf(
			"unknown currency %s on %s: %w", address, network.Slug, err,
		)
	}
	return *c, nil
}

func (s *Service) publishError(event ports.Event, topic string, err error) {
	event.Topic = topic
	event.Error = err.Error()
	s.bus.Publish(event)
}
