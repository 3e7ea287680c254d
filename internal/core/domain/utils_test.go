package domain_test

import (
	"math/big"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/thanhpk/randstr"
)

func randomAddress() string {
	return "0x" + randstr.Hex(20)
}

func newEntry(kind domain.BalanceKind, balance int64) domain.BalanceEntry {
	e := domain.BalanceEntry{
		Kind:            kind,
		WalletID:        "wallet",
		NetworkSlug:     "sepolia",
		Environment:     domain.Testnet,
		CurrencyAddress: randomAddress(),
		Symbol:          "USDC",
		Decimals:        6,
		Balance:         big.NewInt(balance),
		LastUpdated:     time.Now(),
	}
	switch kind {
	case domain.StealthAddressBalance, domain.UnifiedContractBalance:
		e.Source = randomAddress()
	case domain.VaultBalance:
		e.Source = randomAddress()
		e.VaultTokenID = randstr.Hex(8)
	case domain.NoteBalance:
		e.NoteID = randstr.Hex(32)
		e.VaultTokenID = randstr.Hex(8)
		e.Owner = &domain.NoteOwner{
			PublicKey:    randstr.Hex(32),
			SharedSecret: randstr.Hex(32),
		}
		e.DeliveryTag = &domain.DeliveryTag{
			EphemeralKey: randstr.Hex(32),
			ViewTag:      randstr.Hex(1),
		}
	}
	return e
}
