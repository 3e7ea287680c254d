package ports

import "github.com/shieldpay/shieldpay-sdk/internal/core/domain"

// RepoManager gives access to the repositories of the SDK storage.
type RepoManager interface {
	BalanceRepository() domain.BalanceRepository
	WalletRepository() domain.WalletRepository
	CurrencyRepository() domain.CurrencyRepository
	WebhookRepository() domain.WebhookRepository

	Close()
}
