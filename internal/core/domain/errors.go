package domain

import "errors"

var (
	// ErrInvalidAmount is returned when an intent amount is missing or not
	// strictly positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrMissingRecipient ...
	ErrMissingRecipient = errors.New("missing recipient")
	// ErrInvalidRecipient is returned when a recipient is neither a valid
	// chain address nor a valid protocol handle.
	ErrInvalidRecipient = errors.New("recipient must be a chain address or a protocol handle")
	// ErrMissingCurrency ...
	ErrMissingCurrency = errors.New("missing currency")
	// ErrMissingNetwork ...
	ErrMissingNetwork = errors.New("missing network")
	// ErrInsufficientBalance is returned by the planner when the available
	// entries don't cover the requested amount. No plan is produced.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNegativeBalance ...
	ErrNegativeBalance = errors.New("balance must not be negative")
	// ErrUnknownBalanceKind ...
	ErrUnknownBalanceKind = errors.New("unknown balance entry kind")
	// ErrMissingSource is returned when an on-chain entry has no source address.
	ErrMissingSource = errors.New("missing source address")
	// ErrMissingVaultToken ...
	ErrMissingVaultToken = errors.New("missing vault token id")
	// ErrMissingNoteID ...
	ErrMissingNoteID = errors.New("missing note id")
	// ErrMissingNoteOwner ...
	ErrMissingNoteOwner = errors.New("missing note owner")
	// ErrAddressNotFound ...
	ErrAddressNotFound = errors.New("address not found")
	// ErrCurrencyNotFound ...
	ErrCurrencyNotFound = errors.New("currency not found")
	// ErrWebhookNotFound ...
	ErrWebhookNotFound = errors.New("webhook not found")
	// ErrNetworkNotFound ...
	ErrNetworkNotFound = errors.New("network not found")
	// ErrInvalidEnvironment ...
	ErrInvalidEnvironment = errors.New("environment must be either mainnet or testnet")
	// ErrInvalidMaxInputs is returned when a network defines an aggregation
	// fan-in lower than 2.
	ErrInvalidMaxInputs = errors.New("max inputs must be at least 2")
	// ErrInvalidWebhookTopic ...
	ErrInvalidWebhookTopic = errors.New("missing webhook topic")
	// ErrInvalidWebhookEndpoint ...
	ErrInvalidWebhookEndpoint = errors.New("invalid webhook endpoint, must be a valid URI")
)
