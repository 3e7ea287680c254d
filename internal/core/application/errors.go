package application

import "errors"

var (
	// ErrWebhooksDisabled is returned when managing webhooks on a service
	// configured without a webhook publisher.
	ErrWebhooksDisabled = errors.New("webhooks are not enabled")
	// ErrInvalidTopic ...
	ErrInvalidTopic = errors.New("unknown event topic")
	// ErrEmptyPlan ...
	ErrEmptyPlan = errors.New("plan has no commands")
	// ErrServiceClosed ...
	ErrServiceClosed = errors.New("service is closed")
)
