package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	Unauthorized        failure.ErrorCode = "Unauthorized"

	// Auction display module.
	EventNotFound       failure.ErrorCode = "EventNotFound"
	ItemNotFound        failure.ErrorCode = "ItemNotFound"
	InvalidEventID      failure.ErrorCode = "InvalidEventID"
	InvalidItemName     failure.ErrorCode = "InvalidItemName"
	InvalidBidAmount    failure.ErrorCode = "InvalidBidAmount"
	ItemLimitReached    failure.ErrorCode = "ItemLimitReached"
	LocalStoreCorrupted failure.ErrorCode = "LocalStoreCorrupted"

	// Billing module.
	AccountNotFound     failure.ErrorCode = "AccountNotFound"
	PaymentNotConfirmed failure.ErrorCode = "PaymentNotConfirmed"
	InvalidWebhookEvent failure.ErrorCode = "InvalidWebhookEvent"
	InvalidSignature    failure.ErrorCode = "InvalidSignature"
)
