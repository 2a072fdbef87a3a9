package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	AccessTokenInvalid  failure.ErrorCode = "AccessTokenInvalid"
	InvalidPaging       failure.ErrorCode = "InvalidPaging"

	// Deals.
	DealNotFound             failure.ErrorCode = "DealNotFound"
	DealExpired              failure.ErrorCode = "DealExpired"
	DealNotVisible           failure.ErrorCode = "DealNotVisible"
	InvalidDealNumber        failure.ErrorCode = "InvalidDealNumber"
	InvalidDealStatus        failure.ErrorCode = "InvalidDealStatus"
	RouteAlreadyMaterialized failure.ErrorCode = "RouteAlreadyMaterialized"
	DuplicateDealNumber      failure.ErrorCode = "DuplicateDealNumber"

	// Pricing input.
	InvalidRoute             failure.ErrorCode = "InvalidRoute"
	InvalidAirportCode       failure.ErrorCode = "InvalidAirportCode"
	InvalidCabinClass        failure.ErrorCode = "InvalidCabinClass"
	InvalidCurrency          failure.ErrorCode = "InvalidCurrency"
	InvalidPrice             failure.ErrorCode = "InvalidPrice"
	CurrencyConversionFailed failure.ErrorCode = "CurrencyConversionFailed"
	NoReliableBaseline       failure.ErrorCode = "NoReliableBaseline"
	ProviderUnavailable      failure.ErrorCode = "ProviderUnavailable"

	// Scanning.
	ScanInProgress  failure.ErrorCode = "ScanInProgress"
	BudgetExhausted failure.ErrorCode = "BudgetExhausted"

	// Subscribers.
	SubscriberNotFound      failure.ErrorCode = "SubscriberNotFound"
	InvalidSubscriptionType failure.ErrorCode = "InvalidSubscriptionType"
)
