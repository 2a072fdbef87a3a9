package logx

const (
	FieldAppName         = "app-name"
	FieldAppVersion      = "app-version"
	FieldDurationMs      = "duration-ms"
	FieldError           = "error"
	FieldErrorCode       = "error-code"
	FieldHTTPMethod      = "http-method"
	FieldHTTPRequest     = "http-request"
	FieldHTTPResponse    = "http-response"
	FieldIP              = "ip"
	FieldRequestBody     = "request-body"
	FieldRequestID       = "request-id"
	FieldResponseBody    = "response-body"
	FieldResponseHeaders = "response-headers"
	FieldResponseStatus  = "response-status"
	FieldStack           = "stack"
	FieldTraceID         = "trace-id"
	FieldURL             = "url"
	FieldSubscriberID    = "subscriber-id"

	FieldScanID     = "scan-id"
	FieldOrigin     = "origin"
	FieldRoute      = "route"
	FieldDealNumber = "deal-number"
	FieldProvider   = "provider"
	FieldTier       = "tier"
	FieldPrice      = "price"
	FieldBaseline   = "baseline"
)
