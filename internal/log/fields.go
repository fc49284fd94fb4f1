package log

import "cashflow/internal/core"

// Field names shared by every binary so log lines can be grepped uniformly.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldAccount     = "account"
	FieldMovementID  = "movement_id"
	FieldAmount      = "amount"
	FieldKind        = "kind"
	FieldDescription = "description"
)

const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentWorker   = "worker"
	ComponentRollover = "rollover"
	ComponentSecurity = "security"
	ComponentBackend  = "backend"
	ComponentCLI      = "cli"
)

const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpRecord   = "record"
	OpReverse  = "reverse"
	OpTransfer = "transfer"
	OpRollover = "rollover"
	OpSync     = "sync"
	OpExport   = "export"
	OpBackup   = "backup"
	OpShutdown = "shutdown"
)

// Error categories attached to failed requests.
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeDatabase   = "database_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeConflict   = "conflict_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields collects attributes for one log line. The logger's component is
// not a field; use Logger.WithComponent for that.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	if ip != "" {
		f[FieldClientIP] = ip
	}
	return f
}

// WithError is a no-op for a nil error.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMovement adds the journal fields of a movement. Amounts are logged in
// their fixed two-decimal form.
func (f LogFields) WithMovement(m core.Movement) LogFields {
	f[FieldMovementID] = m.ID
	f[FieldAccount] = string(m.Account)
	f[FieldKind] = string(m.Kind)
	f[FieldAmount] = core.FormatAmount(m.Amount)
	f[FieldDescription] = m.Description
	return f
}

// WithRequest adds method and path, plus the query when there is one.
func (f LogFields) WithRequest(method, path, query string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	return f
}

// WithClient adds the user agent and referer when the client sent them.
func (f LogFields) WithClient(userAgent, referer string) LogFields {
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
