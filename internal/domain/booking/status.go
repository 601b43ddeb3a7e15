package booking

import "strings"

type Status string

const (
	StatusPending    Status = "pending"
	StatusAttempted  Status = "attempted"
	StatusAuthorized Status = "authorized"
	StatusRequested  Status = "requested"
	StatusCaptured   Status = "captured"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
	StatusRefunded   Status = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusAttempted, StatusFailed, StatusCancelled},
	StatusAttempted:  {StatusAuthorized, StatusRequested, StatusCaptured, StatusFailed, StatusCancelled, StatusRejected},
	StatusAuthorized: {StatusRequested, StatusCaptured, StatusFailed, StatusCancelled, StatusRejected, StatusRefunded},
	StatusRequested:  {StatusCaptured, StatusFailed, StatusCancelled, StatusRejected, StatusRefunded},
	StatusCaptured:   {StatusCancelled, StatusRejected, StatusRefunded},
}

// CanTransition reports whether the table allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusFailed, StatusCancelled, StatusRejected, StatusRefunded:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok || s.Terminal()
}

type PaymentPreference string

const (
	PreferImmediate PaymentPreference = "immediate"
	PreferDelayed   PaymentPreference = "delayed"
)

// ParsePaymentPreference accepts the two preferences case-insensitively; empty means immediate.
func ParsePaymentPreference(raw string) (PaymentPreference, error) {
	switch PaymentPreference(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PreferImmediate:
		return PreferImmediate, nil
	case PreferDelayed:
		return PreferDelayed, nil
	}
	return "", Invalid("payment_preference", "must be immediate or delayed")
}

// Role identifies which party acted on a booking.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)
