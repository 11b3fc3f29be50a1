package shortener

import "time"

// Hash is the short key identifying a shortened URL.
type Hash string

// ShortURL represents a shortened URL entity.
type ShortURL struct {
	Hash       Hash
	Target     string
	Properties Properties
	CreatedAt  time.Time
}

// Properties holds the mutable trust and configuration data of a short URL.
// A nil Safe or Reachable flag means the check has not completed yet.
type Properties struct {
	Safe             *bool
	Reachable        *bool
	RedirectionLimit *int64 // nil means unlimited
	IP               string
	Sponsor          string
}

// TrustState is derived from the trust flags and is never stored.
type TrustState string

const (
	StateUnvalidated         TrustState = "unvalidated"
	StateRejectedUnsafe      TrustState = "rejected-unsafe"
	StateRejectedUnreachable TrustState = "rejected-unreachable"
	StateAdmitted            TrustState = "admitted"
)

// Validated reports whether both checks have written their result.
func (p Properties) Validated() bool {
	return p.Safe != nil && p.Reachable != nil
}

// State computes the trust state. Reachability wins over safety when both failed,
// matching the order in which the gate evaluates them.
func (s *ShortURL) State() TrustState {
	p := s.Properties

	switch {
	case !p.Validated():
		return StateUnvalidated
	case !*p.Reachable:
		return StateRejectedUnreachable
	case !*p.Safe:
		return StateRejectedUnsafe
	default:
		return StateAdmitted
	}
}

// MarkValidated records the outcome of a validation pass.
func (s *ShortURL) MarkValidated(safe, reachable bool) {
	s.Properties.Safe = &safe
	s.Properties.Reachable = &reachable
}
