package entity

// SessionPhase is one of the four trading-session windows in a calendar day.
// Every instant maps to exactly one phase.
type SessionPhase int

const (
	PhaseClosed SessionPhase = iota
	PhasePreMarket
	PhaseRegular
	PhasePostMarket
)

func (p SessionPhase) String() string {
	switch p {
	case PhasePreMarket:
		return "pre_market"
	case PhaseRegular:
		return "regular"
	case PhasePostMarket:
		return "post_market"
	default:
		return "closed"
	}
}

// Tradeable reports whether orders may be dispatched during the phase.
func (p SessionPhase) Tradeable() bool {
	return p != PhaseClosed
}

// LoginStatus mirrors the broker session lifecycle.
type LoginStatus int

const (
	LoginDefault LoginStatus = iota
	LoginFailed
	LoginSuccess
	LoggedIn
	LoggedOut
)

func (s LoginStatus) String() string {
	switch s {
	case LoginFailed:
		return "failed"
	case LoginSuccess:
		return "success"
	case LoggedIn:
		return "logged_in"
	case LoggedOut:
		return "logged_out"
	default:
		return "default"
	}
}
