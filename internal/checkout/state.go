package checkout

// PaymentStatus is the lifecycle state of a transaction. pending is the
// only initial state; paid, failed and refunded are terminal except for
// paid -> refunded.
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusPaid     PaymentStatus = "paid"
	StatusFailed   PaymentStatus = "failed"
	StatusRefunded PaymentStatus = "refunded"
)

// transitions is the full set of allowed status moves. Everything not in
// this table - including re-entering the current state on a redelivered
// webhook - is a guarded no-op, never an error.
var transitions = map[PaymentStatus][]PaymentStatus{
	StatusPending: {StatusPaid, StatusFailed},
	StatusPaid:    {StatusRefunded},
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourceStates lists the states a transaction may be in for a move into
// target. Stores use this to build guarded compare-and-set updates.
func SourceStates(target PaymentStatus) []string {
	var out []string
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == target {
				out = append(out, string(from))
			}
		}
	}
	return out
}
