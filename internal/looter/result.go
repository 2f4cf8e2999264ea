package looter

// Outcome classifies how one account's loot attempt ended. Branching logic
// (delay selection, export filtering) keys on the tag, never on the message
// text, which exists only for humans.
type Outcome int

const (
	// OutcomeSuccess: a trade offer was sent and confirmed.
	OutcomeSuccess Outcome = iota
	// OutcomeEmptySource: filtering left nothing worth sending.
	OutcomeEmptySource
	// OutcomeTransientFailure: a remote hiccup (inventory fetch failure,
	// send retries exhausted); a later run may well succeed.
	OutcomeTransientFailure
	// OutcomeHardFailure: the attempt failed in a way retrying won't fix
	// without operator action (bad session, rejected offer, unconfirmed
	// trade).
	OutcomeHardFailure
	// OutcomeDeferred: Steam imposed a trade hold; the account becomes
	// lootable once the hold expires.
	OutcomeDeferred
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmptySource:
		return "empty"
	case OutcomeTransientFailure:
		return "transient"
	case OutcomeHardFailure:
		return "failed"
	case OutcomeDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// LootResult is the immutable outcome of one account attempt.
type LootResult struct {
	Outcome         Outcome
	Message         string
	LootedItemCount int
}

// Success reports whether the attempt moved items.
func (r LootResult) Success() bool { return r.Outcome == OutcomeSuccess }

// Summary aggregates all results of a run.
type Summary struct {
	LootedItems int
	Succeeded   int
	Failed      int
}

func summarize(results []LootResult) Summary {
	var s Summary
	for _, r := range results {
		s.LootedItems += r.LootedItemCount
		if r.Success() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
