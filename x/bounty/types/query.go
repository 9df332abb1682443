package types

const (
	DefaultHackPageLimit = 50
	MaxHackPageLimit     = 200
)

// QueryHacksRequest pages through the ledger in sequence order. A response's
// NextKey can be passed back as StartAfter to resume.
type QueryHacksRequest struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      uint32  `json:"limit,omitempty"`
}

// EffectiveLimit clamps Limit to the page bounds.
func (r QueryHacksRequest) EffectiveLimit() int {
	switch {
	case r.Limit == 0:
		return DefaultHackPageLimit
	case r.Limit > MaxHackPageLimit:
		return MaxHackPageLimit
	default:
		return int(r.Limit)
	}
}

type QueryHacksResponse struct {
	Hacks   []HackRecord `json:"hacks"`
	NextKey *uint64      `json:"next_key,omitempty"`
}
