package domain

// Field sentinels used when a listing panel does not render a value.
// Absence is a valid terminal state, not an error.
const (
	UnknownName = "Unknown"
	NoAddress   = "No Address"
	NoWebsite   = "No Website"
	NoPhone     = "No Phone"
)

// Business is one discovered map listing. Every field is best-effort:
// a failed extraction keeps the default, it never discards the record.
type Business struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Website        string   `json:"website"`
	PhoneNumber    string   `json:"phone_number"`
	ReviewsCount   int      `json:"reviews_count"`
	ReviewsAverage float64  `json:"reviews_average"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`

	// Email is only populated by the batch enrichment stage; the scrape
	// endpoint never fills it.
	Email string `json:"email,omitempty"`
}

// NewBusiness returns a Business with every field at its sentinel default.
func NewBusiness() Business {
	return Business{
		Name:        UnknownName,
		Address:     NoAddress,
		Website:     NoWebsite,
		PhoneNumber: NoPhone,
	}
}

// identityKey is the composite dedup identity. Records that differ only in
// rating/reviews/coordinates are still the same listing.
func (b Business) identityKey() string {
	return b.Name + "\x1f" + b.Address + "\x1f" + b.PhoneNumber
}

// ResultSet is an insertion-ordered collection of Business records with an
// identity ledger rejecting repeats. A record is either fully added (present
// in both the sequence and the ledger) or fully rejected.
type ResultSet struct {
	items []Business
	seen  map[string]struct{}
}

func NewResultSet() *ResultSet {
	return &ResultSet{seen: make(map[string]struct{})}
}

// Add inserts b unless a record with the same (name, address, phone) identity
// was already accepted. Returns true when the record was added.
func (s *ResultSet) Add(b Business) bool {
	key := b.identityKey()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, b)
	return true
}

func (s *ResultSet) Len() int { return len(s.items) }

// Items returns the accepted records in insertion order.
func (s *ResultSet) Items() []Business {
	out := make([]Business, len(s.items))
	copy(out, s.items)
	return out
}
