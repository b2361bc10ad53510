package domain

import "time"

// ExpansionRecord is one entry of the append-only expansion history.
type ExpansionRecord struct {
	ID            string
	ParentSlideID string
	ParentTitle   string // snapshot at expansion time
	Lens          Lens
	ChildIDs      []string
	Timestamp     time.Time
}

// Clone returns a copy whose ChildIDs slice is not shared.
func (r ExpansionRecord) Clone() ExpansionRecord {
	r.ChildIDs = cloneStrings(r.ChildIDs)
	return r
}
