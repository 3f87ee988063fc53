package domain

// MasterEntry is one product's classification data from the product
// master. A single entry is usually reachable through several identifier
// keys because a master row exposes multiple code columns (internal code,
// buyer code, barcode) that all normalize into the same entry.
type MasterEntry struct {
	Category    string `json:"category" db:"category" validate:"required"`
	Reference   string `json:"reference,omitempty" db:"reference"`
	Description string `json:"description,omitempty" db:"description"`
}

// MasterIndex maps every known cleaned identifier variant of a product to
// its master entry. It is built incrementally: each processed master file
// is merged into a caller-owned cumulative index, last-merged-wins on key
// collision.
type MasterIndex map[string]MasterEntry

// Merge copies every entry of src into the index, overwriting existing
// keys. The caller must serialize merges; concurrent readers are only
// safe between merge steps.
func (m MasterIndex) Merge(src MasterIndex) {
	for k, v := range src {
		m[k] = v
	}
}

// Clone returns an independent copy, used to hand reconcilers a read-only
// snapshot while the cumulative index keeps accepting merges.
func (m MasterIndex) Clone() MasterIndex {
	out := make(MasterIndex, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
