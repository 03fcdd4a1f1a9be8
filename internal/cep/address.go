package cep

import "time"

// Address is the unified address record returned by every provider.
// Optional fields are nil when the producing provider does not carry them,
// which keeps "unsupported" distinguishable from "empty".
type Address struct {
	CEP          string     `json:"cep"`
	Street       string     `json:"street"`
	Complement   *string    `json:"complement"`
	Neighborhood string     `json:"neighborhood"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	IBGECode     *string    `json:"ibgeCode"`
	GIACode      *string    `json:"giaCode"`
	DDDCode      *string    `json:"dddCode"`
	SIAFICode    *string    `json:"siafiCode"`
	Source       string     `json:"source,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// Optional returns nil for an empty string and a pointer to s otherwise.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// WithProvenance returns a copy of a stamped with the producing provider
// and the fetch time.
func (a Address) WithProvenance(source string, fetchedAt time.Time) Address {
	a.Source = source
	ts := fetchedAt.UTC()
	a.Timestamp = &ts
	return a
}

// SameContent reports whether a and b describe the same address,
// ignoring provenance and fetch time.
func (a Address) SameContent(b Address) bool {
	return a.CEP == b.CEP &&
		a.Street == b.Street &&
		a.Neighborhood == b.Neighborhood &&
		a.City == b.City &&
		a.State == b.State &&
		equalOptional(a.Complement, b.Complement) &&
		equalOptional(a.IBGECode, b.IBGECode) &&
		equalOptional(a.GIACode, b.GIACode) &&
		equalOptional(a.DDDCode, b.DDDCode) &&
		equalOptional(a.SIAFICode, b.SIAFICode)
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
