package model

// Toggle is a single feature flag as delivered by the proxy endpoint:
// already evaluated for the context it was fetched with.
type Toggle struct {
	Name           string  `json:"name"`
	Enabled        bool    `json:"enabled"`
	Variant        Variant `json:"variant"`
	ImpressionData bool    `json:"impressionData"`
}

type Variant struct {
	Name    string   `json:"name"`
	Enabled bool     `json:"enabled"`
	Payload *Payload `json:"payload,omitempty"`
}

type Payload struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ToggleSet is the wire document returned by the proxy endpoint and the
// format of bootstrap files.
type ToggleSet struct {
	Toggles []Toggle `json:"toggles"`
}

// DisabledVariant is returned for toggles missing from the snapshot.
func DisabledVariant() Variant {
	return Variant{Name: "disabled", Enabled: false}
}

// CopyToggles returns a shallow copy of the slice so callers cannot mutate
// a client's snapshot through the returned value. Variant payloads are
// duplicated too since they are held by pointer.
func CopyToggles(toggles []Toggle) []Toggle {
	out := make([]Toggle, len(toggles))
	copy(out, toggles)
	for i := range out {
		if p := out[i].Variant.Payload; p != nil {
			cp := *p
			out[i].Variant.Payload = &cp
		}
	}
	return out
}
