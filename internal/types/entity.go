package types

// Entity is one tagged span extracted from the user's message.
type Entity struct {
	Entity         string      `json:"entity"`
	Value          any         `json:"value"`
	Text           string      `json:"text,omitempty"`
	Start          int         `json:"start,omitempty"`
	End            int         `json:"end,omitempty"`
	Extractor      string      `json:"extractor,omitempty"`
	AdditionalInfo *Annotation `json:"additional_info,omitempty"`
}

// Annotation is the structured payload an entity recogniser attaches to a
// time, money or number entity.
//
// Time values carry Type "value" with Value+Grain, or Type "interval" with
// From and/or To. Money values carry a numeric Value and a Unit.
type Annotation struct {
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
	Grain string `json:"grain,omitempty"`
	Unit  string `json:"unit,omitempty"`
	From  *Bound `json:"from,omitempty"`
	To    *Bound `json:"to,omitempty"`
}

// Bound is one end of a time interval.
type Bound struct {
	Value string `json:"value,omitempty"`
	Grain string `json:"grain,omitempty"`
}

// Info returns the entity's annotation, or an empty one.
func (e Entity) Info() Annotation {
	if e.AdditionalInfo == nil {
		return Annotation{}
	}
	return *e.AdditionalInfo
}
