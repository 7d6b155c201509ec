package contextasm

import (
	"encoding/json"
	"strings"
)

// jsonItem is one entry of the JSON manifest's "items" array (spec.md §6.4).
type jsonItem struct {
	ID      string `json:"id"`
	Tokens  int    `json:"tokens"`
	Content string `json:"content"`
}

// jsonOutput mirrors spec.md §6.4's exact JSON shape. Tier is rendered as
// null when no tier preset was used; OK/Reason are present only on the error
// states "no_symbols"/"no_matches".
type jsonOutput struct {
	Model                string     `json:"model"`
	Budget               int        `json:"budget"`
	TotalTokens          int        `json:"total_tokens"`
	Tier                 *string    `json:"tier"`
	EffectiveLimit       int        `json:"effective_limit"`
	EffectiveTopPerQuery int        `json:"effective_top_per_query"`
	Items                []jsonItem `json:"items"`
	OK                   *bool      `json:"ok,omitempty"`
	Reason               string     `json:"reason,omitempty"`
}

// RenderJSON renders Output as the stable JSON manifest spec.md §6.4
// specifies. Identical Output values always render identical bytes.
func (o *Output) RenderJSON() ([]byte, error) {
	jo := jsonOutput{
		Model:                o.Model,
		Budget:               o.Budget,
		TotalTokens:          o.TotalTokens,
		EffectiveLimit:       o.EffectiveLimit,
		EffectiveTopPerQuery: o.EffectiveTopPerQuery,
	}
	if o.Tier != TierNone {
		tier := string(o.Tier)
		jo.Tier = &tier
	}
	if !o.OK {
		ok := false
		jo.OK = &ok
		jo.Reason = o.Reason
	}

	jo.Items = make([]jsonItem, len(o.Items))
	for i, it := range o.Items {
		jo.Items[i] = jsonItem{ID: it.ID, Tokens: it.Tokens, Content: it.Content}
	}

	return json.Marshal(jo)
}

// RenderText concatenates fitted item contents in order, for plain-text
// context output.
func (o *Output) RenderText() string {
	var b strings.Builder
	for i, it := range o.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(it.Content)
	}
	return b.String()
}
