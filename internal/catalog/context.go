package catalog

import (
	"context"
	"strings"
)

// stopWords are filtered out of the message before keyword search so that
// "I want a..." does not match the entire menu.
var stopWords = map[string]struct{}{
	"i": {}, "want": {}, "a": {}, "the": {}, "please": {}, "can": {},
	"you": {}, "give": {}, "me": {}, "show": {}, "is": {}, "of": {},
	"do": {}, "have": {},
}

// ContextBuilder turns a raw customer message into the database-backed text
// fragments that ground the generation prompt.
type ContextBuilder struct {
	store Store
}

func NewContextBuilder(store Store) *ContextBuilder {
	return &ContextBuilder{store: store}
}

// Keywords extracts searchable keywords from message.
func Keywords(message string) []string {
	var out []string
	for _, word := range strings.Fields(strings.ToLower(message)) {
		word = strings.Trim(word, ".,!?'\"")
		if len(word) <= 2 {
			continue
		}
		if _, skip := stopWords[word]; skip {
			continue
		}
		out = append(out, word)
	}
	return out
}

// Build fetches everything relevant to message and concatenates the formatted
// fragments. Lookup failures skip the fragment rather than failing the turn;
// the reply degrades to less grounding, not an error.
func (b *ContextBuilder) Build(ctx context.Context, message string) string {
	lower := strings.ToLower(message)
	var parts []string

	appendUnique := func(fragment string) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			return
		}
		for _, p := range parts {
			if p == fragment {
				return
			}
		}
		parts = append(parts, fragment)
	}

	for _, keyword := range Keywords(message) {
		items, err := b.store.Items(ctx, keyword)
		if err != nil || len(items) == 0 {
			continue
		}
		appendUnique(FormatMenu(items, keyword))
	}

	if strings.Contains(lower, "menu") || strings.Contains(lower, "food") {
		if items, err := b.store.Items(ctx, ""); err == nil {
			appendUnique(FormatMenu(items, ""))
		}
	}

	if containsAny(lower, "deal", "offer", "combo") {
		if deals, err := b.store.Deals(ctx); err == nil {
			appendUnique(FormatDeals(deals))
		}
	}

	if containsAny(lower, "dip", "sauce", "crust", "extra") {
		dips, derr := b.store.Dips(ctx)
		crusts, cerr := b.store.Crusts(ctx)
		if derr == nil && cerr == nil {
			appendUnique(FormatExtras(dips, crusts))
		}
	}

	if containsAny(lower, "service", "delivery", "payment", "pay", "about", "info", "location", "contact") {
		if info, err := b.store.Info(ctx); err == nil {
			appendUnique(FormatInfo(info))
		}
	}

	if containsAny(lower, "categor", "types", "kinds") {
		if cats, err := b.store.Categories(ctx); err == nil {
			appendUnique(FormatCategories(cats))
		}
	}

	return strings.Join(parts, "\n")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
