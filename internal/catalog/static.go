package catalog

import (
	"context"
	"strings"
)

// StaticStore serves the catalog from an in-process snapshot, used for
// local/dev runs without a database.
type StaticStore struct {
	data Data
}

func NewStaticStore(data Data) *StaticStore {
	return &StaticStore{data: data}
}

func (s *StaticStore) Info(_ context.Context) (RestaurantInfo, error) {
	return s.data.Restaurant, nil
}

func (s *StaticStore) Items(_ context.Context, query string) ([]Item, error) {
	if strings.TrimSpace(query) == "" {
		out := make([]Item, len(s.data.Items))
		copy(out, s.data.Items)
		return out, nil
	}
	q := strings.ToLower(query)
	var out []Item
	for _, item := range s.data.Items {
		if strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Category), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *StaticStore) Deals(_ context.Context) ([]Deal, error) {
	out := make([]Deal, len(s.data.Deals))
	copy(out, s.data.Deals)
	return out, nil
}

func (s *StaticStore) Dips(_ context.Context) ([]Dip, error) {
	out := make([]Dip, len(s.data.Dips))
	copy(out, s.data.Dips)
	return out, nil
}

func (s *StaticStore) Crusts(_ context.Context) ([]Crust, error) {
	out := make([]Crust, len(s.data.Crusts))
	copy(out, s.data.Crusts)
	return out, nil
}

func (s *StaticStore) Categories(_ context.Context) ([]Category, error) {
	out := make([]Category, len(s.data.Categories))
	copy(out, s.data.Categories)
	return out, nil
}

func (s *StaticStore) FindItem(_ context.Context, name string) (Item, bool, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return Item{}, false, nil
	}
	for _, item := range s.data.Items {
		if strings.Contains(strings.ToLower(item.Name), q) || strings.Contains(q, strings.ToLower(item.Name)) {
			return item, true, nil
		}
	}
	for _, deal := range s.data.Deals {
		if strings.Contains(strings.ToLower(deal.Name), q) || strings.Contains(q, strings.ToLower(deal.Name)) {
			return Item{Name: deal.Name, Category: "Deals", Price: deal.Price}, true, nil
		}
	}
	return Item{}, false, nil
}

func (s *StaticStore) Close() error { return nil }
