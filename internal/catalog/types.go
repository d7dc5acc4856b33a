package catalog

import "context"

// RestaurantInfo describes the restaurant itself: services and payment
// methods offered.
type RestaurantInfo struct {
	Name           string   `json:"name" yaml:"name"`
	Country        string   `json:"country" yaml:"country"`
	Description    string   `json:"description" yaml:"description"`
	Services       []string `json:"services" yaml:"services"`
	PaymentMethods []string `json:"payment_methods" yaml:"payment_methods"`
}

type Category struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Item is a single orderable menu entry. Price is in rupees.
type Item struct {
	Name        string  `json:"name" yaml:"name"`
	Category    string  `json:"category" yaml:"category"`
	Description string  `json:"description" yaml:"description"`
	Sizes       string  `json:"sizes" yaml:"sizes"`
	Price       float64 `json:"price" yaml:"price"`
}

type Deal struct {
	Name          string  `json:"name" yaml:"name"`
	Description   string  `json:"description" yaml:"description"`
	ItemsIncluded string  `json:"items_included" yaml:"items_included"`
	Availability  string  `json:"availability" yaml:"availability"`
	Price         float64 `json:"price" yaml:"price"`
}

type Dip struct {
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

type Crust struct {
	Name       string  `json:"name" yaml:"name"`
	ExtraPrice float64 `json:"extra_price" yaml:"extra_price"`
}

// Data is the full seedable catalog, as parsed from the seed file.
type Data struct {
	Restaurant RestaurantInfo `yaml:"restaurant"`
	Categories []Category     `yaml:"categories"`
	Items      []Item         `yaml:"items"`
	Deals      []Deal         `yaml:"deals"`
	Dips       []Dip          `yaml:"dips"`
	Crusts     []Crust        `yaml:"crusts"`
}

// Store reads the menu knowledge base. Query matching is plain substring
// search; anything smarter lives outside this service.
type Store interface {
	Info(ctx context.Context) (RestaurantInfo, error)
	// Items returns all menu items when query is empty, otherwise the items
	// whose name, category or description contain query (case-insensitive).
	Items(ctx context.Context, query string) ([]Item, error)
	Deals(ctx context.Context) ([]Deal, error)
	Dips(ctx context.Context) ([]Dip, error)
	Crusts(ctx context.Context) ([]Crust, error)
	Categories(ctx context.Context) ([]Category, error)
	// FindItem locates a single item (or deal, surfaced as an item in the
	// "Deals" category) by partial name. The second result reports a hit.
	FindItem(ctx context.Context, name string) (Item, bool, error)
	Close() error
}
