package seed

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `restaurant:
  name: Broadway Pizza
  country: Pakistan
  description: Fast casual pizza chain.
  services:
    - Dine-in
    - Delivery
  payment_methods:
    - Cash
    - Card
categories:
  - name: Pizza
    type: main
items:
  - name: Chicken Tikka
    category: Pizza
    description: Tikka chunks with onions.
    sizes: Small,Medium,Large
    price: 1050
deals:
  - name: Midweek Deal
    description: Pizza plus wings.
    items_included: 1 Pizza, 6 Wings
    availability: Mon-Thu
    price: 1899
dips:
  - name: Garlic Mayo
    price: 100
crusts:
  - name: Stuffed Crust
    extra_price: 250
`

func TestParse(t *testing.T) {
	data, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if data.Restaurant.Name != "Broadway Pizza" {
		t.Fatalf("restaurant name = %q, want %q", data.Restaurant.Name, "Broadway Pizza")
	}
	if len(data.Items) != 1 || data.Items[0].Price != 1050 {
		t.Fatalf("items = %+v, want one at 1050", data.Items)
	}
	if len(data.Deals) != 1 || data.Deals[0].ItemsIncluded != "1 Pizza, 6 Wings" {
		t.Fatalf("deals = %+v", data.Deals)
	}
	if len(data.Crusts) != 1 || data.Crusts[0].ExtraPrice != 250 {
		t.Fatalf("crusts = %+v", data.Crusts)
	}
}

func TestParseRejectsEmptyMenu(t *testing.T) {
	if _, err := Parse([]byte(`restaurant: {name: Empty}`)); err == nil {
		t.Fatalf("Parse() expected error for menu without items")
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	if _, err := Parse([]byte("items:\n  - name: [broken")); err == nil {
		t.Fatalf("Parse() expected error for malformed yaml")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	data, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(data.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(data.Items))
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("LoadFile() expected error for missing file")
	}
}
