package orders

import (
	"context"
	"strings"
	"testing"

	"github.com/prontoville/crust/internal/cart"
)

func TestExtractCustomerInfo(t *testing.T) {
	cases := []struct {
		message   string
		wantName  string
		wantPhone string
	}{
		{"My name is Ali and phone is 03001234567", "Ali", "03001234567"},
		{"I'm Sara Khan, 0300-1234567", "Sara Khan", "0300-1234567"},
		{"name: Bilal +92 300 1234567", "Bilal", "+92 300 1234567"},
		{"just browsing", "", ""},
	}
	for _, tc := range cases {
		name, phone := ExtractCustomerInfo(tc.message)
		if name != tc.wantName || phone != tc.wantPhone {
			t.Fatalf("ExtractCustomerInfo(%q) = (%q, %q), want (%q, %q)",
				tc.message, name, phone, tc.wantName, tc.wantPhone)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0300-1234567", "03001234567"},
		{"+92 300 1234567", "+923001234567"},
		{"03001234567", "03001234567"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewOrderAndConfirmation(t *testing.T) {
	lines := []cart.Line{
		{Name: "Chicken Tikka", Size: "Large", Price: 1680, Quantity: 1},
		{Name: "Garlic Mayo", Price: 100, Quantity: 2},
	}
	order := NewOrder("Ali", "03001234567", lines)
	if order.ID == "" {
		t.Fatalf("order ID should be generated")
	}
	if order.Total != 1880 {
		t.Fatalf("Total = %v, want 1880", order.Total)
	}
	if order.Status != "pending" {
		t.Fatalf("Status = %q, want pending", order.Status)
	}

	text := FormatConfirmation(order)
	for _, want := range []string{"Order Confirmed", "Ali", "03001234567", "Chicken Tikka (Large) x1", "Rs. 1880"} {
		if !strings.Contains(text, want) {
			t.Fatalf("confirmation missing %q:\n%s", want, text)
		}
	}
}

func TestInMemoryStoreSaveOrder(t *testing.T) {
	s := NewInMemoryStore()
	order := NewOrder("Ali", "03001234567", []cart.Line{{Name: "Chicken Tikka", Price: 1050, Quantity: 1}})
	if err := s.SaveOrder(context.Background(), order); err != nil {
		t.Fatalf("SaveOrder() error = %v", err)
	}
	got := s.Orders()
	if len(got) != 1 || got[0].ID != order.ID {
		t.Fatalf("Orders() = %+v, want the saved order", got)
	}
}
