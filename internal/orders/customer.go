package orders

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prontoville/crust/internal/cart"
)

// Pakistani mobile numbers: optional +92/0 prefix, a 3xx network code, seven
// digits, spaces or dashes tolerated.
var phonePattern = regexp.MustCompile(`(\+?92|0)?[-\s]?3\d{2}[-\s]?\d{7}`)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:my name is|i'm|i am|name:?)\s+([A-Za-z]+(?:\s+[A-Za-z]+)?)`),
	regexp.MustCompile(`^([A-Za-z]+(?:\s+[A-Za-z]+)?)\s+(?:and|,)`),
}

// ExtractCustomerInfo pulls a customer name and phone number out of a free-form
// checkout message. Either result may be empty when not found.
func ExtractCustomerInfo(message string) (name, phone string) {
	if m := phonePattern.FindString(message); m != "" {
		phone = strings.TrimSpace(m)
	}
	for _, pattern := range namePatterns {
		if m := pattern.FindStringSubmatch(message); m != nil {
			name = trimConnector(strings.TrimSpace(m[1]))
			break
		}
	}
	return name, phone
}

// trimConnector drops a trailing filler word the greedy two-word capture can
// swallow, as in "my name is Ali and phone is ...".
func trimConnector(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 2 {
		switch strings.ToLower(parts[1]) {
		case "and", "phone", "number", "contact", "my":
			return parts[0]
		}
	}
	return name
}

// NormalizePhone strips separators so the same number always maps to the same
// identity regardless of how the customer typed it.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatConfirmation renders the order confirmation shown to the customer.
func FormatConfirmation(order Order) string {
	var b strings.Builder
	b.WriteString("✅ **Order Confirmed!**\n\n")
	fmt.Fprintf(&b, "**Order ID:** #%s\n", order.ID)
	fmt.Fprintf(&b, "**Name:** %s\n", order.CustomerName)
	fmt.Fprintf(&b, "**Phone:** %s\n", order.CustomerPhone)
	fmt.Fprintf(&b, "**Time:** %s\n\n", order.CreatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("**Items Ordered:**\n")
	for _, l := range order.Lines {
		sizeInfo := ""
		if l.Size != "" {
			sizeInfo = fmt.Sprintf(" (%s)", l.Size)
		}
		fmt.Fprintf(&b, "• %s%s x%d - Rs. %d\n", l.Name, sizeInfo, l.Quantity, int(l.Price*float64(l.Quantity)))
	}
	fmt.Fprintf(&b, "\n**Total Amount:** Rs. %d\n**Status:** Pending\n\n", int(cart.Total(order.Lines)))
	b.WriteString("Thank you for your order! It will be prepared shortly.\n")
	b.WriteString("**Payment:** Cash on Delivery / Card at doorstep\n")
	return b.String()
}
