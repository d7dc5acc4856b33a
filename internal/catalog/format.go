package catalog

import (
	"fmt"
	"strings"
)

// The formatters below produce the plain-text fragments merged into the
// generation prompt. Downstream treats them as opaque text.

func FormatInfo(info RestaurantInfo) string {
	if info.Name == "" {
		return "Restaurant information not available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🍕 **%s** (%s)\n\n%s\n\n**Services We Offer:**\n", info.Name, info.Country, info.Description)
	for _, s := range info.Services {
		fmt.Fprintf(&b, "• %s\n", s)
	}
	b.WriteString("\n**Payment Methods:**\n")
	for _, p := range info.PaymentMethods {
		fmt.Fprintf(&b, "• %s\n", p)
	}
	return b.String()
}

func FormatMenu(items []Item, query string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	if query != "" {
		fmt.Fprintf(&b, "🔎 **Found results for '%s':**\n\n", query)
	} else {
		b.WriteString("🍕 **Menu**\n\n")
	}

	byCategory := make(map[string][]Item)
	var order []string
	for _, it := range items {
		if _, ok := byCategory[it.Category]; !ok {
			order = append(order, it.Category)
		}
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}
	for _, cat := range order {
		fmt.Fprintf(&b, "**%s:**\n", cat)
		for _, it := range byCategory[cat] {
			sizeInfo := ""
			if it.Sizes != "" && it.Sizes != "Standard" {
				sizeInfo = fmt.Sprintf(" | Sizes: %s", it.Sizes)
			}
			fmt.Fprintf(&b, "• **%s** - Rs. %d%s\n  _%s_\n", it.Name, int(it.Price), sizeInfo, it.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func FormatDeals(deals []Deal) string {
	if len(deals) == 0 {
		return "No deals available at the moment."
	}
	var b strings.Builder
	b.WriteString("🎁 **Deals**\n\n")
	for _, d := range deals {
		fmt.Fprintf(&b, "**%s** - Rs. %d\n_%s_\nIncludes: %s\nAvailable: %s\n\n",
			d.Name, int(d.Price), d.Description, d.ItemsIncluded, d.Availability)
	}
	return b.String()
}

func FormatExtras(dips []Dip, crusts []Crust) string {
	var b strings.Builder
	b.WriteString("**Dips & Sauces:**\n")
	for _, d := range dips {
		fmt.Fprintf(&b, "• %s - Rs. %d\n", d.Name, int(d.Price))
	}
	b.WriteString("\n**Crust Options:**\n")
	for _, c := range crusts {
		if c.ExtraPrice > 0 {
			fmt.Fprintf(&b, "• %s (+Rs. %d)\n", c.Name, int(c.ExtraPrice))
		} else {
			fmt.Fprintf(&b, "• %s (Standard)\n", c.Name)
		}
	}
	return b.String()
}

func FormatCategories(cats []Category) string {
	if len(cats) == 0 {
		return "No categories found."
	}
	var b strings.Builder
	b.WriteString("**Menu Categories:**\n\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "• %s\n", c.Name)
	}
	b.WriteString("\nAsk me about any category to see items!")
	return b.String()
}
