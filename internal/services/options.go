package services

import "strings"

// ProductOptions are the variant fields a product page may submit. Empty
// means the page has no such field.
type ProductOptions struct {
	Size        string
	Dial        string
	Initial     string
	Color       string
	Gift        string // "oui" | "non"
	GiftMessage string // "oui" | "non"
	GiftText    string
}

// Descriptor encodes the selection as "Taille: M | Couleur: Or | ...".
// The gift message only counts when gift wrap is chosen, and its text only
// when a message is requested and non-blank.
func (o ProductOptions) Descriptor() string {
	var parts []string
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, label+": "+v)
		}
	}
	add("Taille", o.Size)
	add("Cadran", o.Dial)
	add("Initiale", o.Initial)
	add("Couleur", o.Color)
	add("Emballage cadeau", o.Gift)
	if o.Gift == "oui" {
		add("Message", o.GiftMessage)
		if o.GiftMessage == "oui" {
			add("Texte", strings.TrimSpace(o.GiftText))
		}
	}
	return strings.Join(parts, " | ")
}
