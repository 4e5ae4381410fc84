package records

import "strings"

// Product is a Stripe product. Products created by this package are found
// again by their url, which is derived from the name.
type Product struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

// ProductURL returns the url used to identify the product with the given
// name: the name without spaces, prefixed by https://.
func ProductURL(name string) string {
	return "https://" + strings.ReplaceAll(name, " ", "")
}
