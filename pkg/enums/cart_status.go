package enums

// CartStatus is the backend lifecycle of a cart. A tenant has at most one
// active cart; checkout converts it and the next add opens a new one.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
)

func (c CartStatus) String() string {
	return string(c)
}

// Open reports whether lines may still be added. An empty status is treated
// as active since older backends omit the field.
func (c CartStatus) Open() bool {
	return c == "" || c == CartStatusActive
}
