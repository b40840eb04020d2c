package database

// Scope bounds an aggregation query to the set of click events a caller is
// permitted to read. The zero value means global scope. LinkID narrows to one
// link; OwnerID narrows to all links owned by one user.
type Scope struct {
	LinkID  string
	OwnerID string
}

// Dimension is a groupable click-event attribute. Values are whitelisted by
// the storage layer before they reach SQL.
type Dimension string

const (
	DimCountry Dimension = "country"
	DimDevice  Dimension = "device"
	DimBrowser Dimension = "browser"
	DimOS      Dimension = "os"
)
