package inventory

import (
	"fmt"
	"strings"
)

// Kind selects which family of inventory tables a batch lives in.
type Kind string

const (
	KindCherry     Kind = "cherry"
	KindGreenBeans Kind = "greenbeans"
)

type kindTables struct {
	status   string
	movement string
	product  string
}

// Table names are only ever taken from this map, never from input.
var tables = map[Kind]kindTables{
	KindCherry:     {status: "cherry_inventory_status", movement: "cherry_inventory_movements", product: "Cherry"},
	KindGreenBeans: {status: "greenbeans_inventory_status", movement: "greenbeans_inventory_movements", product: "Green Beans"},
}

// ParseKind accepts the path segments used by the HTTP API.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cherry", "cherries":
		return KindCherry, nil
	case "greenbeans", "green-beans", "greenbean":
		return KindGreenBeans, nil
	}
	return "", fmt.Errorf("%w: unknown inventory kind %q", ErrValidation, s)
}

func (k Kind) Valid() bool {
	_, ok := tables[k]
	return ok
}

func (k Kind) statusTable() string   { return tables[k].status }
func (k Kind) movementTable() string { return tables[k].movement }

// ProductLabel is the human label stored on order items.
func (k Kind) ProductLabel() string { return tables[k].product }
