package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// BirdCategory is assigned at ingestion time (keyword classification on
// farm/truck/DO number) and never re-derived by the reporting engine.
type BirdCategory string

const (
	BirdCategoryBroiler BirdCategory = "Broiler"
	BirdCategoryBreeder BirdCategory = "Breeder"
)

func (c BirdCategory) Valid() bool {
	return c == BirdCategoryBroiler || c == BirdCategoryBreeder
}

func (c BirdCategory) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid bird category %q", string(c))
	}
	return string(c), nil
}

func (c *BirdCategory) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*c = BirdCategory(v)
	case []byte:
		*c = BirdCategory(v)
	default:
		return errors.New("bird category must be string")
	}
	if !c.Valid() {
		return fmt.Errorf("invalid bird category %q", string(*c))
	}
	return nil
}
