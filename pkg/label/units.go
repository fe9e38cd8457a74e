// pkg/label/units.go
package label

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Unit is the coordinate unit a label program is authored in.
type Unit string

const (
	// UnitDots addresses the printhead directly.
	UnitDots Unit = "dots"
	// UnitInches converts through the printer DPI.
	UnitInches Unit = "inches"
	// UnitDIP is device-independent pixels, 96 to the inch.
	UnitDIP Unit = "dip"
)

const dipPerInch = 96

// converter turns caller coordinates into printer dots.
type converter struct {
	unit Unit
	dpi  int
}

func newConverter(unit Unit, dpi int) (converter, error) {
	switch unit {
	case "", UnitDots:
		return converter{unit: UnitDots, dpi: dpi}, nil
	case UnitInches, UnitDIP:
		if dpi <= 0 {
			return converter{}, fmt.Errorf("label: unit %q requires a printer dpi", unit)
		}
		return converter{unit: unit, dpi: dpi}, nil
	default:
		return converter{}, fmt.Errorf("label: unknown unit %q", unit)
	}
}

// dots converts one measurement. Decimal arithmetic keeps fractional-inch
// geometry exact instead of accumulating float drift.
func (c converter) dots(v float64) int {
	d := decimal.NewFromFloat(v)
	switch c.unit {
	case UnitInches:
		d = d.Mul(decimal.NewFromInt(int64(c.dpi)))
	case UnitDIP:
		d = d.Mul(decimal.NewFromInt(int64(c.dpi))).Div(decimal.NewFromInt(dipPerInch))
	}
	return int(d.Round(0).IntPart())
}
