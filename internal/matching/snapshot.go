package matching

import (
	"fmt"
	"strings"
)

const snapshotSeparator = "------------------------------------" // 36 dashes

// FormatSnapshot renders the book as the plain-text table described in
// SPEC_FULL.md §4.3: a header row, a 36-dash separator, then one row per
// resting order (side, 8-digit price, 8-digit quantity), bids first in
// ascending-price order, then asks in ascending-price order.
func FormatSnapshot(rows []RestingLevel) []byte {
	var b strings.Builder
	b.WriteString("SIDE      PRICE            QUANTITY\n")
	b.WriteString(snapshotSeparator)
	b.WriteByte('\n')
	for _, row := range rows {
		fmt.Fprintf(&b, "%-8s  %.8f  %.8f\n", row.Side, row.Price, row.Quantity)
	}
	return []byte(b.String())
}
