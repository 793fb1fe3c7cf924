package format

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// JobNumber derives the repair job number from the estimate. Prefers the
// human-assigned estimate number, falling back to a prefix of the id.
func JobNumber(estimateNumber string, estimateID snowflake.ID) string {
	number := strings.TrimSpace(estimateNumber)
	if number == "" {
		id := estimateID.String()
		if len(id) > 8 {
			id = id[:8]
		}
		number = id
	}
	return "EST-" + number
}

// Money renders integer minor units as a dollar string, e.g. 10800 -> "$108.00".
func Money(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s$%d.%02d", sign, amount/100, amount%100)
}

// Percent renders basis points as a percentage, e.g. 825 -> "8.25%".
func Percent(bps int64) string {
	whole := bps / 100
	frac := bps % 100
	if frac < 0 {
		frac = -frac
	}
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return fmt.Sprintf("%d.%02d%%", whole, frac)
}
