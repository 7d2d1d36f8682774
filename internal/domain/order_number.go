package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// OrderNumberPrefix starts every quote order number
const OrderNumberPrefix = "D"

var orderNumberPattern = regexp.MustCompile(`^D(\d{4})(\d{2})(\d{3,})$`)

// FormatOrderNumber builds D<year><month><increment>, e.g. D202603007.
// The increment is zero-padded to three digits and never truncated.
// Uniqueness of the increment per (year, month) is the repository's job.
func FormatOrderNumber(year, month int, increment int32) string {
	return fmt.Sprintf("%s%04d%02d%03d", OrderNumberPrefix, year, month, increment)
}

// ParseOrderNumber splits an order number into its year, month and increment
func ParseOrderNumber(orderNumber string) (year, month int, increment int32, err error) {
	m := orderNumberPattern.FindStringSubmatch(orderNumber)
	if m == nil {
		return 0, 0, 0, ErrOrderNumberInvalid
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, 0, ErrOrderNumberInvalid
	}
	inc, err := strconv.ParseInt(m[3], 10, 32)
	if err != nil || inc < 1 {
		return 0, 0, 0, ErrOrderNumberInvalid
	}
	return year, month, int32(inc), nil
}
