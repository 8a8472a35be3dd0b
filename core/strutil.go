package core

import "strconv"

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	return strconv.Itoa(n)
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}

// ftoa formats a float with up to six significant decimals
func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// ftoaFixed formats a float with a fixed number of decimals
func ftoaFixed(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}
