//go:build rp2040 || rp2350

package pio

var (
	// RP2040/RP2350 have 2 PIO blocks with 4 state machines each
	allocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum  = uint8(0)
	nextSMNum   = uint8(0)
)

// allocate hands out PIO state machines round-robin across both blocks.
// Returns (pioNum, smNum, ok)
func allocate() (uint8, uint8, bool) {
	for i := 0; i < 8; i++ {
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !allocations[pioNum][smNum] {
			allocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}

// AllocationStatus reports which state machines are in use
func AllocationStatus() [2][4]bool {
	return allocations
}
