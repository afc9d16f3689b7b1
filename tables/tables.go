// Package tables builds the inverse lookup tables used to undo the
// firmware-side LFSR and Gray encodings applied to Timepix3 hit fields.
//
// All four tables are process-wide read-only once built: a single *Tables
// value is shared by pointer across every decode-phase worker, the way the
// teacher shares a read-only *kcp.Tables-style block cipher across sessions
// instead of rebuilding it per connection.
package tables

import "sync"

// Tables holds the four inverse lookup tables, each indexed by the raw
// (encoded) field value and yielding the decoded value.
type Tables struct {
	LFSR4  []uint16 // 16 entries
	LFSR10 []uint16 // 1024 entries
	LFSR14 []uint16 // 16384 entries
	Gray14 []uint16 // 16384 entries
}

var (
	once     sync.Once
	instance *Tables
)

// New returns the shared, lazily-built set of decode tables. The underlying
// build runs exactly once per process; subsequent calls return the same
// pointer.
func New() *Tables {
	once.Do(func() {
		instance = &Tables{
			LFSR4:  lfsr4Inverse(),
			LFSR10: lfsr10Inverse(),
			LFSR14: lfsr14Inverse(),
			Gray14: gray14Inverse(),
		}
	})
	return instance
}

// lfsr4Inverse builds the inverse of the 4-bit maximum-length LFSR used for
// HitCounter. The recurrence (starting state all-ones) is taken bit for bit
// from the reference firmware's shift sequence: every bit moves up one
// stage, and the incoming bottom bit is the outgoing top bit XORed with the
// bit that has just moved into the top stage.
func lfsr4Inverse() []uint16 {
	const n = 4
	table := make([]uint16, 1<<n)
	state := uint16(1<<n - 1)
	for i := 0; i < 1<<n; i++ {
		table[state] = uint16(i)

		b3 := (state >> 3) & 1
		b2 := (state >> 2) & 1
		b1 := (state >> 1) & 1
		b0 := (state >> 0) & 1

		dummy := b3
		newB3 := b2
		newB2 := b1
		newB1 := b0
		newB0 := newB3 ^ dummy

		state = newB3<<3 | newB2<<2 | newB1<<1 | newB0
	}
	table[1<<n-1] = 0
	return table
}

// lfsr10Inverse builds the inverse of the 10-bit LFSR used for ToT and
// EventCounter.
func lfsr10Inverse() []uint16 {
	const n = 10
	table := make([]uint16, 1<<n)
	state := uint16(1<<n - 1)
	for i := 0; i < 1<<n; i++ {
		table[state] = uint16(i)

		bit := func(k uint) uint16 { return (state >> k) & 1 }

		dummy := bit(9)
		newB9 := bit(8)
		newB8 := bit(7)
		newB7 := bit(6)
		newB6 := bit(5)
		newB5 := bit(4)
		newB4 := bit(3)
		newB3 := bit(2)
		newB2 := bit(1)
		newB1 := bit(0)
		newB0 := newB7 ^ dummy

		state = newB9<<9 | newB8<<8 | newB7<<7 | newB6<<6 | newB5<<5 |
			newB4<<4 | newB3<<3 | newB2<<2 | newB1<<1 | newB0
	}
	table[1<<n-1] = 0
	return table
}

// lfsr14Inverse builds the inverse of the 14-bit LFSR used for iToT.
func lfsr14Inverse() []uint16 {
	const n = 14
	table := make([]uint16, 1<<n)
	state := uint16(1<<n - 1)
	for i := 0; i < 1<<n; i++ {
		table[state] = uint16(i)

		bit := func(k uint) uint16 { return (state >> k) & 1 }

		dummy := bit(13)
		newB13 := bit(12)
		newB12 := bit(11)
		newB11 := bit(10)
		newB10 := bit(9)
		newB9 := bit(8)
		newB8 := bit(7)
		newB7 := bit(6)
		newB6 := bit(5)
		newB5 := bit(4)
		newB4 := bit(3)
		newB3 := bit(2)
		newB2 := bit(1)
		newB1 := bit(0)
		newB0 := newB2 ^ dummy ^ newB12 ^ newB13

		state = newB13<<13 | newB12<<12 | newB11<<11 | newB10<<10 | newB9<<9 |
			newB8<<8 | newB7<<7 | newB6<<6 | newB5<<5 | newB4<<4 |
			newB3<<3 | newB2<<2 | newB1<<1 | newB0
	}
	table[1<<n-1] = 0
	return table
}

// gray14Inverse builds the standard Gray-to-binary conversion table for a
// 14-bit field: the top bit passes through unchanged, every lower bit is the
// XOR of the already-decoded bit above it with the corresponding Gray bit.
func gray14Inverse() []uint16 {
	const n = 14
	table := make([]uint16, 1<<n)
	for j := 0; j < 1<<n; j++ {
		encoded := uint16(j)
		var out uint16
		outBit := (encoded >> (n - 1)) & 1
		out |= outBit << (n - 1)
		for i := n - 2; i >= 0; i-- {
			outBit ^= (encoded >> uint(i)) & 1
			out |= outBit << uint(i)
		}
		table[j] = out
	}
	return table
}
