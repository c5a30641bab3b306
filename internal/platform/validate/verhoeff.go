// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package validate

// # Verhoeff Checksum
//
// The national ID number embeds a Verhoeff check digit. The scheme is built on
// the dihedral group D5: unlike a plain mod-10 sum it detects ALL single-digit
// errors and most adjacent transpositions. The tables below are fixed
// constants of the algorithm, not derived values.

// verhoeffD is the multiplication table of the dihedral group D5.
var verhoeffD = [10][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
	{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
	{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
	{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
	{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
	{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
	{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
	{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
	{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
}

// verhoeffP is the position-dependent permutation table (period 8).
var verhoeffP = [8][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
	{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
	{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
	{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
	{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
	{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
	{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
}

// IsNationalID reports whether the value is a structurally valid 12-digit
// national ID number.
//
// # Algorithm
//
// Digits are processed from least- to most-significant, folding each through
// the permutation table into an accumulator via the D5 multiplication table.
// The number is valid iff the accumulator ends at the group identity (0).
func IsNationalID(value string) bool {
	if len(value) != 12 {
		return false
	}

	checksum := 0
	for i := 0; i < len(value); i++ {
		// Walk from the rightmost character (the check digit, position 0).
		c := value[len(value)-1-i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		checksum = verhoeffD[checksum][verhoeffP[i%8][digit]]
	}

	return checksum == 0
}
