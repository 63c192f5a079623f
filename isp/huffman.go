package isp

import "io"

// FDBAQ Huffman decoding (S1-IF-ASD-PL-0007, table 5.2-1).
//
// Each decoder consumes an unpacked bit sequence (one bit per byte, values
// 0 or 1) and writes nout sign-and-magnitude codes: the magnitude in the
// low bits with the sign folded into the upper half of the code space
// ([0..magmax, magmax+1..2·magmax+1]), so the +0/-0 distinction survives
// reconstruction. Every sample is one sign bit followed by a variable
// length magnitude code; a zero code bit always terminates earlier than a
// one bit at equal depth.
//
// The return value is the number of input bits consumed, or the negative
// bit position at which the input exhausted before nout samples were
// produced. These run on megabytes of bits per second of telemetry; the
// magnitude trees of BRC 0..2 are pure chains and decode as a counted run
// of ones, BRC 3 and 4 add two-way branches at fixed depths.

// runOfOnes counts consecutive one bits starting at idx, up to max, and
// consumes the terminating zero when the run stops short of max. ok is
// false when the input exhausts first.
func runOfOnes(bits []uint8, idx, max int) (run, next int, ok bool) {
	run = 0
	for run < max {
		if idx >= len(bits) {
			return run, idx, false
		}
		if bits[idx] == 0 {
			return run, idx + 1, true
		}
		run++
		idx++
	}
	return run, idx, true
}

func huffmanBRC0(bits []uint8, nout int, out []uint8) int {
	idx, sample := 0, 0
	for idx < len(bits) && sample < nout {
		sign := bits[idx]
		idx++
		run, next, ok := runOfOnes(bits, idx, 3)
		if !ok {
			return -next
		}
		idx = next
		mag := uint8(run)
		if sign != 0 {
			mag += 4
		}
		out[sample] = mag
		sample++
	}
	if sample != nout {
		return -idx
	}
	return idx
}

func huffmanBRC1(bits []uint8, nout int, out []uint8) int {
	idx, sample := 0, 0
	for idx < len(bits) && sample < nout {
		sign := bits[idx]
		idx++
		run, next, ok := runOfOnes(bits, idx, 4)
		if !ok {
			return -next
		}
		idx = next
		mag := uint8(run)
		if sign != 0 {
			mag += 5
		}
		out[sample] = mag
		sample++
	}
	if sample != nout {
		return -idx
	}
	return idx
}

func huffmanBRC2(bits []uint8, nout int, out []uint8) int {
	idx, sample := 0, 0
	for idx < len(bits) && sample < nout {
		sign := bits[idx]
		idx++
		run, next, ok := runOfOnes(bits, idx, 6)
		if !ok {
			return -next
		}
		idx = next
		mag := uint8(run)
		if sign != 0 {
			mag += 7
		}
		out[sample] = mag
		sample++
	}
	if sample != nout {
		return -idx
	}
	return idx
}

func huffmanBRC3(bits []uint8, nout int, out []uint8) int {
	idx, sample := 0, 0
	for idx < len(bits) && sample < nout {
		sign := bits[idx]
		idx++
		var mag uint8
		run, next, ok := runOfOnes(bits, idx, 8)
		if !ok {
			return -next
		}
		idx = next
		if run == 0 {
			// 00 and 01 share the leading zero
			if idx >= len(bits) {
				return -idx
			}
			mag = bits[idx]
			idx++
		} else if run == 8 {
			mag = 9
		} else {
			mag = uint8(run) + 1
		}
		if sign != 0 {
			mag += 10
		}
		out[sample] = mag
		sample++
	}
	if sample != nout {
		return -idx
	}
	return idx
}

func huffmanBRC4(bits []uint8, nout int, out []uint8) int {
	idx, sample := 0, 0
	for idx < len(bits) && sample < nout {
		sign := bits[idx]
		idx++
		var mag uint8
		run, next, ok := runOfOnes(bits, idx, 9)
		if !ok {
			return -next
		}
		idx = next
		switch run {
		case 0:
			// 00 -> 0, 010 -> 1, 011 -> 2
			if idx >= len(bits) {
				return -idx
			}
			if bits[idx] == 0 {
				mag = 0
				idx++
			} else {
				idx++
				if idx >= len(bits) {
					return -idx
				}
				mag = 1 + bits[idx]
				idx++
			}
		case 1, 2:
			// 10x -> 3/4, 110x -> 5/6
			if idx >= len(bits) {
				return -idx
			}
			mag = uint8(2*run+1) + bits[idx]
			idx++
		case 3, 4, 5:
			mag = uint8(run) + 4
		case 6, 7:
			// 1111110x -> 10/11, 11111110x -> 12/13
			if idx >= len(bits) {
				return -idx
			}
			mag = uint8(2*run-2) + bits[idx]
			idx++
		case 8:
			mag = 14
		default: // run == 9
			mag = 15
		}
		if sign != 0 {
			mag += 16
		}
		out[sample] = mag
		sample++
	}
	if sample != nout {
		return -idx
	}
	return idx
}

// huffmanDecode dispatches to the tree walker for the given BRC.
func huffmanDecode(brc BRCCode, bits []uint8, nout int, out []uint8) (int, error) {
	var n int
	switch brc {
	case BRC0:
		n = huffmanBRC0(bits, nout, out)
	case BRC1:
		n = huffmanBRC1(bits, nout, out)
	case BRC2:
		n = huffmanBRC2(bits, nout, out)
	case BRC3:
		n = huffmanBRC3(bits, nout, out)
	case BRC4:
		n = huffmanBRC4(bits, nout, out)
	default:
		return 0, &InvalidBRCError{Value: uint8(brc)}
	}
	if n < 0 {
		return -n, io.ErrUnexpectedEOF
	}
	return n, nil
}
