package cdbg

import "errors"

// ErrIllegalBase means a byte outside the {A,C,G,T} alphabet (case
// insensitive) was encountered while parsing a k-mer.
var ErrIllegalBase = errors.New("cdbg: illegal base, expected A/C/G/T")

// ErrKOverflow means k is not in [1, MaxK], or is even.
var ErrKOverflow = errors.New("cdbg: k must be odd and in [1, MaxK]")

// ErrShortInput means fewer than k bases were available to parse.
var ErrShortInput = errors.New("cdbg: input shorter than k")

// ErrNotConsecutive means a rolling update was attempted between two
// k-mers that are not adjacent in the same read.
var ErrNotConsecutive = errors.New("cdbg: kmers are not consecutive")
