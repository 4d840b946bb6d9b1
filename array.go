package bddgen

import "fmt"

// Array is a named symbolic byte-array, the source of every ReadExpr (§3).
// Two arrays with the same Name, Domain (index width), Range (result width
// of an elementary read) and Size are considered the same array by the
// solver toolbox's replacement matching (§4.1).
type Array struct {
	ID     uint64
	Name   string
	Domain uint // bit-width of the index
	Range  uint // bit-width of one element
	Size   uint // number of elements
}

// NewArray returns a new Array descriptor.
func NewArray(id uint64, name string, domain, rang, size uint) *Array {
	return &Array{ID: id, Name: name, Domain: domain, Range: rang, Size: size}
}

func (a *Array) String() string {
	return fmt.Sprintf("%s[%d]", a.Name, a.Size)
}

// SameShape reports whether a and other are the "same array" per §3/§4.1:
// agreement on name, domain, range and size. Arrays are value descriptors
// produced by the external parser, so shape equality (not pointer
// equality) is what callers must use.
func (a *Array) SameShape(other *Array) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Name == other.Name && a.Domain == other.Domain &&
		a.Range == other.Range && a.Size == other.Size
}
