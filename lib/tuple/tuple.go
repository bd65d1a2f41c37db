// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tuple

// Tuple0 is the empty parameter list.
type Tuple0 struct{}

// Tuple1 holds one value.
type Tuple1[A any] struct {
	A A
}

// Tuple2 holds two values.
type Tuple2[A, B any] struct {
	A A
	B B
}

// Tuple3 holds three values.
type Tuple3[A, B, C any] struct {
	A A
	B B
	C C
}

// Tuple4 holds four values.
type Tuple4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

// Tuple5 holds five values.
type Tuple5[A, B, C, D, E any] struct {
	A A
	B B
	C C
	D D
	E E
}

// Ref1 holds a pointer to one value.
type Ref1[A any] struct {
	A *A
}

// Ref2 holds pointers to two values.
type Ref2[A, B any] struct {
	A *A
	B *B
}

// Ref3 holds pointers to three values.
type Ref3[A, B, C any] struct {
	A *A
	B *B
	C *C
}

// Ref4 holds pointers to four values.
type Ref4[A, B, C, D any] struct {
	A *A
	B *B
	C *C
	D *D
}

// Ref5 holds pointers to five values.
type Ref5[A, B, C, D, E any] struct {
	A *A
	B *B
	C *C
	D *D
	E *E
}

// Pair is a two-element value used by map and pair encodings.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Make1 builds a Tuple1.
func Make1[A any](a A) Tuple1[A] { return Tuple1[A]{a} }

// Make2 builds a Tuple2.
func Make2[A, B any](a A, b B) Tuple2[A, B] { return Tuple2[A, B]{a, b} }

// Make3 builds a Tuple3.
func Make3[A, B, C any](a A, b B, c C) Tuple3[A, B, C] { return Tuple3[A, B, C]{a, b, c} }

// Make4 builds a Tuple4.
func Make4[A, B, C, D any](a A, b B, c C, d D) Tuple4[A, B, C, D] {
	return Tuple4[A, B, C, D]{a, b, c, d}
}

// Make5 builds a Tuple5.
func Make5[A, B, C, D, E any](a A, b B, c C, d D, e E) Tuple5[A, B, C, D, E] {
	return Tuple5[A, B, C, D, E]{a, b, c, d, e}
}

// MakePair builds a Pair.
func MakePair[A, B any](first A, second B) Pair[A, B] { return Pair[A, B]{first, second} }

// Refs returns pointers to the fields of t.
func (t *Tuple1[A]) Refs() Ref1[A] { return Ref1[A]{&t.A} }

// Refs returns pointers to the fields of t.
func (t *Tuple2[A, B]) Refs() Ref2[A, B] { return Ref2[A, B]{&t.A, &t.B} }

// Refs returns pointers to the fields of t.
func (t *Tuple3[A, B, C]) Refs() Ref3[A, B, C] { return Ref3[A, B, C]{&t.A, &t.B, &t.C} }

// Refs returns pointers to the fields of t.
func (t *Tuple4[A, B, C, D]) Refs() Ref4[A, B, C, D] {
	return Ref4[A, B, C, D]{&t.A, &t.B, &t.C, &t.D}
}

// Refs returns pointers to the fields of t.
func (t *Tuple5[A, B, C, D, E]) Refs() Ref5[A, B, C, D, E] {
	return Ref5[A, B, C, D, E]{&t.A, &t.B, &t.C, &t.D, &t.E}
}

// Values dereferences every field of r into a value tuple.
func (r Ref1[A]) Values() Tuple1[A] { return Tuple1[A]{*r.A} }

// Values dereferences every field of r into a value tuple.
func (r Ref2[A, B]) Values() Tuple2[A, B] { return Tuple2[A, B]{*r.A, *r.B} }

// Values dereferences every field of r into a value tuple.
func (r Ref3[A, B, C]) Values() Tuple3[A, B, C] { return Tuple3[A, B, C]{*r.A, *r.B, *r.C} }

// Values dereferences every field of r into a value tuple.
func (r Ref4[A, B, C, D]) Values() Tuple4[A, B, C, D] {
	return Tuple4[A, B, C, D]{*r.A, *r.B, *r.C, *r.D}
}

// Values dereferences every field of r into a value tuple.
func (r Ref5[A, B, C, D, E]) Values() Tuple5[A, B, C, D, E] {
	return Tuple5[A, B, C, D, E]{*r.A, *r.B, *r.C, *r.D, *r.E}
}

// Apply0 adapts a no-argument function to take a Tuple0.
func Apply0(f func()) func(Tuple0) {
	return func(Tuple0) { f() }
}

// Apply1 adapts f to take its argument from a Tuple1.
func Apply1[A any](f func(A)) func(Tuple1[A]) {
	return func(t Tuple1[A]) { f(t.A) }
}

// Apply2 adapts f to take its arguments from a Tuple2.
func Apply2[A, B any](f func(A, B)) func(Tuple2[A, B]) {
	return func(t Tuple2[A, B]) { f(t.A, t.B) }
}

// Apply3 adapts f to take its arguments from a Tuple3.
func Apply3[A, B, C any](f func(A, B, C)) func(Tuple3[A, B, C]) {
	return func(t Tuple3[A, B, C]) { f(t.A, t.B, t.C) }
}

// Apply4 adapts f to take its arguments from a Tuple4.
func Apply4[A, B, C, D any](f func(A, B, C, D)) func(Tuple4[A, B, C, D]) {
	return func(t Tuple4[A, B, C, D]) { f(t.A, t.B, t.C, t.D) }
}

// Apply5 adapts f to take its arguments from a Tuple5.
func Apply5[A, B, C, D, E any](f func(A, B, C, D, E)) func(Tuple5[A, B, C, D, E]) {
	return func(t Tuple5[A, B, C, D, E]) { f(t.A, t.B, t.C, t.D, t.E) }
}

// ApplyMessage1 adapts f, which takes a leading value (typically the raw
// message) plus one parameter.
func ApplyMessage1[M, A any](f func(M, A)) func(M, Tuple1[A]) {
	return func(m M, t Tuple1[A]) { f(m, t.A) }
}

// ApplyMessage2 is ApplyMessage1 for two parameters.
func ApplyMessage2[M, A, B any](f func(M, A, B)) func(M, Tuple2[A, B]) {
	return func(m M, t Tuple2[A, B]) { f(m, t.A, t.B) }
}

// ApplyMessage3 is ApplyMessage1 for three parameters.
func ApplyMessage3[M, A, B, C any](f func(M, A, B, C)) func(M, Tuple3[A, B, C]) {
	return func(m M, t Tuple3[A, B, C]) { f(m, t.A, t.B, t.C) }
}

// ApplyMessage4 is ApplyMessage1 for four parameters.
func ApplyMessage4[M, A, B, C, D any](f func(M, A, B, C, D)) func(M, Tuple4[A, B, C, D]) {
	return func(m M, t Tuple4[A, B, C, D]) { f(m, t.A, t.B, t.C, t.D) }
}

// ApplyMessage5 is ApplyMessage1 for five parameters.
func ApplyMessage5[M, A, B, C, D, E any](f func(M, A, B, C, D, E)) func(M, Tuple5[A, B, C, D, E]) {
	return func(m M, t Tuple5[A, B, C, D, E]) { f(m, t.A, t.B, t.C, t.D, t.E) }
}
