// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/courier/lib/tuple"
)

// Tuple traits write their fields in order with no count: the arity is
// part of the message schema, not the wire data.

// field reads one tuple field into *into, keeping the first error.
// Reading stops once an error is recorded.
func field[T any](it *Iterator, err *error, index int, traits Traits[T], into *T) {
	if *err != nil {
		return
	}
	value, readErr := traits.Read(it)
	if readErr != nil {
		*err = fmt.Errorf("field %d: %w", index, readErr)
		return
	}
	*into = value
}

func logFields(parts ...string) string {
	return strings.Join(parts, ", ")
}

// Tuple0Traits returns traits for the empty tuple, which encodes to
// nothing.
func Tuple0Traits() Traits[tuple.Tuple0] { return tuple0Traits{} }

type tuple0Traits struct{}

func (tuple0Traits) Write(*Message, tuple.Tuple0) {}

func (tuple0Traits) Read(*Iterator) (tuple.Tuple0, error) { return tuple.Tuple0{}, nil }

func (tuple0Traits) Log(tuple.Tuple0) string { return "" }

// Tuple1Traits returns traits for a one-field tuple.
func Tuple1Traits[A any](a Traits[A]) Traits[tuple.Tuple1[A]] {
	return tuple1Traits[A]{a: a}
}

type tuple1Traits[A any] struct {
	a Traits[A]
}

func (t tuple1Traits[A]) Write(m *Message, value tuple.Tuple1[A]) {
	t.a.Write(m, value.A)
}

func (t tuple1Traits[A]) Read(it *Iterator) (tuple.Tuple1[A], error) {
	var value tuple.Tuple1[A]
	var err error
	start := it.mark()
	field(it, &err, 0, t.a, &value.A)
	if err != nil {
		it.rewind(start)
		return tuple.Tuple1[A]{}, err
	}
	return value, nil
}

func (t tuple1Traits[A]) Log(value tuple.Tuple1[A]) string {
	return t.a.Log(value.A)
}

// Tuple2Traits returns traits for a two-field tuple.
func Tuple2Traits[A, B any](a Traits[A], b Traits[B]) Traits[tuple.Tuple2[A, B]] {
	return tuple2Traits[A, B]{a: a, b: b}
}

type tuple2Traits[A, B any] struct {
	a Traits[A]
	b Traits[B]
}

func (t tuple2Traits[A, B]) Write(m *Message, value tuple.Tuple2[A, B]) {
	t.a.Write(m, value.A)
	t.b.Write(m, value.B)
}

func (t tuple2Traits[A, B]) Read(it *Iterator) (tuple.Tuple2[A, B], error) {
	var value tuple.Tuple2[A, B]
	var err error
	start := it.mark()
	field(it, &err, 0, t.a, &value.A)
	field(it, &err, 1, t.b, &value.B)
	if err != nil {
		it.rewind(start)
		return tuple.Tuple2[A, B]{}, err
	}
	return value, nil
}

func (t tuple2Traits[A, B]) Log(value tuple.Tuple2[A, B]) string {
	return logFields(t.a.Log(value.A), t.b.Log(value.B))
}

// Tuple3Traits returns traits for a three-field tuple.
func Tuple3Traits[A, B, C any](a Traits[A], b Traits[B], c Traits[C]) Traits[tuple.Tuple3[A, B, C]] {
	return tuple3Traits[A, B, C]{a: a, b: b, c: c}
}

type tuple3Traits[A, B, C any] struct {
	a Traits[A]
	b Traits[B]
	c Traits[C]
}

func (t tuple3Traits[A, B, C]) Write(m *Message, value tuple.Tuple3[A, B, C]) {
	t.a.Write(m, value.A)
	t.b.Write(m, value.B)
	t.c.Write(m, value.C)
}

func (t tuple3Traits[A, B, C]) Read(it *Iterator) (tuple.Tuple3[A, B, C], error) {
	var value tuple.Tuple3[A, B, C]
	var err error
	start := it.mark()
	field(it, &err, 0, t.a, &value.A)
	field(it, &err, 1, t.b, &value.B)
	field(it, &err, 2, t.c, &value.C)
	if err != nil {
		it.rewind(start)
		return tuple.Tuple3[A, B, C]{}, err
	}
	return value, nil
}

func (t tuple3Traits[A, B, C]) Log(value tuple.Tuple3[A, B, C]) string {
	return logFields(t.a.Log(value.A), t.b.Log(value.B), t.c.Log(value.C))
}

// Tuple4Traits returns traits for a four-field tuple.
func Tuple4Traits[A, B, C, D any](a Traits[A], b Traits[B], c Traits[C], d Traits[D]) Traits[tuple.Tuple4[A, B, C, D]] {
	return tuple4Traits[A, B, C, D]{a: a, b: b, c: c, d: d}
}

type tuple4Traits[A, B, C, D any] struct {
	a Traits[A]
	b Traits[B]
	c Traits[C]
	d Traits[D]
}

func (t tuple4Traits[A, B, C, D]) Write(m *Message, value tuple.Tuple4[A, B, C, D]) {
	t.a.Write(m, value.A)
	t.b.Write(m, value.B)
	t.c.Write(m, value.C)
	t.d.Write(m, value.D)
}

func (t tuple4Traits[A, B, C, D]) Read(it *Iterator) (tuple.Tuple4[A, B, C, D], error) {
	var value tuple.Tuple4[A, B, C, D]
	var err error
	start := it.mark()
	field(it, &err, 0, t.a, &value.A)
	field(it, &err, 1, t.b, &value.B)
	field(it, &err, 2, t.c, &value.C)
	field(it, &err, 3, t.d, &value.D)
	if err != nil {
		it.rewind(start)
		return tuple.Tuple4[A, B, C, D]{}, err
	}
	return value, nil
}

func (t tuple4Traits[A, B, C, D]) Log(value tuple.Tuple4[A, B, C, D]) string {
	return logFields(t.a.Log(value.A), t.b.Log(value.B), t.c.Log(value.C), t.d.Log(value.D))
}

// Tuple5Traits returns traits for a five-field tuple.
func Tuple5Traits[A, B, C, D, E any](a Traits[A], b Traits[B], c Traits[C], d Traits[D], e Traits[E]) Traits[tuple.Tuple5[A, B, C, D, E]] {
	return tuple5Traits[A, B, C, D, E]{a: a, b: b, c: c, d: d, e: e}
}

type tuple5Traits[A, B, C, D, E any] struct {
	a Traits[A]
	b Traits[B]
	c Traits[C]
	d Traits[D]
	e Traits[E]
}

func (t tuple5Traits[A, B, C, D, E]) Write(m *Message, value tuple.Tuple5[A, B, C, D, E]) {
	t.a.Write(m, value.A)
	t.b.Write(m, value.B)
	t.c.Write(m, value.C)
	t.d.Write(m, value.D)
	t.e.Write(m, value.E)
}

func (t tuple5Traits[A, B, C, D, E]) Read(it *Iterator) (tuple.Tuple5[A, B, C, D, E], error) {
	var value tuple.Tuple5[A, B, C, D, E]
	var err error
	start := it.mark()
	field(it, &err, 0, t.a, &value.A)
	field(it, &err, 1, t.b, &value.B)
	field(it, &err, 2, t.c, &value.C)
	field(it, &err, 3, t.d, &value.D)
	field(it, &err, 4, t.e, &value.E)
	if err != nil {
		it.rewind(start)
		return tuple.Tuple5[A, B, C, D, E]{}, err
	}
	return value, nil
}

func (t tuple5Traits[A, B, C, D, E]) Log(value tuple.Tuple5[A, B, C, D, E]) string {
	return logFields(t.a.Log(value.A), t.b.Log(value.B), t.c.Log(value.C), t.d.Log(value.D), t.e.Log(value.E))
}
