// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/courier/lib/tuple"
)

// readCount reads a container element count and rejects counts that
// the rest of the payload cannot possibly hold. Every element encoding
// occupies at least one 4-byte slot, so a count above Remaining()/4 is
// malformed. The check runs before anything is allocated.
func readCount(it *Iterator) (int, error) {
	start := it.mark()
	count, err := it.ReadLength()
	if err != nil {
		return 0, err
	}
	if count > it.Remaining()/slotAlignment {
		it.rewind(start)
		return 0, fmt.Errorf("%w: count %d exceeds remaining %d payload bytes", ErrMalformed, count, it.Remaining())
	}
	return count, nil
}

func writeCount(m *Message, count int) {
	m.WriteInt32(int32(count))
}

// Slice returns traits for []T: an int32 count, then each element.
func Slice[T any](element Traits[T]) Traits[[]T] {
	return sliceTraits[T]{element: element}
}

type sliceTraits[T any] struct {
	element Traits[T]
}

func (t sliceTraits[T]) Write(m *Message, values []T) {
	writeCount(m, len(values))
	for _, value := range values {
		t.element.Write(m, value)
	}
}

func (t sliceTraits[T]) Read(it *Iterator) ([]T, error) {
	start := it.mark()
	count, err := readCount(it)
	if err != nil {
		return nil, err
	}
	values := make([]T, 0, count)
	for i := range count {
		value, err := t.element.Read(it)
		if err != nil {
			it.rewind(start)
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		values = append(values, value)
	}
	return values, nil
}

func (t sliceTraits[T]) Log(values []T) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = t.element.Log(value)
	}
	return strings.Join(parts, " ")
}

// Pair returns traits for tuple.Pair: first, then second.
func Pair[A, B any](first Traits[A], second Traits[B]) Traits[tuple.Pair[A, B]] {
	return pairTraits[A, B]{first: first, second: second}
}

type pairTraits[A, B any] struct {
	first  Traits[A]
	second Traits[B]
}

func (t pairTraits[A, B]) Write(m *Message, value tuple.Pair[A, B]) {
	t.first.Write(m, value.First)
	t.second.Write(m, value.Second)
}

func (t pairTraits[A, B]) Read(it *Iterator) (tuple.Pair[A, B], error) {
	start := it.mark()
	first, err := t.first.Read(it)
	if err != nil {
		return tuple.Pair[A, B]{}, err
	}
	second, err := t.second.Read(it)
	if err != nil {
		it.rewind(start)
		return tuple.Pair[A, B]{}, err
	}
	return tuple.MakePair(first, second), nil
}

func (t pairTraits[A, B]) Log(value tuple.Pair[A, B]) string {
	return "(" + t.first.Log(value.First) + ", " + t.second.Log(value.Second) + ")"
}

// Set returns traits for a set represented as map[T]struct{}. Elements
// are written in ascending order so equal sets encode identically; the
// reader does not depend on that order.
func Set[T cmp.Ordered](element Traits[T]) Traits[map[T]struct{}] {
	return setTraits[T]{element: element}
}

type setTraits[T cmp.Ordered] struct {
	element Traits[T]
}

func (t setTraits[T]) Write(m *Message, set map[T]struct{}) {
	elements := sortedKeys(set)
	writeCount(m, len(elements))
	for _, element := range elements {
		t.element.Write(m, element)
	}
}

func (t setTraits[T]) Read(it *Iterator) (map[T]struct{}, error) {
	start := it.mark()
	count, err := readCount(it)
	if err != nil {
		return nil, err
	}
	set := make(map[T]struct{}, count)
	for i := range count {
		element, err := t.element.Read(it)
		if err != nil {
			it.rewind(start)
			return nil, fmt.Errorf("set element %d: %w", i, err)
		}
		set[element] = struct{}{}
	}
	return set, nil
}

func (t setTraits[T]) Log(set map[T]struct{}) string {
	elements := sortedKeys(set)
	parts := make([]string, len(elements))
	for i, element := range elements {
		parts[i] = t.element.Log(element)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Map returns traits for map[K]V: a count, then key and value pairs in
// ascending key order. A repeated key on the wire keeps the last value.
func Map[K cmp.Ordered, V any](key Traits[K], value Traits[V]) Traits[map[K]V] {
	return mapTraits[K, V]{key: key, value: value}
}

type mapTraits[K cmp.Ordered, V any] struct {
	key   Traits[K]
	value Traits[V]
}

func (t mapTraits[K, V]) Write(m *Message, entries map[K]V) {
	keys := sortedKeys(entries)
	writeCount(m, len(keys))
	for _, key := range keys {
		t.key.Write(m, key)
		t.value.Write(m, entries[key])
	}
}

func (t mapTraits[K, V]) Read(it *Iterator) (map[K]V, error) {
	start := it.mark()
	count, err := readCount(it)
	if err != nil {
		return nil, err
	}
	entries := make(map[K]V, count)
	for i := range count {
		key, err := t.key.Read(it)
		if err != nil {
			it.rewind(start)
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		value, err := t.value.Read(it)
		if err != nil {
			it.rewind(start)
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
		entries[key] = value
	}
	return entries, nil
}

func (t mapTraits[K, V]) Log(entries map[K]V) string {
	keys := sortedKeys(entries)
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = t.key.Log(key) + ": " + t.value.Log(entries[key])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys[K cmp.Ordered, V any](entries map[K]V) []K {
	keys := make([]K, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
