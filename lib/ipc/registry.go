// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"maps"
	"slices"
)

// Definition is the type-independent view of a message definition,
// implemented by AsyncMessage and SyncMessage.
type Definition interface {
	Type() uint32
	Name() string
	// LogParams renders the parameters of m, which must be of this
	// definition's type, for traces. Decode failures are rendered,
	// not returned.
	LogParams(m *Message) string
}

// Registry maps type ids to definitions so traces and tooling can name
// messages and render their parameters. A nil *Registry is valid and
// knows no types.
type Registry struct {
	definitions map[uint32]Definition
}

// NewRegistry returns a registry holding definitions.
func NewRegistry(definitions ...Definition) (*Registry, error) {
	registry := &Registry{definitions: make(map[uint32]Definition, len(definitions))}
	for _, definition := range definitions {
		if err := registry.Add(definition); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Add registers definition. Two definitions may not share a type id.
func (r *Registry) Add(definition Definition) error {
	messageType := definition.Type()
	if messageType == HelloMessageType || messageType == LoggingMessageType {
		return fmt.Errorf("registry: %s uses reserved type %s", definition.Name(), TypeString(messageType))
	}
	if existing, ok := r.definitions[messageType]; ok {
		return fmt.Errorf("registry: %s and %s share type %s", existing.Name(), definition.Name(), TypeString(messageType))
	}
	r.definitions[messageType] = definition
	return nil
}

// Lookup returns the definition registered for messageType.
func (r *Registry) Lookup(messageType uint32) (Definition, bool) {
	if r == nil {
		return nil, false
	}
	definition, ok := r.definitions[messageType]
	return definition, ok
}

// Name returns the registered name for messageType, falling back to
// TypeString.
func (r *Registry) Name(messageType uint32) string {
	if definition, ok := r.Lookup(messageType); ok {
		return definition.Name()
	}
	return TypeString(messageType)
}

// LogParams renders the parameters of m, or "" for unregistered types.
// Descriptor parameters are rendered without taking ownership from m.
func (r *Registry) LogParams(m *Message) string {
	definition, ok := r.Lookup(m.Type())
	if !ok {
		return ""
	}
	return definition.LogParams(m.logView())
}

// Definitions returns the registered definitions in type order.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	types := slices.Sorted(maps.Keys(r.definitions))
	definitions := make([]Definition, len(types))
	for i, messageType := range types {
		definitions[i] = r.definitions[messageType]
	}
	return definitions
}
