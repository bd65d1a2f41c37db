// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import "fmt"

// MessageStart names a message family. Each family owns the block of
// type ids whose upper 16 bits equal its value, so a type id alone
// identifies the declaring subsystem. Values are wire constants: new
// families are appended before LastStart, never inserted.
type MessageStart uint16

const (
	AutomationStart MessageStart = iota
	ViewStart
	ViewHostStart
	PluginProcessStart
	PluginProcessHostStart
	PluginStart
	PluginHostStart
	ProfileImportProcessStart
	ProfileImportProcessHostStart
	NPObjectStart
	TestStart
	DevToolsAgentStart
	DevToolsClientStart
	WorkerProcessStart
	WorkerProcessHostStart
	WorkerStart
	WorkerHostStart
	NaClProcessStart
	GpuCommandBufferStart
	UtilityStart
	UtilityHostStart
	GpuStart
	GpuHostStart
	GpuChannelStart
	GpuVideoDecoderHostStart
	GpuVideoDecoderStart
	ServiceStart
	ServiceHostStart
	LastStart
)

var messageStartNames = [...]string{
	AutomationStart:               "Automation",
	ViewStart:                     "View",
	ViewHostStart:                 "ViewHost",
	PluginProcessStart:            "PluginProcess",
	PluginProcessHostStart:        "PluginProcessHost",
	PluginStart:                   "Plugin",
	PluginHostStart:               "PluginHost",
	ProfileImportProcessStart:     "ProfileImportProcess",
	ProfileImportProcessHostStart: "ProfileImportProcessHost",
	NPObjectStart:                 "NPObject",
	TestStart:                     "Test",
	DevToolsAgentStart:            "DevToolsAgent",
	DevToolsClientStart:           "DevToolsClient",
	WorkerProcessStart:            "WorkerProcess",
	WorkerProcessHostStart:        "WorkerProcessHost",
	WorkerStart:                   "Worker",
	WorkerHostStart:               "WorkerHost",
	NaClProcessStart:              "NaClProcess",
	GpuCommandBufferStart:         "GpuCommandBuffer",
	UtilityStart:                  "Utility",
	UtilityHostStart:              "UtilityHost",
	GpuStart:                      "Gpu",
	GpuHostStart:                  "GpuHost",
	GpuChannelStart:               "GpuChannel",
	GpuVideoDecoderHostStart:      "GpuVideoDecoderHost",
	GpuVideoDecoderStart:          "GpuVideoDecoder",
	ServiceStart:                  "Service",
	ServiceHostStart:              "ServiceHost",
}

func (s MessageStart) String() string {
	if int(s) < len(messageStartNames) {
		return messageStartNames[s]
	}
	return fmt.Sprintf("MessageStart(%d)", uint16(s))
}

// MessageType composes a type id from a family and an ordinal within
// it.
func MessageType(start MessageStart, ordinal uint16) uint32 {
	return uint32(start)<<16 | uint32(ordinal)
}

// TypeStart returns the family that declared messageType. ok is false
// for reserved types and ids outside every family block.
func TypeStart(messageType uint32) (start MessageStart, ok bool) {
	start = MessageStart(messageType >> 16)
	if start >= LastStart {
		return 0, false
	}
	return start, true
}

// TypeOrdinal returns the ordinal of messageType within its family.
func TypeOrdinal(messageType uint32) uint16 {
	return uint16(messageType)
}

// TypeString renders a type id as "Family#ordinal", or a reserved
// name, or hex for ids outside every family.
func TypeString(messageType uint32) string {
	switch messageType {
	case HelloMessageType:
		return "Hello"
	case LoggingMessageType:
		return "Logging"
	}
	if start, ok := TypeStart(messageType); ok {
		return fmt.Sprintf("%s#%d", start, TypeOrdinal(messageType))
	}
	return fmt.Sprintf("0x%08x", messageType)
}
