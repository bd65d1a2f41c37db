// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ignore

// gen_apply_out writes apply_out.go: one ApplyOut{N}x{M} adapter for
// every combination of 0..5 input and 0..5 output parameters.
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"strings"
)

const maxArity = 5

var (
	inputParams  = []string{"A", "B", "C", "D", "E"}
	outputParams = []string{"R1", "R2", "R3", "R4", "R5"}
	fieldNames   = []string{"A", "B", "C", "D", "E"}
)

func tupleType(params []string) string {
	if len(params) == 0 {
		return "Tuple0"
	}
	return fmt.Sprintf("Tuple%d[%s]", len(params), strings.Join(params, ", "))
}

func main() {
	var buffer bytes.Buffer
	buffer.WriteString("// Copyright 2026 The Bureau Authors\n")
	buffer.WriteString("// SPDX-License-Identifier: Apache-2.0\n\n")
	buffer.WriteString("// Code generated by gen_apply_out.go. DO NOT EDIT.\n\n")
	buffer.WriteString("package tuple\n\n")

	for inputs := 0; inputs <= maxArity; inputs++ {
		for outputs := 0; outputs <= maxArity; outputs++ {
			in := inputParams[:inputs]
			out := outputParams[:outputs]

			typeParams := ""
			if all := append(append([]string{}, in...), out...); len(all) > 0 {
				typeParams = fmt.Sprintf("[%s any]", strings.Join(all, ", "))
			}

			arguments := append([]string{}, in...)
			for _, param := range out {
				arguments = append(arguments, "*"+param)
			}

			inName, outName := "_", "_"
			if inputs > 0 {
				inName = "in"
			}
			if outputs > 0 {
				outName = "out"
			}

			var call []string
			for i := 0; i < inputs; i++ {
				call = append(call, "in."+fieldNames[i])
			}
			for i := 0; i < outputs; i++ {
				call = append(call, "&out."+fieldNames[i])
			}

			name := fmt.Sprintf("ApplyOut%dx%d", inputs, outputs)
			fmt.Fprintf(&buffer, "// %s adapts f to take %d input(s) from a tuple and write %d output(s)\n", name, inputs, outputs)
			buffer.WriteString("// through pointers into the fields of the output tuple.\n")
			fmt.Fprintf(&buffer, "func %s%s(f func(%s)) func(%s, *%s) {\n",
				name, typeParams, strings.Join(arguments, ", "), tupleType(in), tupleType(out))
			fmt.Fprintf(&buffer, "\treturn func(%s %s, %s *%s) {\n", inName, tupleType(in), outName, tupleType(out))
			fmt.Fprintf(&buffer, "\t\tf(%s)\n", strings.Join(call, ", "))
			buffer.WriteString("\t}\n}\n\n")
		}
	}

	source, err := format.Source(buffer.Bytes())
	if err != nil {
		fmt.Fprintf(os.Stderr, "gofmt: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("apply_out.go", source, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "writing apply_out.go: %v\n", err)
		os.Exit(1)
	}
}
