// Copyright (c) 2025 The Pycc Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/rw89fayv37/pycc/compile"
	"github.com/rw89fayv37/pycc/execmem"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: pycc source.pc [arg...]")
		os.Exit(1)
	}
	source := os.Args[1]

	program, err := compile.CompileFile(source)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("pycc: compiling function '%s'\n", program.Name)
	fmt.Printf("%s", program.Asm)

	if len(os.Args) == 2 {
		return
	}

	// Arguments given, assemble, load and call the function with them
	args := make([]float64, 0, len(os.Args)-2)
	for _, arg := range os.Args[2:] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			log.Fatalf("argument %q is not a double", arg)
		}
		args = append(args, v)
	}

	if !compile.ToolchainAvailable() {
		log.Fatal("pycc requires gnu as and ld to be installed")
	}
	if !execmem.Supported() {
		log.Fatal("this platform can not execute compiled code")
	}

	buildDir, err := os.MkdirTemp("", "pycc_")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(buildDir)

	bin, err := program.AssembleAndLink(buildDir)
	if err != nil {
		log.Fatal(err)
	}

	fn, err := execmem.Load(program.Name, bin, program.Descriptor.NumArgs())
	if err != nil {
		log.Fatal(err)
	}
	defer fn.Release()
	fmt.Printf("\tmmaped executable space at %#x\n", fn.Entry())
	fmt.Printf("\tfunction has been mapped to '%s'\n",
		program.Descriptor.CPrototype(program.Name))

	result, err := fn.Call(args...)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s(%v) = %v\n", program.Name, args, result)
}
