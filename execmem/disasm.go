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
package execmem

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"
)

// Disasm decodes a flat binary blob back into GNU-syntax assembly, one
// instruction per line with its offset. Debugging aid: what the loader is
// about to map is easier to eyeball than a hex dump.
//
// Decoding stops at the first undecodable byte. The blob may carry the
// .rodata pool behind the code, interned doubles are not instructions, so
// a trailing decode error after a ret is expected and not reported.
func Disasm(code []byte) (string, error) {
	var sb strings.Builder
	pc := uint64(0)
	sawRet := false
	for len(code) > 0 {
		inst, err := x86asm.Decode(code, 64)
		if err != nil {
			if sawRet {
				return sb.String(), nil
			}
			return sb.String(), errors.Wrapf(err, "undecodable byte at offset %#x", pc)
		}
		sb.WriteString(fmt.Sprintf("%4x:\t%s\n", pc, x86asm.GNUSyntax(inst, pc, nil)))
		if inst.Op == x86asm.RET {
			sawRet = true
		}
		code = code[inst.Len:]
		pc += uint64(inst.Len)
	}
	return sb.String(), nil
}
