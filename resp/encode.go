// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resp

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
)

var crlf = []byte("\r\n")

// Encode serializes m into its wire representation. Encoding is total: every
// well-formed Message produces a self-delimited byte sequence.
func Encode(m Message) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encodeInto(buf, m)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func encodeInto(buf *bytebufferpool.ByteBuffer, m Message) {
	switch m.Type {
	case TypeSimpleString:
		buf.WriteByte(byte(TypeSimpleString))
		buf.WriteString(m.Str)
		buf.Write(crlf)

	case TypeError:
		buf.WriteByte(byte(TypeError))
		buf.WriteString(m.Str)
		buf.Write(crlf)

	case TypeInteger:
		buf.WriteByte(byte(TypeInteger))
		buf.WriteString(strconv.FormatInt(m.Int, 10))
		buf.Write(crlf)

	case TypeBulkString:
		buf.WriteByte(byte(TypeBulkString))
		buf.WriteString(strconv.Itoa(len(m.Bulk)))
		buf.Write(crlf)
		buf.Write(m.Bulk)
		buf.Write(crlf)

	case TypeArray:
		buf.WriteByte(byte(TypeArray))
		buf.WriteString(strconv.Itoa(len(m.Array)))
		buf.Write(crlf)
		for _, el := range m.Array {
			encodeInto(buf, el)
		}

	default: // TypeNull
		buf.WriteString("$-1\r\n")
	}
}
