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

// Package resp implements a streaming encoder/decoder for the tagged,
// length-prefixed, CRLF-framed inline-serialization protocol used by the
// Redis family (RESP).
package resp

// Type identifies which RESP variant a Message carries.
type Type byte

const (
	TypeSimpleString Type = '+'
	TypeError        Type = '-'
	TypeInteger      Type = ':'
	TypeBulkString   Type = '$'
	TypeArray        Type = '*'
	TypeNull         Type = 0
)

// Message is a tagged sum of the six RESP wire variants. Only the field(s)
// relevant to Type are meaningful; the zero Message is a Null.
type Message struct {
	Type  Type
	Str   string    // SimpleString / Error text
	Int   int64     // Integer value
	Bulk  []byte    // BulkString payload
	Array []Message // Array elements
}

// SimpleString constructs a '+' message.
func SimpleString(s string) Message { return Message{Type: TypeSimpleString, Str: s} }

// Error constructs a '-' message.
func Error(s string) Message { return Message{Type: TypeError, Str: s} }

// Integer constructs a ':' message.
func Integer(n int64) Message { return Message{Type: TypeInteger, Int: n} }

// BulkString constructs a '$' message from arbitrary bytes.
func BulkString(b []byte) Message { return Message{Type: TypeBulkString, Bulk: b} }

// BulkStringFrom constructs a '$' message from a string.
func BulkStringFrom(s string) Message { return Message{Type: TypeBulkString, Bulk: []byte(s)} }

// Array constructs a '*' message.
func Array(xs ...Message) Message { return Message{Type: TypeArray, Array: xs} }

// Null is the RESP "$-1\r\n" sentinel.
var Null = Message{Type: TypeNull}

// IsNull reports whether m is the Null variant.
func (m Message) IsNull() bool { return m.Type == TypeNull }
