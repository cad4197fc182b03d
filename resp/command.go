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

import "github.com/pkg/errors"

var (
	errNotArray    = errors.New("resp: not an array")
	errNotCommand  = errors.New("resp: first array element is not a command name")
	errNotStringer = errors.New("resp: not a SimpleString or BulkString")
)

// ToCommand extracts a command name and argument list from m. It succeeds
// only when m is an Array whose first element is a BulkString; the
// remaining elements become the argument list.
func ToCommand(m Message) (string, []Message, error) {
	if m.Type != TypeArray {
		return "", nil, errNotArray
	}
	if len(m.Array) == 0 || m.Array[0].Type != TypeBulkString {
		return "", nil, errNotCommand
	}
	return string(m.Array[0].Bulk), m.Array[1:], nil
}

// PackString extracts the payload of a SimpleString or BulkString; any
// other variant fails.
func PackString(m Message) (string, error) {
	switch m.Type {
	case TypeSimpleString:
		return m.Str, nil
	case TypeBulkString:
		return string(m.Bulk), nil
	default:
		return "", errNotStringer
	}
}
