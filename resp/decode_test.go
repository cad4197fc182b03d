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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSimpleValues(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     Message
		consumed int
	}{
		{"SimpleString", "+PONG\r\n", SimpleString("PONG"), 7},
		{"Error", "-ERR bad\r\n", Error("ERR bad"), 10},
		{"Integer", ":1000\r\n", Integer(1000), 7},
		{"BulkString", "$5\r\nhello\r\n", BulkStringFrom("hello"), 11},
		{"EmptyBulkString", "$0\r\n\r\n", BulkStringFrom(""), 6},
		{"NullBulkString", "$-1\r\n", Null, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, consumed, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
			assert.Equal(t, tt.consumed, consumed)
		})
	}
}

func TestDecodeArray(t *testing.T) {
	input := "*2\r\n$4\r\nPING\r\n$4\r\nPONG\r\n"
	msg, consumed, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, len(input), consumed)
	assert.Equal(t, Array(BulkStringFrom("PING"), BulkStringFrom("PONG")), msg)
}

func TestDecodeNestedArray(t *testing.T) {
	input := "*2\r\n*1\r\n:1\r\n$3\r\nfoo\r\n"
	msg, consumed, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, len(input), consumed)
	assert.Equal(t, Array(Array(Integer(1)), BulkStringFrom("foo")), msg)
}

func TestDecodePipelined(t *testing.T) {
	input := "+OK\r\n+OK\r\n"
	first, n1, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, SimpleString("OK"), first)

	second, n2, err := Decode([]byte(input)[n1:])
	require.NoError(t, err)
	assert.Equal(t, SimpleString("OK"), second)
	assert.Equal(t, len(input), n1+n2)
}

func TestDecodeShortRead(t *testing.T) {
	tests := []string{
		"",
		"+PONG",
		"+PONG\r",
		"$5\r\nhel",
		"*2\r\n$3\r\nGET\r\n",
	}
	for _, input := range tests {
		_, _, err := Decode([]byte(input))
		assert.ErrorIs(t, err, ErrShortRead, "input=%q", input)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	msg, consumed, err := Decode([]byte("!nope\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "Invalid RESP message type", msg.Str)
}

func TestDecodeRequiresCRLFNotLF(t *testing.T) {
	_, _, err := Decode([]byte("+PONG\n"))
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestRoundTrip(t *testing.T) {
	msgs := []Message{
		SimpleString("PONG"),
		Error("ERR bad"),
		Integer(1000),
		BulkStringFrom("hello"),
		BulkStringFrom(""),
		Null,
		Array(BulkStringFrom("SET"), BulkStringFrom("key"), BulkStringFrom("value")),
		Array(Array(Integer(1), Integer(2)), BulkStringFrom("x")),
		Array(),
	}

	for _, m := range msgs {
		enc := Encode(m)
		got, consumed, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, len(enc), consumed)
		assert.Equal(t, m, got)
	}
}
