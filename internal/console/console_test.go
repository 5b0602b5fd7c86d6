// SPDX-License-Identifier: MIT
package console

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler(t *testing.T) {
	a := Assembler{MaxLine: 5}
	a.Feed([]byte("s\r\n\r\ng0."))
	a.Feed([]byte("5\nabcdefgh\r"))

	var got []string
	for {
		line, ok := a.Next()
		if !ok {
			break
		}
		got = append(got, line)
	}
	assert.Equal(t, []string{"s", "g0.5", "abcde"}, got)
}

func TestReaderInput(t *testing.T) {
	in := NewReaderInput(strings.NewReader("s\n\n  t  \n"))

	var got []string
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 2 && time.Now().Before(deadline) {
		if line, ok := in.Poll(); ok {
			got = append(got, line)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, []string{"s", "t"}, got)
}

func TestReaderInputPollDoesNotBlock(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	in := NewReaderInput(r)

	done := make(chan struct{})
	go func() {
		in.Poll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll blocked without input")
	}
}

type fakePort struct {
	reads  [][]byte
	out    bytes.Buffer
	closed bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		return 0, nil
	}
	n := copy(b, p.reads[0])
	p.reads = p.reads[1:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *fakePort) Close() error { p.closed = true; return nil }

func TestSerialConsole(t *testing.T) {
	p := &fakePort{reads: [][]byte{[]byte("p"), []byte("\rv25,50,14\r")}}
	c := newSerialConsole(p)

	_, ok := c.Poll()
	assert.False(t, ok, "partial line must not be returned")

	line, ok := c.Poll()
	require.True(t, ok)
	assert.Equal(t, "p", line)

	line, ok = c.Poll()
	require.True(t, ok)
	assert.Equal(t, "v25,50,14", line)

	_, ok = c.Poll()
	assert.False(t, ok)

	_, err := c.Write([]byte("PONG\n"))
	require.NoError(t, err)
	assert.Equal(t, "PONG\n", p.out.String())
	require.NoError(t, c.Close())
	assert.True(t, p.closed)
}
