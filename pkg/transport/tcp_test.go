package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAcceptRoundTrip(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().String()

	clientDone := make(chan struct{})
	go func() {
		defer close(clientDone)
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("q hello\n"))
		require.NoError(t, err)

		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "echo\n", string(buf[:n]))
	}()

	conn, err := ln.Accept()
	require.NoError(t, err)

	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "q hello", line)

	require.NoError(t, conn.WriteLine("echo"))
	<-clientDone
	conn.Close()
}

func TestConnReadLineHandlesTrailingLineWithoutNewline(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	go func() {
		client.Write([]byte("last"))
		client.Close()
	}()

	conn := NewConn(server)
	line, err := conn.ReadLine()
	assert.NoError(t, err)
	assert.Equal(t, "last", line)
}

func TestConnCloseUnblocksReadLine(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	conn := NewConn(server)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.ReadLine()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("ReadLine did not unblock after Close")
	}
}
