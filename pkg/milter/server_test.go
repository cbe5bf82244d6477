package milter

import (
	"net"
	"testing"
	"time"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/corpus"
)

func TestServerLimitsConnections(t *testing.T) {
	cfg := config.DefaultConfig().Milter
	cfg.MaxConcurrentConnections = 1

	decoder, err := corpus.NewReader(corpus.FormatEmail)
	if err != nil {
		t.Fatal(err)
	}
	server, err := NewServer(cfg, testModel(t), decoder, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	limited := server.limit(ln)
	defer limited.Close()

	accepted := make(chan net.Conn, 2)
	go func() {
		for {
			conn, err := limited.Accept()
			if err != nil {
				return
			}
			accepted <- conn
		}
	}()

	for i := 0; i < 2; i++ {
		client, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			t.Fatal(err)
		}
		defer client.Close()
	}

	var first net.Conn
	select {
	case first = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("first connection was not accepted")
	}

	select {
	case conn := <-accepted:
		conn.Close()
		t.Fatal("second connection accepted while the first is open")
	case <-time.After(100 * time.Millisecond):
	}

	first.Close()
	select {
	case conn := <-accepted:
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("second connection not accepted after the first closed")
	}
}

func TestServerWithoutLimit(t *testing.T) {
	cfg := config.DefaultConfig().Milter
	cfg.MaxConcurrentConnections = 0

	server, err := NewServer(cfg, testModel(t), nil, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if got := server.limit(ln); got != ln {
		t.Error("limit() should return the listener unchanged when no cap is set")
	}
}

func TestNewServerRequiresModel(t *testing.T) {
	if _, err := NewServer(config.DefaultConfig().Milter, nil, nil, nil); err == nil {
		t.Error("NewServer() should fail without a model")
	}
}
