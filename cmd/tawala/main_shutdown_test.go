package main

import (
	"errors"
	"net"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// startServer serves h on a loopback port and returns the server with the
// address it listens on.
func startServer(t *testing.T, h http.Handler) (*http.Server, string, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := &http.Server{Handler: h, ReadHeaderTimeout: time.Second}
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ln)
	}()
	return server, ln.Addr().String(), done
}

// sendOnNotify delivers sig once shutdown subscribes and ready is closed.
func sendOnNotify(t *testing.T, sig os.Signal, ready <-chan struct{}) {
	t.Helper()
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})
	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			<-ready
			ch <- sig
		}()
	}
}

func TestShutdownDrainsInFlightRequest(t *testing.T) {
	started := make(chan struct{})
	server, addr, done := startServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	sendOnNotify(t, syscall.SIGTERM, started)

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			status <- 0
			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	core, logs := observer.New(zap.InfoLevel)
	shutdown(server, time.Second, zap.New(core))

	if got := <-status; got != http.StatusNoContent {
		t.Fatalf("expected in-flight request to complete with 204, got %d", got)
	}
	if err := <-done; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("expected server to be closed, got %v", err)
	}
	if logs.FilterMessage("shutting down server").Len() != 1 {
		t.Fatalf("expected shutdown to be logged")
	}
	if logs.FilterMessage("graceful shutdown failed").Len() != 0 {
		t.Fatalf("expected graceful shutdown within the grace period")
	}
}

func TestShutdownForcesCloseAfterGracePeriod(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	server, addr, done := startServer(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
	}))
	sendOnNotify(t, os.Interrupt, started)

	go func() {
		if resp, err := http.Get("http://" + addr + "/"); err == nil {
			_ = resp.Body.Close()
		}
	}()

	core, logs := observer.New(zap.InfoLevel)
	shutdown(server, 10*time.Millisecond, zap.New(core))

	if err := <-done; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("expected server to be closed, got %v", err)
	}
	if logs.FilterMessage("graceful shutdown failed").Len() != 1 {
		t.Fatalf("expected grace period expiry to be logged, got %v", logs.All())
	}
}
