package ingest

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/config"
)

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer conn.Close()
	_, portStr, _ := net.SplitHostPort(conn.LocalAddr().String())
	port, _ := strconv.Atoi(portStr)
	return port
}

func TestNetworkReceiverAccumulatesUntilBatchSize(t *testing.T) {
	port := freeUDPPort(t)
	cfg := config.NetworkRxConfig{
		IPAddr:         "127.0.0.1",
		DstPort:        port,
		L4Proto:        "udp",
		BatchSize:      16,
		HeaderBytes:    4,
		MaxPayloadSize: 1500,
	}
	r := NewNetworkReceiver(cfg, newTestFormatterLogger(t))
	defer r.Close()

	client, err := net.Dial("udp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	// Two datagrams of 4-byte header + 8-byte payload each => 16 bytes total payload.
	datagram := make([]byte, 12)
	for i := 0; i < 2; i++ {
		if _, err := client.Write(datagram); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if burst, ok := r.Receive(); ok {
			if len(burst.Payload) != 16 {
				t.Fatalf("burst payload length = %d, want 16", len(burst.Payload))
			}
			return
		}
	}
	t.Fatal("Receive() never returned a burst before deadline")
}

func TestNetworkReceiverYieldsWithNoData(t *testing.T) {
	port := freeUDPPort(t)
	cfg := config.NetworkRxConfig{
		IPAddr:         "127.0.0.1",
		DstPort:        port,
		L4Proto:        "udp",
		BatchSize:      1024,
		HeaderBytes:    8,
		MaxPayloadSize: 1500,
	}
	r := NewNetworkReceiver(cfg, newTestFormatterLogger(t))
	defer r.Close()

	if _, ok := r.Receive(); ok {
		t.Error("Receive() returned a burst with no data sent")
	}
}

func TestNetworkReceiverBadBindIsNoop(t *testing.T) {
	cfg := config.NetworkRxConfig{
		IPAddr:         "not-an-ip",
		DstPort:        -1,
		L4Proto:        "udp",
		BatchSize:      16,
		HeaderBytes:    8,
		MaxPayloadSize: 1500,
	}
	r := NewNetworkReceiver(cfg, newTestFormatterLogger(t))
	if _, ok := r.Receive(); ok {
		t.Error("Receive() on a failed bind expected no-op (false), got true")
	}
}
