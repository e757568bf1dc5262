// Package ingest implements the UDP/TCP burst assembler and the packet
// formatter that reinterprets assembled bursts as complex baseband samples.
package ingest

import (
	"fmt"
	"net"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/config"
	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// socketRecvBufferBytes matches the source's 49 MB SO_RCVBUF setting, sized
// to absorb bursts at line rate without kernel-level drops.
const socketRecvBufferBytes = 49_000_000

// pollDeadline is the read deadline used to emulate the source's
// MSG_DONTWAIT non-blocking reads: a short timeout that we treat as "no data
// available" rather than an error.
const pollDeadline = 2 * time.Millisecond

// Burst is one batched UDP/TCP reassembly unit: headers stripped, payload
// concatenated until batch_size bytes have accumulated.
type Burst struct {
	Payload []byte
}

// NetworkReceiver accumulates datagram or stream payloads (headers
// stripped) into Bursts once batch_size bytes are available.
type NetworkReceiver struct {
	cfg    config.NetworkRxConfig
	logger logging.Logger

	pconn net.PacketConn // set for UDP
	ln    net.Listener   // set for TCP, until accepted
	conn  net.Conn       // set for TCP once accepted

	pending  []byte
	readBuf  []byte
	noop     bool // set true on unrecoverable socket setup failure; compute becomes a no-op
}

// NewNetworkReceiver binds the configured UDP or TCP socket. Socket creation
// failures are logged and leave the receiver in a no-op state rather than
// returning an error, matching the source's degrade-not-crash behavior for
// this operator.
func NewNetworkReceiver(cfg config.NetworkRxConfig, logger logging.Logger) *NetworkReceiver {
	r := &NetworkReceiver{
		cfg:     cfg,
		logger:  logger,
		readBuf: make([]byte, cfg.MaxPayloadSize),
	}

	addr := fmt.Sprintf("%s:%d", cfg.IPAddr, cfg.DstPort)
	switch cfg.L4Proto {
	case "tcp":
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Errorf("ingest: failed to listen on %s: %v", addr, err)
			r.noop = true
			return r
		}
		r.ln = ln
	default:
		pconn, err := net.ListenPacket("udp", addr)
		if err != nil {
			logger.Errorf("ingest: failed to bind udp %s: %v", addr, err)
			r.noop = true
			return r
		}
		if udpConn, ok := pconn.(*net.UDPConn); ok {
			_ = udpConn.SetReadBuffer(socketRecvBufferBytes)
		}
		r.pconn = pconn
	}

	logger.Infof("ingest: listening on %s/%s", addr, cfg.L4Proto)
	return r
}

// Close releases the underlying socket.
func (r *NetworkReceiver) Close() error {
	if r.pconn != nil {
		return r.pconn.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
	if r.ln != nil {
		return r.ln.Close()
	}
	return nil
}

// Receive drains the socket until batch_size payload bytes have
// accumulated, returning one Burst, or returns (nil, false) if the socket
// would block with an empty accumulator — the per-tick yield behavior
// required of this operator.
func (r *NetworkReceiver) Receive() (*Burst, bool) {
	if r.noop {
		return nil, false
	}
	if r.cfg.L4Proto == "tcp" {
		return r.receiveTCP()
	}
	return r.receiveUDP()
}

func (r *NetworkReceiver) receiveUDP() (*Burst, bool) {
	for {
		_ = r.pconn.SetReadDeadline(time.Now().Add(pollDeadline))
		n, _, err := r.pconn.ReadFrom(r.readBuf)
		if err != nil {
			if isTimeout(err) {
				if len(r.pending) > 0 {
					break
				}
				return nil, false
			}
			r.logger.Error("ingest: udp read error", "error", err)
			r.pending = nil
			return nil, false
		}
		if n <= r.cfg.HeaderBytes {
			continue
		}
		r.pending = append(r.pending, r.readBuf[r.cfg.HeaderBytes:n]...)
		if len(r.pending) >= r.cfg.BatchSize {
			break
		}
	}
	return r.flush()
}

func (r *NetworkReceiver) receiveTCP() (*Burst, bool) {
	if r.conn == nil {
		_ = r.ln.(*net.TCPListener).SetDeadline(time.Now().Add(pollDeadline))
		conn, err := r.ln.Accept()
		if err != nil {
			return nil, false
		}
		r.logger.Infof("ingest: accepted connection from %s", conn.RemoteAddr())
		r.conn = conn
	}

	for {
		_ = r.conn.SetReadDeadline(time.Now().Add(pollDeadline))
		n, err := r.conn.Read(r.readBuf)
		if err != nil {
			if isTimeout(err) {
				if len(r.pending) > 0 {
					break
				}
				return nil, false
			}
			r.logger.Error("ingest: tcp read error", "error", err)
			r.pending = nil
			return nil, false
		}
		if n <= r.cfg.HeaderBytes {
			continue
		}
		r.pending = append(r.pending, r.readBuf[r.cfg.HeaderBytes:n]...)
		if len(r.pending) >= r.cfg.BatchSize {
			break
		}
	}
	return r.flush()
}

func (r *NetworkReceiver) flush() (*Burst, bool) {
	if len(r.pending) < r.cfg.BatchSize {
		return nil, false
	}
	burst := &Burst{Payload: r.pending}
	r.pending = nil
	r.logger.Debugf("ingest: emitting burst of size %d", len(burst.Payload))
	return burst, true
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
