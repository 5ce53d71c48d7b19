// Package loop implements the single cooperative event loop every peer
// process runs: drain queued local commands, poll the socket with a short
// deadline, feed any datagram to the reliability layer, then tick. This
// supersedes the teacher's goroutine-per-packet Server.listen()/updateLoop
// split — here the reliability table, dedup sets, and session state are
// all owned by this one stack frame, never touched from another goroutine.
package loop

import (
	"context"
	"errors"
	"net"
	"time"

	"pokeduel/internal/reliability"
	"pokeduel/internal/wire"
	"pokeduel/pkg/logger"
)

// PollInterval bounds how long a single socket read blocks before the loop
// comes back around to drain commands and tick the reliability layer.
const PollInterval = 100 * time.Millisecond

// MessageHandler reacts to a freshly-decoded, non-duplicate inbound
// message. It returns any error it hit; the loop logs and continues rather
// than stopping the whole peer over one bad turn.
type MessageHandler func(m *wire.Message, from reliability.Endpoint) error

// Loop owns the socket and the reliability layer for one local peer.
type Loop struct {
	conn     *net.UDPConn
	rel      *reliability.Layer
	onMsg    MessageHandler
	commands <-chan func()
}

// New builds a Loop. commands is drained once per iteration, ahead of the
// socket poll, so a locally-issued CLI operation (submit_move, send_chat)
// is applied promptly without needing its own goroutine.
func New(conn *net.UDPConn, rel *reliability.Layer, onMsg MessageHandler, commands <-chan func()) *Loop {
	return &Loop{conn: conn, rel: rel, onMsg: onMsg, commands: commands}
}

// SendFunc adapts conn.WriteToUDP into a reliability.SendFunc.
func SendFunc(conn *net.UDPConn) reliability.SendFunc {
	return func(data []byte, dest reliability.Endpoint) error {
		addr := &net.UDPAddr{IP: net.ParseIP(dest.IP), Port: dest.Port}
		_, err := conn.WriteToUDP(data, addr)
		return err
	}
}

// Run blocks until ctx is cancelled or the socket returns a non-timeout
// error.
func (l *Loop) Run(ctx context.Context) error {
	buf := make([]byte, 65535)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		l.drainCommands()

		if err := l.conn.SetReadDeadline(time.Now().Add(PollInterval)); err != nil {
			return err
		}
		n, addr, err := l.conn.ReadFromUDP(buf)
		now := time.Now()

		switch {
		case err == nil:
			src := reliability.Endpoint{IP: addr.IP.String(), Port: addr.Port}
			m, derr := l.rel.OnDatagram(buf[:n], src, now)
			if derr != nil {
				logger.Warn("malformed datagram from %s: %v", src, derr)
			} else if m != nil {
				if herr := l.onMsg(m, src); herr != nil {
					logger.Warn("handling %s from %s: %v", m.Kind, src, herr)
				}
			}
		case isTimeout(err):
			// expected: nothing arrived within PollInterval.
		default:
			return err
		}

		l.rel.Tick(now)
	}
}

func (l *Loop) drainCommands() {
	for {
		select {
		case cmd := <-l.commands:
			cmd()
		default:
			return
		}
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
