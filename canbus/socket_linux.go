//go:build linux

package canbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	canRaw = 1

	// canIDEFFFlag marks bit 31 (EFF, extended 29-bit identifier).
	canIDEFFFlag = uint32(1 << 31)
	// canIDRTRFlag marks bit 30 (RTR, remote transmission request).
	canIDRTRFlag = uint32(1 << 30)
	// canIDERRFlag marks bit 29 (error frame).
	canIDERRFlag = uint32(1 << 29)
	// canIDMask isolates the 29 arbitration-id bits from the flag bits.
	canIDMask = uint32(0b111) << 29
)

// Socket is a bound SocketCAN raw socket for one CAN interface.
type Socket struct {
	ifName string
	fd     int
	now    func() time.Time
}

// Open binds a new raw CAN socket to ifName (e.g. "can0").
func Open(ifName string) (*Socket, error) {
	ifi, err := net.InterfaceByName(ifName)
	if err != nil {
		return nil, fmt.Errorf("canbus: unknown interface %q: %w", ifName, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, canRaw)
	if err != nil {
		return nil, fmt.Errorf("canbus: create raw CAN socket: %w", err)
	}

	addr := &unix.SockaddrCAN{Ifindex: ifi.Index}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("canbus: bind to %q: %w", ifName, err)
	}

	return &Socket{ifName: ifName, fd: fd, now: time.Now}, nil
}

// SetReadTimeout bounds ReadFrame so it returns control periodically even
// with no traffic, letting the reader loop observe context cancellation.
func (s *Socket) SetReadTimeout(timeout time.Duration) error {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	return unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

// Close releases the underlying file descriptor.
func (s *Socket) Close() error {
	return unix.Close(s.fd)
}

var errReadTimeout = errors.New("canbus: read timeout")

// IsTimeout reports whether err is the sentinel returned by ReadFrame when
// the read timeout set via SetReadTimeout elapses with no frame available.
func IsTimeout(err error) bool {
	return errors.Is(err, errReadTimeout)
}

func isContinuableSocketErr(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR)
}

// ReadFrame blocks for one SocketCAN frame (struct can_frame, 16 bytes:
// 4-byte id, 1-byte length, 3 bytes padding, 8 bytes data) and decodes it.
func (s *Socket) ReadFrame() (Frame, error) {
	raw := make([]byte, 16)
	_, err := unix.Read(s.fd, raw)
	if err != nil {
		if isContinuableSocketErr(err) {
			return Frame{}, errReadTimeout
		}
		return Frame{}, fmt.Errorf("canbus: read %s: %w", s.ifName, err)
	}

	canID := binary.LittleEndian.Uint32(raw[0:4])
	if canID&canIDRTRFlag != 0 {
		return Frame{}, fmt.Errorf("canbus: %s: remote transmission request frame", s.ifName)
	}
	if canID&canIDERRFlag != 0 {
		return Frame{}, fmt.Errorf("canbus: %s: error frame", s.ifName)
	}

	f := Frame{
		Time:      s.now(),
		Interface: s.ifName,
		Header:    ParseCanID(canID &^ canIDMask),
		Length:    raw[4],
	}
	copy(f.Data[:], raw[8:8+f.Length])
	return f, nil
}

// WriteFrame transmits one CAN frame on the bound interface.
func (s *Socket) WriteFrame(f Frame) error {
	raw := make([]byte, 16)

	canID := f.Header.CanID() | canIDEFFFlag
	binary.LittleEndian.PutUint32(raw[0:4], canID)
	raw[4] = f.Length
	copy(raw[8:], f.Data[:f.Length])

	_, err := unix.Write(s.fd, raw)
	if err != nil {
		return fmt.Errorf("canbus: write %s: %w", s.ifName, err)
	}
	return nil
}
