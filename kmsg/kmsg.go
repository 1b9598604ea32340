// Package kmsg is the kernel-side logging sink: a write-only COM1 serial
// line (spec.md §6 "Serial") plus a fixed-capacity in-RAM ring buffer the
// rest of the kernel and, eventually, a user-mode console can read back
// from. Grounded on the teacher's uart_qemu.go PL011 driver, translated
// from a memory-mapped ARM UART to x86's legacy COM1 I/O-port UART
// (16550), and on its uartPuts/uartPutHex64 breadcrumb-logging idiom.
package kmsg

import "github.com/nyxkernel/nyxkernel/hwio"

const (
	com1Base = 0x3F8

	regData        = com1Base + 0
	regIER         = com1Base + 1
	regDivisorLo   = com1Base + 0
	regDivisorHi   = com1Base + 1
	regFIFOCtl     = com1Base + 2
	regLineCtl     = com1Base + 3
	regModemCtl    = com1Base + 4
	regLineStatus  = com1Base + 5

	lineStatusTHRE = 1 << 5 // transmit holding register empty

	baudDivisor38400 = 3 // 115200 / 38400
)

// ringSize is spec.md §6's "in-RAM 16 KiB ring copy".
const ringSize = 16 * 1024

var ring struct {
	buf   [ringSize]byte
	write uint32 // next write offset, wraps modulo ringSize
	total uint64 // total bytes ever written, returned by Snapshot
}

// Init configures COM1 for 38400 8N1 with FIFO enabled, per spec.md §6.
func Init() {
	hwio.Outb(regIER, 0x00) // disable interrupts: this driver is poll/write-only

	hwio.Outb(regLineCtl, 0x80) // DLAB=1 to program the divisor
	hwio.Outb(regDivisorLo, baudDivisor38400&0xFF)
	hwio.Outb(regDivisorHi, baudDivisor38400>>8)
	hwio.Outb(regLineCtl, 0x03) // DLAB=0, 8 data bits, no parity, 1 stop bit

	hwio.Outb(regFIFOCtl, 0xC7)  // enable FIFO, clear it, 14-byte threshold
	hwio.Outb(regModemCtl, 0x0B) // DTR | RTS | OUT2
}

// WriteByte sends one byte out COM1, busy-waiting for transmitter-empty,
// and appends it to the in-RAM ring.
//
//go:nosplit
func WriteByte(b byte) {
	for hwio.Inb(regLineStatus)&lineStatusTHRE == 0 {
	}
	hwio.Outb(regData, b)
	appendRing(b)
}

//go:nosplit
func appendRing(b byte) {
	ring.buf[ring.write] = b
	ring.write = (ring.write + 1) % ringSize
	ring.total++
}

// WriteString writes s byte by byte; used by every kprint-style call site
// instead of fmt, which is unavailable before the runtime's allocator is
// safe to use.
//
//go:nosplit
func WriteString(s string) {
	for i := 0; i < len(s); i++ {
		WriteByte(s[i])
	}
}

// WriteHex64 writes v as a fixed-width 16-digit lowercase hex string,
// mirroring the teacher's uartPutHex64 breadcrumb helper.
//
//go:nosplit
func WriteHex64(v uint64) {
	const digits = "0123456789abcdef"
	var buf [16]byte
	for i := 15; i >= 0; i-- {
		buf[i] = digits[v&0xF]
		v >>= 4
	}
	for _, c := range buf {
		WriteByte(c)
	}
}

// Snapshot copies the ring buffer's current contents (oldest to newest) into
// dst, at most len(dst) bytes starting from the oldest, returning the number
// of bytes copied and the total-bytes-ever-written counter at the time of
// the snapshot, so a user-mode console can detect how much it missed.
func Snapshot(dst []byte) (n int, total uint64) {
	avail := uint64(ringSize)
	if ring.total < avail {
		avail = ring.total
	}
	n = len(dst)
	if uint64(n) > avail {
		n = int(avail)
	}
	start := (ring.write + ringSize - uint32(avail)) % ringSize
	for i := 0; i < n; i++ {
		dst[i] = ring.buf[(start+uint32(i))%ringSize]
	}
	return n, ring.total
}
