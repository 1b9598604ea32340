// Command serialmon is the host-side serial monitor: it puts the
// operator's terminal into raw mode and tails the kernel's COM1 output
// over a real serial device, mirroring every byte to stdout until
// interrupted.
//
// Usage: serialmon /dev/ttyUSB0
package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// openSerial opens the serial device and configures it for raw,
// non-canonical reads: 8N1, no flow control, blocking reads that return
// as soon as one byte is available (VMIN=1, VTIME=0) so bytes are
// forwarded as soon as the kernel's kmsg driver writes them.
func openSerial(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	fd := int(f.Fd())

	termIO, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("serialmon: %w", err)
	}

	unix.CfmakeRaw(termIO)
	termIO.Cc[unix.VMIN] = 1
	termIO.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, termIO); err != nil {
		f.Close()
		return nil, fmt.Errorf("serialmon: %w", err)
	}

	return f, nil
}

// tail copies bytes from src to dst until src returns an error (the
// device closing, most often because the board reset).
func tail(dst io.Writer, src io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
	}
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: serialmon /dev/ttyDEVICE\n")
		os.Exit(1)
	}

	serial, err := openSerial(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "serialmon: %v\n", err)
		os.Exit(1)
	}
	defer serial.Close()

	stdoutFD := int(os.Stdout.Fd())
	if term.IsTerminal(stdoutFD) {
		saved, err := term.MakeRaw(stdoutFD)
		if err != nil {
			fmt.Fprintf(os.Stderr, "serialmon: %v\n", err)
			os.Exit(1)
		}
		defer term.Restore(stdoutFD, saved)
	}

	if err := tail(os.Stdout, serial); err != nil && err != io.EOF {
		fmt.Fprintf(os.Stderr, "\r\nserialmon: %v\r\n", err)
		os.Exit(1)
	}
}
