// Command mkbootimage assembles the kernel binary and the embedded
// user-mode GUI binary into one bootable image file.
//
// The UEFI boot stub that turns this image into a running kernel is an
// external collaborator (the bootloader handoff blob is consumed, not
// built, by this kernel) — mkbootimage's job stops at producing a single
// flat image the stub's loader can read sector by sector:
//
//	Sector 0 (512 bytes) - header:
//	  offset 0:  uint32  magic = 0x4e59584b ("NYXK")
//	  offset 4:  uint32  kernel_sectors
//	  offset 8:  uint32  gui_sectors
//	  offset 12: [500 zero bytes]
//
//	Sectors 1 .. kernel_sectors:             kernel image, zero-padded
//	Sectors 1+kernel_sectors .. end:         GUI image, zero-padded
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"golang.org/x/sys/unix"
)

const (
	bootMagic  = 0x4e59584b
	sectorSize = 512
	headerSize = sectorSize
)

type options struct {
	Kernel string `short:"k" long:"kernel" description:"path to the kernel binary" required:"true"`
	GUI    string `short:"g" long:"gui" description:"path to the user-mode GUI binary" required:"true"`
	Output string `short:"o" long:"output" description:"path to write the boot image" required:"true"`
}

// buildImage lays out the kernel and GUI binaries behind a single header
// sector, padding each to a sector boundary. make() zero-initializes the
// output, so padding is automatically zero.
func buildImage(kernel, gui []byte) []byte {
	kernelSectors := ceilSectors(len(kernel))
	guiSectors := ceilSectors(len(gui))

	out := make([]byte, (1+kernelSectors+guiSectors)*sectorSize)

	binary.LittleEndian.PutUint32(out[0:4], bootMagic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(kernelSectors))
	binary.LittleEndian.PutUint32(out[8:12], uint32(guiSectors))

	copy(out[sectorSize:], kernel)
	copy(out[sectorSize*(1+kernelSectors):], gui)

	return out
}

func ceilSectors(n int) int {
	if n == 0 {
		return 0
	}
	return (n + sectorSize - 1) / sectorSize
}

// writeImageLocked writes data to path under an advisory exclusive lock,
// so two concurrent mkbootimage invocations targeting the same output
// path (a CI build and a developer's local rebuild, say) don't interleave
// writes.
func writeImageLocked(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("mkbootimage: flock: %w", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	_, err = f.Write(data)
	return err
}

func main() {
	var opts options

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	kernel, err := os.ReadFile(opts.Kernel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkbootimage: %v\n", err)
		os.Exit(1)
	}

	gui, err := os.ReadFile(opts.GUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkbootimage: %v\n", err)
		os.Exit(1)
	}

	img := buildImage(kernel, gui)

	if err := writeImageLocked(opts.Output, img); err != nil {
		fmt.Fprintf(os.Stderr, "mkbootimage: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("mkbootimage: kernel %d bytes, gui %d bytes, wrote %d bytes to %s\n",
		len(kernel), len(gui), len(img), opts.Output)
}
