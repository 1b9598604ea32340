package blockdev

import "errors"

// ErrBufferSize is returned when a caller's buffer does not match the
// device's reported BlockSize — spec.md §7's "software invariant
// violation in the core (e.g. buffer length mismatch for block I/O)".
var ErrBufferSize = errors.New("blockdev: buffer length does not match block size")

// ErrNoGPTHeader is returned when the MBR claims a protective GPT layout
// (type byte 0xEE) but LBA 1 does not carry the "EFI PART" signature.
var ErrNoGPTHeader = errors.New("blockdev: GPT signature not found at LBA 1")

// ErrNoPartitions is returned when the GPT partition array contains no
// non-zero-type entries.
var ErrNoPartitions = errors.New("blockdev: no partition entries found")
