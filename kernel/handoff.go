// Package kernel ties every subsystem together: the bootloader handoff
// contract, boot-time orchestration (spec.md §2's dataflow), the
// SYSCALL/SYSRET entry trampoline, and the numeric syscall dispatch table
// (spec.md §4.3).
//
// Grounded on the teacher's (iansmith-mazarin/mazboot) main/kernel.go
// KernelMain/kernelMainBody staged-breadcrumb boot style, translated from
// ARM64/RPi4's device tree + VBAR_EL1 dataflow to this kernel's UEFI
// handoff + GDT/IDT/MSR dataflow.
package kernel

import "github.com/nyxkernel/nyxkernel/memory"

// Handoff is the bootloader's handoff blob (spec.md §6: "a structure
// carrying {physical-memory offset, memory-map regions tagged
// usable/reserved/…, optional framebuffer descriptor …, RSDP physical
// address}"). The bootloader itself is an external collaborator (spec.md
// §1); this struct is the only contract this kernel has with it.
type Handoff struct {
	// PhysOffset is the offset added to a physical address to reach its
	// identity-mapped kernel-virtual alias.
	PhysOffset uintptr

	// Regions is the bootloader's memory map, in address order (spec.md
	// §8's boot scenario depends on frames being handed out in that
	// order).
	Regions []memory.Region

	// Framebuffer is present only when the bootloader found and handed
	// off a linear framebuffer; FramebufferPresent distinguishes "no
	// framebuffer reported" from a zero-value Framebuffer descriptor.
	FramebufferPresent bool
	Framebuffer        FramebufferHandoff

	// RSDPPhys is the physical address of the ACPI RSDP, or 0 if the
	// bootloader could not find one. Boot then falls back to scanning
	// BIOSAreaVirt/BIOSAreaLen, and skips ACPI discovery (boot continues)
	// when that area is empty too.
	RSDPPhys uintptr

	// PML4Base is the physical base of the page table hierarchy the
	// bootloader left active in CR3.
	PML4Base uintptr

	// KernelStackTop is the top of the stack this kernel keeps running on
	// for ring-0 re-entry (interrupts, exceptions, syscalls) — the TSS's
	// RSP0 field and the scheduler's "stack the syscall wrapper re-enters
	// through" (spec.md §4.3).
	KernelStackTop uintptr

	// UserEntry is the entry point of the embedded user-mode binary the
	// bootloader loaded at memory.UserBase.
	UserEntry uintptr

	// UserStackTop is the top of the stack the bootloader reserved for
	// the user-mode binary (below memory.UserBase, already mapped
	// user|writable).
	UserStackTop uintptr

	// BIOSAreaVirt/BIOSAreaLen bound the legacy BIOS memory area the
	// RSDP search walks when RSDPPhys is 0 (spec.md §4's ACPI discovery:
	// "RSDP → RSDT/XSDT → MCFG/MADT addresses").
	BIOSAreaVirt uintptr
	BIOSAreaLen  int
}

// FramebufferHandoff mirrors fb.Descriptor's fields at the handoff
// boundary; kept as a separate type (rather than importing fb here) so the
// handoff contract doesn't pull in the gg-backed painter just to describe
// what the bootloader reported.
type FramebufferHandoff struct {
	BaseVirt      uintptr
	Width         int
	Height        int
	Stride        int
	BytesPerPixel int
	Format        int // fb.PixelFormat value
}
