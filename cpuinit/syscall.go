package cpuinit

import "github.com/nyxkernel/nyxkernel/hwio"

// Model-specific registers the SYSCALL/SYSRET fast path reads.
const (
	msrEFER  = 0xC0000080
	msrSTAR  = 0xC0000081
	msrLSTAR = 0xC0000082
	msrSFMASK = 0xC0000084
	msrGSBase = 0xC0000101
	msrKernelGSBase = 0xC0000102

	eferBitSCE = 0 // System Call Extensions
)

// SyscallRegisters is the register-preserving wrapper's save area, passed by
// pointer to the high-level dispatcher (spec.md §4.3 step 4-5). rax doubles
// as the return channel: the dispatcher writes the user-visible result into
// RAX before returning.
type SyscallRegisters struct {
	RAX, RBX, RCX, RDX    uint64
	RSI, RDI, RBP         uint64
	R8, R9, R10, R11      uint64
	R12, R13, R14, R15    uint64
	UserRIP, UserRFLAGS   uint64
	UserRSP               uint64
}

// syscallScratch is the per-CPU area the wrapper's SWAPGS/GS-relative
// addressing resolves: the kernel stack to switch onto, and a slot to park
// the interrupted user RSP in across the privilege transition.
type syscallScratch struct {
	KernelStack uint64
	UserStack   uint64
}

// ArmSyscallMSRs programs STAR/LSTAR/SFMASK/EFER.SCE and points
// IA32_KERNEL_GS_BASE at the scratch area the wrapper swaps in, completing
// spec.md §4.3's "Armed by programming" paragraph. selectors packs
// (user-code, user-data, kernel-code, kernel-data) the way SYSCALL/SYSRET
// hardware derives CS/SS for both directions from a single STAR value.
func ArmSyscallMSRs(entry uintptr, gsBase uintptr) {
	efer := hwio.RdMSR(msrEFER)
	hwio.WrMSR(msrEFER, efer|(1<<eferBitSCE))

	// STAR[47:32] = kernel CS base (kernel SS = base+8 on SYSCALL).
	// STAR[63:48] = user base (user SS = base+8, user CS = base+16 on
	// SYSRET) — base is the unused 0x18 placeholder slot so that +8 lands
	// on SelectorUserData and +16 lands on SelectorUserCode.
	const userBase = 0x18
	star := uint64(SelectorKernelCode)<<32 | uint64(userBase)<<48
	hwio.WrMSR(msrSTAR, star)
	hwio.WrMSR(msrLSTAR, uint64(entry))

	// Clear IF and TF on entry so the wrapper runs with interrupts off
	// until it has finished spilling the user stack.
	const rflagsIF, rflagsTF = 1 << 9, 1 << 8
	hwio.WrMSR(msrSFMASK, rflagsIF|rflagsTF)

	hwio.WrMSR(msrKernelGSBase, uint64(gsBase))
}
