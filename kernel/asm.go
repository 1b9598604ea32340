package kernel

// syscallEntry is the SYSCALL/SYSRET wrapper LSTAR points at (spec.md
// §4.3): swaps GS, spills the user stack, builds an iret frame plus the
// SyscallRegisters save area, calls dispatchSyscall, then unwinds and
// SYSRETs... by IRETQ, so it also works the one time it is entered with
// interrupts already disabled during boot diagnostics.
//
//go:nosplit
func syscallEntry()

// syscallEntryAddr returns syscallEntry's address, the value ArmSyscallMSRs
// needs for LSTAR. A Go func value can't be taken safely here (closures
// have no address independent of their context); this mirrors the
// addr.go idiom cpuinit uses for its own address-of-struct-field helper,
// applied to a code address instead of a data one.
//
//go:nosplit
func syscallEntryAddr() uintptr

// timerISR is the IDT's IRQ0 gate target.
//
//go:nosplit
func timerISR()

// timerISRAddr returns timerISR's address.
//
//go:nosplit
func timerISRAddr() uintptr

// keyboardISR is the IDT's IRQ1 gate target.
//
//go:nosplit
func keyboardISR()

// keyboardISRAddr returns keyboardISR's address.
//
//go:nosplit
func keyboardISRAddr() uintptr

// enterUserMode builds an IRETQ frame for entry/userStackTop and
// transitions to ring 3. Never returns.
//
//go:nosplit
func enterUserMode(entry, userStackTop uintptr)

// resumeTask switches RSP to sp and falls into the shared restore-and-IRETQ
// epilogue sched.Scheduler.Schedule's doc comment describes. Never returns.
//
//go:nosplit
func resumeTask(sp uintptr)
