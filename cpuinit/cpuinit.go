// Package cpuinit installs the x86_64 privilege and trap machinery this
// kernel runs on: the GDT (kernel/user code and data descriptors plus the
// TSS descriptor), a TSS carrying the IST1 stack the double-fault vector
// runs on, the IDT, and the MSR triple that arms the SYSCALL/SYSRET fast
// path (spec.md §2 "GDT/TSS/IDT setup", §4.3 "System-Call Entry").
//
// Grounded on the teacher's (iansmith-mazarin/mazboot) exceptions.go and
// gic_qemu.go: a fixed-size vector table plus a single InitializeExceptions-
// style entry point, translated from ARM64's VBAR_EL1/GIC idiom to x86_64's
// LGDT/LIDT/LTR/WRMSR idiom.
package cpuinit

// Selector indices into the GDT, in the fixed order the teacher's
// register-offset-table style favors: null entry first, then a flat
// sequence consumed by index rather than by name lookup.
const (
	SelectorNull       = 0x00
	SelectorKernelCode = 0x08
	SelectorKernelData = 0x10
	// 0x18 is reserved for the unused 32-bit-user-code placeholder SYSCALL's
	// STAR layout requires (see gdt.go, syscall.go).
	SelectorUserData = 0x20 | 3 // RPL 3
	SelectorUserCode = 0x28 | 3
	SelectorTSS      = 0x30
)

// ISTDoubleFault is the IST slot (1-based) the double-fault vector runs on,
// so a stack overflow in the faulting task never corrupts the handler's own
// frame.
const ISTDoubleFault = 1

// doubleFaultStackSize is the size of the dedicated IST1 stack.
const doubleFaultStackSize = 16 * 1024

var doubleFaultStack [doubleFaultStackSize]byte

// CPU is the kernel's single GDT/TSS/IDT state, built by Init at boot.
// SetHandler and SetRSP0 can still change an IDT gate or the TSS's RSP0
// afterward (Boot installs the timer and keyboard gates that way).
type CPU struct {
	gdt gdtTable
	tss TaskStateSegment
	idt idtTable

	gdtr descriptorPointer
	idtr descriptorPointer

	// scratch is the struct the syscall wrapper reaches via SWAPGS +
	// GS-relative addressing (spec.md §4.3 step 1-2): the kernel stack it
	// switches onto, and a slot to spill the interrupted user RSP into.
	scratch syscallScratch
}

var global CPU

// Global returns the kernel's CPU-state singleton.
func Global() *CPU { return &global }

// Init builds the GDT, TSS and IDT, loads them into the CPU, and installs
// every handler in handlers (typically exceptions 0-31 plus the timer and
// device IRQ vectors) before finally arming the SYSCALL MSR triple so user
// mode can transition in. kernelStackTop is the RSP0 the TSS reports for
// ring transitions; syscallEntry is the address the SYSCALL instruction
// jumps to.
func (c *CPU) Init(kernelStackTop uintptr, handlers map[int]uintptr, syscallEntry uintptr) {
	c.buildGDT()
	c.buildTSS(kernelStackTop)
	c.loadGDTAndTSS()

	c.buildIDT()
	for vector, handler := range handlers {
		c.SetHandler(vector, handler, 0)
	}
	c.SetHandler(vectorDoubleFault, handlers[vectorDoubleFault], ISTDoubleFault)
	c.loadIDT()

	// The syscall wrapper switches onto the same ring-0 stack as RSP0.
	c.scratch.KernelStack = uint64(kernelStackTop)
	ArmSyscallMSRs(syscallEntry, kernelGSBase(&global))
}

// SetRSP0 updates the TSS's ring-0 stack pointer. The scheduler does not
// call it, so RSP0 keeps the kernelStackTop Init installed unless another
// caller changes it.
func (c *CPU) SetRSP0(top uintptr) {
	c.tss.RSP0 = uint64(top)
}
