package kernel

// bootUserEntry and bootUserStackTop are set once by Boot before the
// scheduler's first Schedule draw, and read by userTrampolineBody the one
// time the user trampoline task runs.
var (
	bootUserEntry    uintptr
	bootUserStackTop uintptr
)

// trampolineStack is the kernel-privilege stack sched.InitStack synthesizes
// the user trampoline task's first frame on top of. It never grows past
// the call into enterUserMode, which never returns.
var trampolineStack [16384]byte

// userTrampolineBody is the user trampoline task's entry, per spec.md
// §4.2's scheduler managing "driver helpers and the user-mode trampoline"
// as the same kind of schedulable task. Its only job is the ring 0 -> ring
// 3 transition; it never returns to the scheduler.
//
//go:nosplit
func userTrampolineBody() {
	enterUserMode(bootUserEntry, bootUserStackTop)
}

// userTrampoline is implemented in trampoline_amd64.s.
//
//go:nosplit
func userTrampoline()

// userTrampolineAddr returns userTrampoline's address, the entry sched.Spawn
// needs.
//
//go:nosplit
func userTrampolineAddr() uintptr
