package userabi

// syscall6 executes the SYSCALL instruction with number num and up to
// six arguments, returning the kernel's rax slot. Implemented in
// asm_amd64.s, the same Go-assembly split the teacher uses for every
// privileged or calling-convention-sensitive primitive (asm.Dsb, etc).
func syscall6(num, a1, a2, a3, a4, a5, a6 uintptr) uintptr
