package kernel

import "errors"

// errDoubleFault is the error abortBoot renders; a double fault carries no
// useful recovered state by the time it's safe to call into Go, so the
// message is fixed rather than decoded from the fault frame.
var errDoubleFault = errors.New("double fault")

// doubleFaultBody is the IST1 double-fault handler: spec.md has no
// recovery path for this, so it goes straight to the fatal-error screen.
func doubleFaultBody() {
	abortBoot("double fault", errDoubleFault)
}

// doubleFaultISR is implemented in fault_entry_amd64.s.
//
//go:nosplit
func doubleFaultISR()

// doubleFaultISRAddr returns doubleFaultISR's address.
//
//go:nosplit
func doubleFaultISRAddr() uintptr
