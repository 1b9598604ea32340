package cpuinit

// loadGDT executes LGDT against the packed {limit, base} pointer.
//
//go:nosplit
func loadGDT(ptr *descriptorPointer)

// loadIDT executes LIDT against the packed {limit, base} pointer.
//
//go:nosplit
func loadIDT(ptr *descriptorPointer)

// loadTR executes LTR with the TSS selector.
//
//go:nosplit
func loadTR(selector uint16)

// reloadSegments far-jumps through codeSel to reload CS, then loads dataSel
// into DS/ES/SS, completing the segment switch a bare LGDT does not perform
// on its own.
//
//go:nosplit
func reloadSegments(codeSel, dataSel uint16)
