package kernel

import "github.com/nyxkernel/nyxkernel/hwio"

// Legacy 8259 Programmable Interrupt Controller ports and the ICW
// (Initialization Command Word) sequence that remaps its IRQ0-15 range
// away from the CPU's reserved 0-31 exception vectors.
const (
	picMasterCommand = 0x20
	picMasterData    = 0x21
	picSlaveCommand  = 0xA0
	picSlaveData     = 0xA1

	icw1Init     = 0x11 // ICW4 present, cascade mode, edge-triggered
	icw4_8086    = 0x01 // 8086/88 mode

	picEOI = 0x20
)

// remapPIC reprograms both 8259 controllers so IRQ0-7 land at
// cpuinit.VectorTimer..+7 and IRQ8-15 follow immediately after, out of the
// way of the CPU's exception vectors 0-31 (spec.md §2's boot-sequence step
// "GDT/TSS/IDT setup" implies this remap has to happen before the timer
// and keyboard vectors mean anything).
func remapPIC(masterBase, slaveBase uint8) {
	hwio.Outb(picMasterCommand, icw1Init)
	hwio.Outb(picSlaveCommand, icw1Init)
	hwio.Outb(picMasterData, masterBase)
	hwio.Outb(picSlaveData, slaveBase)
	hwio.Outb(picMasterData, 0x04) // master: slave wired on IRQ2
	hwio.Outb(picSlaveData, 0x02)  // slave: cascade identity
	hwio.Outb(picMasterData, icw4_8086)
	hwio.Outb(picSlaveData, icw4_8086)

	// Unmask IRQ0 (timer) and IRQ1 (keyboard) only; every other line stays
	// masked until a driver that needs it claims it.
	hwio.Outb(picMasterData, 0xFC)
	hwio.Outb(picSlaveData, 0xFF)
}

// sendEOI acknowledges an interrupt so the PIC delivers the next one;
// irq8Plus also needs the slave acknowledged first.
//
//go:nosplit
func sendEOI(irq8Plus bool) {
	if irq8Plus {
		hwio.Outb(picSlaveCommand, picEOI)
	}
	hwio.Outb(picMasterCommand, picEOI)
}
