package kernel

import (
	"github.com/nyxkernel/nyxkernel/acpi"
	"github.com/nyxkernel/nyxkernel/ahci"
	"github.com/nyxkernel/nyxkernel/blockdev"
	"github.com/nyxkernel/nyxkernel/cpuinit"
	"github.com/nyxkernel/nyxkernel/fb"
	"github.com/nyxkernel/nyxkernel/kmsg"
	"github.com/nyxkernel/nyxkernel/memory"
	"github.com/nyxkernel/nyxkernel/nvme"
	"github.com/nyxkernel/nyxkernel/pcibus"
	"github.com/nyxkernel/nyxkernel/sched"
	"github.com/nyxkernel/nyxkernel/timer"
	"github.com/nyxkernel/nyxkernel/xhci"
)

// PCI class/subclass/progif pairs this kernel looks for, per spec.md §4.7
// and §4.4's storage/HID targets.
const (
	pciClassStorage  = 0x01
	pciSubclassNVMe  = 0x08
	pciSubclassAHCI  = 0x06
	pciClassSerialBus = 0x0C
	pciSubclassUSB   = 0x03

	mmioWindowSize = 0x10000 // enough for every register block this kernel reads
)

// storage is the one active block device, whichever driver found a
// controller first; nil if boot found none (spec.md §7's "Configuration
// absent" edge case applies here too: storage is optional, boot
// continues).
var storage blockdev.Device

// Boot runs spec.md §2's dataflow end to end: memory init, GDT/IDT/timer,
// PCI scan, storage + xHCI bring-up, scheduler start, syscall MSRs armed,
// then a jump to the embedded user-mode binary. Grounded on the teacher's
// kernelMainBody: one ordered function with a kmsg breadcrumb at each
// stage. A failing ACPI, storage or xHCI stage is logged and boot
// continues; Boot itself never calls abortBoot.
func Boot(h Handoff) {
	kmsg.Init()
	kmsg.WriteString("nyxkernel: booting\r\n")

	kmsg.WriteString("Stage 1: memory manager\r\n")
	memory.Global().Init(h.PhysOffset, h.Regions, h.PML4Base)

	if h.FramebufferPresent {
		kmsg.WriteString("Stage 2: framebuffer\r\n")
		bootFramebuffer = &h.Framebuffer
		fb.Global().Init(fb.Descriptor{
			BaseVirt:      h.Framebuffer.BaseVirt,
			Width:         h.Framebuffer.Width,
			Height:        h.Framebuffer.Height,
			Stride:        h.Framebuffer.Stride,
			BytesPerPixel: h.Framebuffer.BytesPerPixel,
			Format:        fb.PixelFormat(h.Framebuffer.Format),
		})
		terminal = fb.NewTerminal(fb.Global())
	}

	kmsg.WriteString("Stage 3: GDT/TSS/IDT\r\n")
	handlers := map[int]uintptr{
		8: doubleFaultISRAddr(), // double fault, re-installed onto IST1 by cpuinit.Init
	}
	cpuinit.Global().Init(h.KernelStackTop, handlers, syscallEntryAddr())
	cpuinit.Global().SetHandler(int(cpuinit.VectorTimer), timerISRAddr(), 0)
	cpuinit.Global().SetHandler(int(cpuinit.VectorKeyboard), keyboardISRAddr(), 0)
	remapPIC(uint8(cpuinit.VectorTimer), uint8(cpuinit.VectorTimer+8))

	kmsg.WriteString("Stage 4: PIT timer\r\n")
	timer.Init()

	kmsg.WriteString("Stage 5: ACPI discovery\r\n")
	if h.RSDPPhys != 0 || h.BIOSAreaLen > 0 {
		// A bootloader-reported RSDP is checked in place; otherwise the
		// legacy BIOS area is scanned for the signature.
		areaVirt, areaLen := h.BIOSAreaVirt, h.BIOSAreaLen
		if h.RSDPPhys != 0 {
			areaVirt, areaLen = memory.Global().PhysToVirt(h.RSDPPhys), 16
		}
		if err := acpi.Global().Init(memReader{}, areaVirt, areaLen); err != nil {
			kmsg.WriteString("ACPI: not found, continuing without it\r\n")
		}
	}

	kmsg.WriteString("Stage 6: PCI scan\r\n")
	devices := pcibus.Scan()

	bringUpStorage(devices)
	bringUpXHCI(devices)

	kmsg.WriteString("Stage 7: scheduler\r\n")
	bootUserEntry = h.UserEntry
	bootUserStackTop = h.UserStackTop
	scheduler := sched.New(0x2545F4914F6CDD1D)
	scheduler.Spawn(userTrampolineAddr(), 1, trampolineStack[:], cpuinit.SelectorKernelCode)

	kmsg.WriteString("Stage 8: arming syscall MSRs\r\n")
	// already armed by cpuinit.Global().Init's trailing ArmSyscallMSRs call

	kmsg.WriteString("Stage 9: jumping to user mode\r\n")
	// The scheduler owns this handoff (spec.md §4.2 groups the user-mode
	// trampoline with driver-helper tasks): draw the first winner — with
	// only the trampoline task spawned, Schedule always picks it — and
	// resume it through the same epilogue every later task switch would
	// use. Never returns.
	resumeTask(scheduler.Schedule(0))
}

// bringUpStorage tries NVMe first, then AHCI, leaving storage nil if
// neither controller's class/subclass was found — a silent, boot-
// continuing degradation per spec.md §7.
func bringUpStorage(devices []pcibus.Info) {
	if info, ok := pcibus.FindClass(devices, pciClassStorage, pciSubclassNVMe); ok {
		kmsg.WriteString("Stage 6a: NVMe controller found\r\n")
		virt, err := mapBAR(info, 0)
		if err != nil {
			kmsg.WriteString("NVMe: BAR map failed, continuing without storage\r\n")
			return
		}
		ctrl := &nvme.Controller{}
		if err := ctrl.Init(virt, memory.Global()); err != nil {
			kmsg.WriteString("NVMe: init failed, continuing without storage\r\n")
			return
		}
		if err := ctrl.DiscoverNamespace(); err != nil {
			kmsg.WriteString("NVMe: namespace discovery failed\r\n")
			return
		}
		if err := ctrl.CreateIOQueues(); err != nil {
			kmsg.WriteString("NVMe: I/O queue creation failed, continuing without storage\r\n")
			return
		}
		storage = ctrl
		logPartitionOffset()
		return
	}

	if info, ok := pcibus.FindClass(devices, pciClassStorage, pciSubclassAHCI); ok {
		kmsg.WriteString("Stage 6a: AHCI controller found\r\n")
		virt, err := mapBAR(info, 5)
		if err != nil {
			kmsg.WriteString("AHCI: BAR map failed, continuing without storage\r\n")
			return
		}
		port, err := ahci.Init(virt, 0, memory.Global())
		if err != nil {
			kmsg.WriteString("AHCI: init failed, continuing without storage\r\n")
			return
		}
		storage = port
		logPartitionOffset()
		return
	}

	kmsg.WriteString("Stage 6a: no storage controller found\r\n")
}

func logPartitionOffset() {
	off, err := blockdev.PartitionOffset(storage)
	if err != nil {
		kmsg.WriteString("storage: partition probe failed\r\n")
		return
	}
	kmsg.WriteString("storage: partition offset lba=")
	kmsg.WriteHex64(off)
	kmsg.WriteString("\r\n")
}

// bringUpXHCI finds the first xHCI host controller, initializes it,
// enumerates ports, and remembers the first enumerated slot for dispatch
// entry 3 (get_mouse). The device's class is not checked.
func bringUpXHCI(devices []pcibus.Info) {
	info, ok := pcibus.FindClass(devices, pciClassSerialBus, pciSubclassUSB)
	if !ok {
		kmsg.WriteString("Stage 6b: no xHCI controller found\r\n")
		return
	}
	kmsg.WriteString("Stage 6b: xHCI controller found\r\n")
	virt, err := mapBAR(info, 0)
	if err != nil {
		kmsg.WriteString("xHCI: BAR map failed, continuing without USB\r\n")
		return
	}
	ctrl := &xhci.Controller{}
	if err := ctrl.Init(virt, memory.Global()); err != nil {
		kmsg.WriteString("xHCI: init failed, continuing without USB\r\n")
		return
	}
	slots := ctrl.EnumeratePorts()
	if len(slots) == 0 {
		kmsg.WriteString("xHCI: no devices enumerated\r\n")
		return
	}
	mouseCtrl = ctrl
	mouseSlot = slots[0].ID
}

// mapBAR reads PCI BAR index from info and maps it through memory.Manager.
func mapBAR(info pcibus.Info, index int) (uintptr, error) {
	bar := pcibus.BAR(info.Function, index)
	return memory.Global().MapMMIO(uintptr(bar), mmioWindowSize)
}

func kmsgWriteFatal(stage string, err error) {
	kmsg.WriteString("FATAL at ")
	kmsg.WriteString(stage)
	kmsg.WriteString(": ")
	if err != nil {
		kmsg.WriteString(err.Error())
	}
	kmsg.WriteString("\r\n")
}
