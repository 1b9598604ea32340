// Package pcibus implements the legacy CF8/CFC PCI configuration-space
// enumerator (spec.md §4.7), grounded on the teacher's pci_qemu.go vendor
// scanning loop translated from ARM64's memory-mapped ECAM access to
// x86's port-I/O config mechanism #1.
package pcibus

import "github.com/nyxkernel/nyxkernel/hwio"

const (
	portConfigAddress = 0xCF8
	portConfigData    = 0xCFC

	vendorNone = 0xFFFF
)

// Function identifies one PCI config-space function.
type Function struct {
	Bus, Device, Func int
}

// Info is a discovered PCI function's identity and class fields (spec.md
// §4.7: "{bus, device, vendor, device, class, subclass, progif}").
type Info struct {
	Function
	VendorID, DeviceID  uint16
	Class, Subclass     uint8
	ProgIF              uint8
}

func configAddress(f Function, offset uint8) uint32 {
	return 1<<31 |
		uint32(f.Bus)<<16 |
		uint32(f.Device)<<11 |
		uint32(f.Func)<<8 |
		uint32(offset&0xFC)
}

// ReadConfig32 reads one 32-bit dword from f's config space at the given
// byte offset (masked to a dword boundary by the hardware).
func ReadConfig32(f Function, offset uint8) uint32 {
	hwio.Outl(portConfigAddress, configAddress(f, offset))
	return hwio.Inl(portConfigData)
}

// WriteConfig32 writes one 32-bit dword to f's config space.
func WriteConfig32(f Function, offset uint8, v uint32) {
	hwio.Outl(portConfigAddress, configAddress(f, offset))
	hwio.Outl(portConfigData, v)
}

// BAR reads and masks base-address register index (0-5), per spec.md
// §4.7 "BAR fetch reads the 32-bit BAR at offset 0x10 + 4*index and masks
// the information bits".
func BAR(f Function, index int) uint32 {
	raw := ReadConfig32(f, 0x10+uint8(4*index))
	return maskBAR(raw)
}

func maskBAR(raw uint32) uint32 {
	if raw&0x1 != 0 {
		return raw &^ 0x3 // I/O space BAR: low 2 bits are flags
	}
	return raw &^ 0xF // memory-space BAR: low 4 bits are flags
}

// Scan probes every (bus, device, function=0) combination and returns an
// Info for each function whose vendor ID is not the "absent" sentinel
// 0xFFFF.
func Scan() []Info {
	var found []Info
	for bus := 0; bus < 256; bus++ {
		for dev := 0; dev < 32; dev++ {
			f := Function{Bus: bus, Device: dev, Func: 0}
			idWord := ReadConfig32(f, 0x00)
			vendor := uint16(idWord & 0xFFFF)
			if vendor == vendorNone {
				continue
			}
			found = append(found, infoFor(f, vendor, uint16(idWord>>16)))
		}
	}
	return found
}

func infoFor(f Function, vendor, device uint16) Info {
	classWord := ReadConfig32(f, 0x08)
	return Info{
		Function: f,
		VendorID: vendor,
		DeviceID: device,
		ProgIF:   uint8(classWord >> 8),
		Subclass: uint8(classWord >> 16),
		Class:    uint8(classWord >> 24),
	}
}

// FindClass returns the first discovered function matching class/subclass,
// as xhci/nvme/ahci init does to locate its controller.
func FindClass(all []Info, class, subclass uint8) (Info, bool) {
	for _, info := range all {
		if info.Class == class && info.Subclass == subclass {
			return info, true
		}
	}
	return Info{}, false
}
