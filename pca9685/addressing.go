package pca9685

// EnableAllCallAddress makes the chip answer addr (register form, default
// AllCallAddress) in addition to its own address.
func (d *Device) EnableAllCallAddress(addr uint8) error {
	return d.enableAddress(RegAllCallAdr, Mode1AllCall, addr)
}

// EnableSub1Address makes the chip answer addr (default Sub1Address).
func (d *Device) EnableSub1Address(addr uint8) error {
	return d.enableAddress(RegSubAdr1, Mode1Sub1, addr)
}

// EnableSub2Address makes the chip answer addr (default Sub2Address).
func (d *Device) EnableSub2Address(addr uint8) error {
	return d.enableAddress(RegSubAdr2, Mode1Sub2, addr)
}

// EnableSub3Address makes the chip answer addr (default Sub3Address).
func (d *Device) EnableSub3Address(addr uint8) error {
	return d.enableAddress(RegSubAdr3, Mode1Sub3, addr)
}

// DisableAllCallAddress stops the chip answering its all-call address.
func (d *Device) DisableAllCallAddress() error { return d.disableAddress(Mode1AllCall) }

// DisableSub1Address stops the chip answering sub-address 1.
func (d *Device) DisableSub1Address() error { return d.disableAddress(Mode1Sub1) }

// DisableSub2Address stops the chip answering sub-address 2.
func (d *Device) DisableSub2Address() error { return d.disableAddress(Mode1Sub2) }

// DisableSub3Address stops the chip answering sub-address 3.
func (d *Device) DisableSub3Address() error { return d.disableAddress(Mode1Sub3) }

// enableAddress always stores addr so that re-enabling with a new address
// takes effect; the MODE1 bit is only written when it is clear.
func (d *Device) enableAddress(reg, bit byte, addr uint8) error {
	mode1, err := d.readRegister(RegMode1)
	if err != nil {
		return err
	}
	if err := d.writeRegister(reg, addr&^1); err != nil {
		return err
	}
	if mode1&bit != 0 {
		return nil
	}
	return d.writeRegister(RegMode1, mode1&^Mode1Restart|bit)
}

func (d *Device) disableAddress(bit byte) error {
	mode1, err := d.readRegister(RegMode1)
	if err != nil {
		return err
	}
	if mode1&bit == 0 {
		return nil
	}
	return d.writeRegister(RegMode1, mode1&^(Mode1Restart|bit))
}
