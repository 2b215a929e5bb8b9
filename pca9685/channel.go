package pca9685

// SetChannelOn drives channel fully on.
func (d *Device) SetChannelOn(channel int) error {
	return d.writeChannel(channel, PWMFull, 0)
}

// SetChannelOff drives channel fully off.
func (d *Device) SetChannelOff(channel int) error {
	return d.writeChannel(channel, 0, PWMFull)
}

// SetChannelPWM sets channel to be active for amount of the 4096 steps.
// 0 is fully off and 4096 (or more) fully on.
func (d *Device) SetChannelPWM(channel int, amount uint16) error {
	channel = clampInt(channel, 0, ChannelCount-1)
	begin, end := d.phaseCycle(channel, amount)
	return d.writeChannel(channel, begin, end)
}

// SetChannelsPWM sets consecutive channels starting at begin from amounts.
// Amounts past channel 15 are ignored. Channels are packed into as few
// transmissions as the transport buffer allows; the first failed
// transmission ends the call.
func (d *Device) SetChannelsPWM(begin int, amounts []uint16) error {
	begin = clampInt(begin, 0, ChannelCount-1)
	n := len(amounts)
	if begin+n > ChannelCount {
		n = ChannelCount - begin
	}

	perTx := (d.bus.BufferLength() - 1) / 4
	if perTx < 1 {
		perTx = 1
	}

	for i := 0; i < n; {
		chunk := min(perTx, n-i)

		d.beginChannel(begin + i)
		for j := 0; j < chunk; j++ {
			on, off := d.phaseCycle(begin+i+j, amounts[i+j])
			d.writePhase(on, off)
		}
		if err := d.endTransmission(); err != nil {
			return err
		}
		i += chunk
	}
	return nil
}

// SetAllChannelsPWM sets every channel at once through the ALL_LED block.
// Phase balancing does not apply: all windows begin at step 0.
func (d *Device) SetAllChannelsPWM(amount uint16) error {
	begin, end := d.phaseCycle(AllChannels, amount)
	return d.writeChannel(AllChannels, begin, end)
}

// GetChannelPWM reads back how many of the 4096 steps channel is active.
func (d *Device) GetChannelPWM(channel int) (uint16, error) {
	if d.proxy {
		return 0, ErrProxyAddresser
	}
	channel = clampInt(channel, 0, ChannelCount-1)

	d.beginChannel(channel)
	if err := d.endTransmission(); err != nil {
		return 0, err
	}

	n := d.bus.RequestFrom(d.addr, 4)
	if n != 4 {
		d.drain(n)
		return 0, d.lastErr
	}

	first := uint16(d.bus.Read())
	first |= uint16(d.bus.Read()) << 8
	second := uint16(d.bus.Read())
	second |= uint16(d.bus.Read()) << 8

	if d.swapped {
		return decodeWindow(second, first), nil
	}
	return decodeWindow(first, second), nil
}

func decodeWindow(begin, end uint16) uint16 {
	switch {
	case end&PWMFull != 0:
		return 0
	case begin&PWMFull != 0:
		return PWMSteps
	}

	begin &= PWMMask
	end &= PWMMask
	if begin <= end {
		return end - begin
	}
	return end + PWMSteps - begin
}

func (d *Device) writeChannel(channel int, begin, end uint16) error {
	d.beginChannel(channel)
	d.writePhase(begin, end)
	return d.endTransmission()
}

// beginChannel starts a transmission addressed at the channel's first
// register (or ALL_LED for AllChannels).
func (d *Device) beginChannel(channel int) {
	reg := byte(RegAllLED)
	if channel != AllChannels {
		reg = RegLED0 + 4*byte(clampInt(channel, 0, ChannelCount-1))
	}

	d.bus.BeginTransmission(d.addr)
	d.bus.Write(reg)
}

func (d *Device) writePhase(begin, end uint16) {
	if d.swapped {
		begin, end = end, begin
	}
	d.bus.Write(byte(begin))
	d.bus.Write(byte(begin >> 8))
	d.bus.Write(byte(end))
	d.bus.Write(byte(end >> 8))
}
