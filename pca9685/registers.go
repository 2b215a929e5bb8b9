package pca9685

// Register addresses.
const (
	RegMode1      = 0x00
	RegMode2      = 0x01
	RegSubAdr1    = 0x02
	RegSubAdr2    = 0x03
	RegSubAdr3    = 0x04
	RegAllCallAdr = 0x05
	RegLED0       = 0x06 // Start of LEDx regs, 4B per reg, 2B on phase, 2B off phase, little-endian
	RegAllLED     = 0xFA
	RegPreScale   = 0xFE
)

// MODE1 bits.
const (
	Mode1Restart = 0x80 // Restart enabled
	Mode1ExtClk  = 0x40 // Use EXTCLK pin clock
	Mode1AutoInc = 0x20 // Register auto-increment enabled
	Mode1Sleep   = 0x10 // Low power mode, oscillator off
	Mode1Sub1    = 0x08 // Responds to I2C subaddress 1
	Mode1Sub2    = 0x04 // Responds to I2C subaddress 2
	Mode1Sub3    = 0x02 // Responds to I2C subaddress 3
	Mode1AllCall = 0x01 // Responds to LED All Call I2C address
)

// Mode is the MODE2 output driver configuration passed to Init. Combine one
// flag from each group with |.
type Mode uint8

// MODE2 bits.
const (
	ModeInvertedOutputs    Mode = 0x10 // Inverts polarity of channel output signal
	ModeOutputsChangeOnAck Mode = 0x08 // Channel update happens upon ACK (post-5th byte) instead of upon STOP

	ModeOutDrvTotemPole Mode = 0x04 // Totem-pole (push-pull) outputs
	ModeOutDrvOpenDrain Mode = 0x00 // Open-drain outputs

	ModeOutNEHighZ  Mode = 0x02 // Outputs high-impedance when OE is high
	ModeOutNETpHigh Mode = 0x01 // Outputs driven high when OE is high (totem-pole only)
	ModeOutNELow    Mode = 0x00 // Outputs driven low when OE is high
)

// DefaultMode is the output configuration used when none is given.
const DefaultMode = ModeOutDrvTotemPole

// Addressing constants.
const (
	BaseAddress      = 0x40 // 7-bit address of the chip with all address pins low
	MaxAddressOffset = 61
	GeneralCallAddr  = 0x00
	SoftwareReset    = 0x06

	// Register form (8-bit, R/W bit clear) of the power-on group addresses.
	AllCallAddress = 0xE0
	Sub1Address    = 0xE2
	Sub2Address    = 0xE4
	Sub3Address    = 0xE8
)

// Channel and timing limits.
const (
	ChannelCount = 16
	AllChannels  = -1 // Selects the ALL_LED register block

	PWMFull  = 0x1000 // Bit 12 of an ON/OFF count: full on / full off
	PWMMask  = 0x0FFF
	PWMSteps = 4096

	MinFrequency = 24
	MaxFrequency = 1526

	oscillatorHz = 25000000
	minPrescale  = 3
	maxPrescale  = 255
)
