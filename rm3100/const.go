package rm3100

// Register addresses
const (
	RegPoll   = 0x00
	RegCMM    = 0x01
	RegCCX    = 0x04
	RegCCY    = 0x06
	RegCCZ    = 0x08
	RegTMRC   = 0x0B
	RegMX     = 0x24
	RegMY     = 0x27
	RegMZ     = 0x2A
	RegBIST   = 0x33
	RegStatus = 0x34
	RegHShake = 0x35
	RegRevID  = 0x36
)

// Per-axis register families. The register of an axis is base + stride*axis.
const (
	ccStride   = 2
	measStride = 3
	measSize   = 3
)

// Device constants
const (
	Addr    = 0x20
	AddrMin = 0x20
	AddrMax = 0x23
)

// Status flags
const (
	DataReadyFlag byte = (1 << 7)
)

// CMM bits
const (
	cmmStart     byte = 0b0000_0001
	cmmDRDMShift      = 2
	axisShift         = 4
)

// Handshake values
const (
	HShakeSetup    byte = 0x0A
	HShakeSelfTest byte = 0x08
)

// Built-in self-test
const (
	BISTArm     byte = 0x8F
	BISTDisable byte = 0x00
	BISTPoll    byte = 0x70 // start a measurement on all three axes

	bistZOK      byte = (1 << 6)
	bistYOK      byte = (1 << 5)
	bistXOK      byte = (1 << 4)
	bistTimeout  byte = 0b0000_1100
	bistLRPeriod byte = 0b0000_0011

	bistAttempts = 4
)

// Update rate control. TMRC holds tmrcBase + rate.
const (
	tmrcBase byte = 0x92

	UpdateRateMin     = 0
	UpdateRateMax     = 13
	UpdateRateDefault = 6 // ~9 Hz

	cycleTimeBase = 1667 // µs at rate 0 (600 Hz)
)

// Cycle counts. The device accepts values outside the documented range, at
// the expense of measurement quality.
const (
	CycleCountDefault = 200
	CycleCountMin     = 30
	CycleCountMax     = 400
)
