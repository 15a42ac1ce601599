package ds3231

const Address = 0x68 // I2C address for DS3231

// Registers
const (
	RegSeconds       = 0x00 // Seconds, start of the time registers
	RegMinutes       = 0x01
	RegHours         = 0x02
	RegDay           = 0x03 // Day of week, 1-7
	RegDate          = 0x04 // Day of month
	RegMonth         = 0x05 // Month, bit 7 is the century flag
	RegYear          = 0x06
	RegAlarm1Seconds = 0x07 // Alarm 1 seconds, not covered by SetAlarm
	RegAlarm1        = 0x08 // Alarm 1 minutes, hours, day/date
	RegAlarm2        = 0x0B // Alarm 2 minutes, hours, day/date
	RegControl       = 0x0E
	RegStatus        = 0x0F
	RegAgingOffset   = 0x10
	RegTempMSB       = 0x11 // Temperature, integer part
	RegTempLSB       = 0x12 // Temperature, fraction in bits 7..6

	numRegisters = 0x13
)

// Control register bits
const (
	ControlA1IE  = 1 << 0 // Alarm 1 interrupt enable
	ControlA2IE  = 1 << 1 // Alarm 2 interrupt enable
	ControlINTCN = 1 << 2 // INT/SQW pin outputs alarm interrupts instead of a square wave
	ControlRS1   = 1 << 3
	ControlRS2   = 1 << 4
	ControlCONV  = 1 << 5
	ControlBBSQW = 1 << 6
	ControlEOSC  = 1 << 7 // Oscillator disabled on battery when set
)

// Status register bits
const (
	StatusA1F     = 1 << 0 // Alarm 1 fired
	StatusA2F     = 1 << 1 // Alarm 2 fired
	StatusBSY     = 1 << 2
	StatusEN32kHz = 1 << 3
	StatusOSF     = 1 << 7 // Oscillator stopped at some point, time is not trustworthy
)

// Alarm register bits
const (
	alarmMaskBit = 1 << 7 // AxMy: field is ignored by the comparator
	alarmDayBit  = 1 << 6 // DY/DT: match day of week instead of date
	monthMask    = 0x1F
)
