package mmc

// SectorSize is the transfer unit of every card this driver supports.
const SectorSize = 512

// Command indices. The transport adds the start/transmission bits.
const (
	CmdGoIdle        = 0  // GO_IDLE_STATE
	CmdSendOpCond    = 1  // SEND_OP_COND (MMC)
	CmdSendIfCond    = 8  // SEND_IF_COND
	CmdSetBlockLen   = 16 // SET_BLOCKLEN
	CmdReadSingle    = 17 // READ_SINGLE_BLOCK
	CmdWriteSingle   = 24 // WRITE_BLOCK
	CmdAppCmd        = 55 // APP_CMD
	CmdReadOCR       = 58 // READ_OCR
	AppCmdSendOpCond = 41 // SD_SEND_OP_COND, only valid after CmdAppCmd
)

// R1 response bits.
const (
	R1Idle       = 0x01
	R1IllegalCmd = 0x04
	R1CRCError   = 0x08
	R1ParamError = 0x40
	R1Busy       = 0x80 // set while no response has been received
)

const (
	// ifCondCheck asks for 2.7-3.6V operation with check pattern 0xAA.
	ifCondCheck = 0x1AA

	// hcsBit announces host support for high capacity cards in ACMD41.
	hcsBit = 1 << 30

	// ccsBit in the first OCR byte marks a block addressed card.
	ccsBit = 0x40

	tokenStartBlock = 0xFE
	dataAccepted    = 0x05
)

// Retry budgets. Each unit is one polled byte (or one 100µs wait while a
// write is in progress).
const (
	responseRetries = 10
	opCondRetries   = 25000
	tokenRetries    = 30000 // ~100ms at 2.4Mbit
	busyRetries     = 5000  // ~500ms
)
