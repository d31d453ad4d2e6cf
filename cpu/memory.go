package cpu

const (
	MEMORY_SIZE    = 0x1000 // Bytes of addressable memory.
	REGISTER_COUNT = 16     // General purpose registers.
	REGISTER_FLAG  = 0xf    // Register overwritten with the carry of an add.
	CODE_SIZE      = 2      // Bytes per instruction word.
	PROGRAM_START  = 0x200  // Conventional load address of binary images.
)
