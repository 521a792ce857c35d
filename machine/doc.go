// Package machine implements the execution engine for the Rails processor.
//
// The processor has 256 words of 16-bit program memory, sixteen 8-bit
// general-purpose registers (r0 always reads as zero), 256 bytes of data
// memory, sixteen input latches, sixteen output latches, an 8-bit program
// counter and a single carry flag.
//
// Every instruction is one 16-bit word split into four nibbles:
// opcode (bits 15-12), a (11-8), b (7-4) and c (3-0). Immediate forms use
// bits 11-4 as an 8-bit literal or address in place of a and b.
package machine
