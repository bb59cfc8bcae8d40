// Package code defines the IML virtual machine's instruction set and the
// addressed program representation shared by the code generator, the
// linker, and the machine.
//
// A program is a flat sequence of instructions with addresses 0..N-1,
// one address per instruction, no gaps. Every opcode has a fixed stack
// effect recorded in its OpInfo entry; the generator and the machine both
// honor that table, which is the contract that keeps jump targets and
// frames consistent.
//
// Two external renderings exist:
//
//   - the canonical text listing, "(addr,OPCODE operand)," per line with
//     no separator after the final entry, used for persistence and
//     debugging (ParseListing reads it back);
//   - the IVMO object format, canonical CBOR behind a 4-byte magic, used
//     by the CLI and the program cache.
//
// Call instructions may carry a symbolic routine target, rendered as
// ">>name<<" until the linker rewrites it to a concrete entry address.
package code
