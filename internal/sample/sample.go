// Package sample defines the fixed-layout record written by the sampling
// engine and read back by the decoder.
package sample

import "encoding/binary"

// Size is the on-disk size of a Record in bytes. It is fixed and must be
// identical for every core's file produced by a given build.
const Size = 40

// A Record is one observation of the three tracked performance counters,
// stamped with the clock pair sampled at the start of the engine's outer
// loop iteration that produced it.
//
// Each counter-delta field is the difference between the raw counter read
// that produced this record and the raw counter read that produced the
// previous record for the same core (or the seed read taken immediately
// after PMU programming, for the first record). Wraparound of the
// underlying architectural counter within one sampling interval is not
// handled; see the engine package for the accepted rationale.
type Record struct {
	MonotonicTimeNs uint64
	RealTimeNs      uint64
	LLCLoads        uint64
	LLCMisses       uint64
	InstrRetired    uint64
}

// Encode writes r into buf in little-endian order. buf must have length
// at least Size.
func (r Record) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], r.MonotonicTimeNs)
	binary.LittleEndian.PutUint64(buf[8:16], r.RealTimeNs)
	binary.LittleEndian.PutUint64(buf[16:24], r.LLCLoads)
	binary.LittleEndian.PutUint64(buf[24:32], r.LLCMisses)
	binary.LittleEndian.PutUint64(buf[32:40], r.InstrRetired)
}

// Decode reads a Record out of buf, which must have length at least Size.
func Decode(buf []byte) Record {
	return Record{
		MonotonicTimeNs: binary.LittleEndian.Uint64(buf[0:8]),
		RealTimeNs:      binary.LittleEndian.Uint64(buf[8:16]),
		LLCLoads:        binary.LittleEndian.Uint64(buf[16:24]),
		LLCMisses:       binary.LittleEndian.Uint64(buf[24:32]),
		InstrRetired:    binary.LittleEndian.Uint64(buf[32:40]),
	}
}
