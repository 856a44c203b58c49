package wasm

import (
	"github.com/wippyai/wasm-interp/wasm/internal/binary"
)

// Encode serializes the module back to the binary format. The inverse of
// ParseModule for the sections this package models; sections with no
// entries are omitted.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	if len(m.Types) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			s.Byte(FuncTypeByte)
			s.WriteU32(uint32(len(ft.Params)))
			for _, p := range ft.Params {
				s.Byte(byte(p))
			}
			s.WriteU32(uint32(len(ft.Results)))
			for _, r := range ft.Results {
				s.Byte(byte(r))
			}
		}
		writeSection(w, SectionType, s.Bytes())
	}

	if len(m.Funcs) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Funcs)))
		for _, typeIdx := range m.Funcs {
			s.WriteU32(typeIdx)
		}
		writeSection(w, SectionFunction, s.Bytes())
	}

	if len(m.Memories) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			if mem.Limits.Max != nil {
				s.Byte(LimitsHasMax)
				s.WriteU32(uint32(mem.Limits.Min))
				s.WriteU32(uint32(*mem.Limits.Max))
			} else {
				s.Byte(LimitsNoMax)
				s.WriteU32(uint32(mem.Limits.Min))
			}
		}
		writeSection(w, SectionMemory, s.Bytes())
	}

	if len(m.Exports) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Exports)))
		for _, e := range m.Exports {
			s.WriteName(e.Name)
			s.Byte(e.Kind)
			s.WriteU32(e.Idx)
		}
		writeSection(w, SectionExport, s.Bytes())
	}

	if len(m.Code) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Code)))
		for _, body := range m.Code {
			b := binary.NewWriter()
			b.WriteU32(uint32(len(body.Locals)))
			for _, l := range body.Locals {
				b.WriteU32(l.Count)
				b.Byte(byte(l.ValType))
			}
			b.WriteBytes(body.Code)
			s.WriteU32(uint32(b.Len()))
			s.WriteBytes(b.Bytes())
		}
		writeSection(w, SectionCode, s.Bytes())
	}

	return w.Bytes()
}

func writeSection(w *binary.Writer, id byte, payload []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(payload)))
	w.WriteBytes(payload)
}
