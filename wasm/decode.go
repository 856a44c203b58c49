package wasm

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-interp/errors"
	"github.com/wippyai/wasm-interp/wasm/internal/binary"
)

// ParseModule parses a WebAssembly binary module.
//
// The preamble must be the exact 8 bytes 00 61 73 6D 01 00 00 00.
// Recognized sections (type, function, memory, export, code) populate the
// module; all other section ids are logged and skipped.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, errors.InvalidInput()
	}
	if magic != Magic {
		return nil, errors.InvalidInput()
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, errors.New(errors.PhaseParse, errors.KindBadVersion).
			Detail("truncated version field").Cause(err).Build()
	}
	if version != Version {
		return nil, errors.BadVersion(version)
	}

	m := &Module{}

	for r.Len() > 0 {
		sectionID, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindEndOfData).
				Path("section size").Cause(err).Build()
		}

		sectionData, err := r.ReadBytes(int(sectionSize))
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindEndOfData).
				Path("section data").Cause(err).Build()
		}

		sr := binary.NewReader(sectionData)

		switch sectionID {
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionMemory:
			err = parseMemorySection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionCode:
			err = parseCodeSection(sr, m)
		default:
			// Custom sections and anything out of scope are skipped.
			logger.Debug("skipping unhandled section",
				zap.Uint8("id", sectionID),
				zap.Uint32("size", sectionSize))
		}
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64:
		return ValType(b), nil
	default:
		return 0, errors.UnexpectedData("expected a number type")
	}
}

func readFuncType(r *binary.Reader) (FuncType, error) {
	var ft FuncType

	paramCount, err := r.ReadU32()
	if err != nil {
		return ft, err
	}
	ft.Params = make([]ValType, paramCount)
	for i := range ft.Params {
		if ft.Params[i], err = readValType(r); err != nil {
			return ft, err
		}
	}

	resultCount, err := r.ReadU32()
	if err != nil {
		return ft, err
	}
	ft.Results = make([]ValType, resultCount)
	for i := range ft.Results {
		if ft.Results[i], err = readValType(r); err != nil {
			return ft, err
		}
	}

	return ft, nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			return errors.UnexpectedData("expected function type")
		}
		if m.Types[i], err = readFuncType(r); err != nil {
			return err
		}
	}
	return nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		typeIdx, err := r.ReadU32()
		if err != nil {
			return err
		}
		if int(typeIdx) >= len(m.Types) {
			return errors.Misc("function %d references type %d of %d", i, typeIdx, len(m.Types))
		}
		m.Funcs[i] = typeIdx
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	if count > 1 {
		return errors.Misc("at most one linear memory is supported")
	}
	for i := uint32(0); i < count; i++ {
		limits, err := readLimits(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, MemoryType{Limits: limits})
	}
	return nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	switch flag {
	case LimitsNoMax:
		min, err := r.ReadU32()
		if err != nil {
			return Limits{}, err
		}
		return Limits{Min: uint64(min)}, nil
	case LimitsHasMax:
		min, err := r.ReadU32()
		if err != nil {
			return Limits{}, err
		}
		max, err := r.ReadU32()
		if err != nil {
			return Limits{}, err
		}
		m := uint64(max)
		return Limits{Min: uint64(min), Max: &m}, nil
	default:
		return Limits{}, errors.UnexpectedData("expected a valid limit type")
	}
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		if _, dup := seen[name]; dup {
			return errors.UnexpectedData("expected a unique export name")
		}
		seen[name] = struct{}{}

		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindGlobal {
			return errors.UnexpectedData("expected a valid export descriptor type")
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, count)
	for i := uint32(0); i < count; i++ {
		// The body size frames the body: exactly that many bytes are taken
		// for this function, and instruction decoding within them stops at
		// the terminating end opcode.
		bodySize, err := r.ReadU32()
		if err != nil {
			return err
		}
		body, err := r.ReadBytes(int(bodySize))
		if err != nil {
			return err
		}

		br := binary.NewReader(body)
		localCount, err := br.ReadU32()
		if err != nil {
			return err
		}
		locals := make([]LocalEntry, localCount)
		for j := range locals {
			n, err := br.ReadU32()
			if err != nil {
				return err
			}
			t, err := readValType(br)
			if err != nil {
				return err
			}
			locals[j] = LocalEntry{Count: n, ValType: t}
		}

		m.Code[i] = FuncBody{Locals: locals, Code: body[br.Position():]}
	}
	return nil
}
