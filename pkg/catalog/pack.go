package catalog

import "fmt"

type fieldKind int

const (
	fieldLiteral fieldKind = iota
	// fieldByte is a direct binary byte.
	fieldByte
	// fieldLow carries a 4-bit value in the low nibble under a fixed high nibble (e.g. 2p).
	fieldLow
	// fieldNib2 is an 8-bit value spread as 0p 0q.
	fieldNib2
	// fieldNib4 is a 16-bit value spread as 0p 0q 0r 0s.
	fieldNib4
	// fieldNib4Signed is fieldNib4 holding a two's complement int16.
	fieldNib4Signed
	// fieldWord is a 16-bit value as two direct bytes.
	fieldWord
)

type field struct {
	kind  fieldKind
	value byte
	arg   int
}

func (f field) width() int {
	switch f.kind {
	case fieldNib2, fieldWord:
		return 2
	case fieldNib4, fieldNib4Signed:
		return 4
	default:
		return 1
	}
}

func lit(b ...byte) []field {
	out := make([]field, len(b))
	for i, v := range b {
		out[i] = field{kind: fieldLiteral, value: v}
	}
	return out
}

func byt(arg int) field            { return field{kind: fieldByte, arg: arg} }
func low(high byte, arg int) field { return field{kind: fieldLow, value: high, arg: arg} }
func nib2(arg int) field           { return field{kind: fieldNib2, arg: arg} }
func nib4(arg int) field           { return field{kind: fieldNib4, arg: arg} }
func nib4s(arg int) field          { return field{kind: fieldNib4Signed, arg: arg} }
func word(arg int) field           { return field{kind: fieldWord, arg: arg} }

func seq(parts ...any) []field {
	var out []field
	for _, p := range parts {
		switch v := p.(type) {
		case field:
			out = append(out, v)
		case []field:
			out = append(out, v...)
		default:
			panic(fmt.Sprintf("catalog: bad template part %T", p))
		}
	}
	return out
}

func pack(tpl []field, args []int) ([]byte, error) {
	out := make([]byte, 0, len(tpl)+6)
	for _, f := range tpl {
		if f.kind == fieldLiteral {
			out = append(out, f.value)
			continue
		}
		v := args[f.arg]
		switch f.kind {
		case fieldByte:
			if v < 0 || v > 0xFE {
				return nil, fmt.Errorf("byte value %d out of range", v)
			}
			out = append(out, byte(v))
		case fieldLow:
			if v < 0 || v > 0x0F {
				return nil, fmt.Errorf("nibble value %d out of range", v)
			}
			out = append(out, f.value|byte(v))
		case fieldNib2:
			if v < 0 || v > 0xFF {
				return nil, fmt.Errorf("8-bit value %d out of range", v)
			}
			out = append(out, byte(v>>4)&0x0F, byte(v)&0x0F)
		case fieldNib4:
			if v < 0 || v > 0xFFFF {
				return nil, fmt.Errorf("16-bit value %d out of range", v)
			}
			out = appendNib4(out, uint16(v))
		case fieldNib4Signed:
			if v < -0x8000 || v > 0x7FFF {
				return nil, fmt.Errorf("signed 16-bit value %d out of range", v)
			}
			out = appendNib4(out, uint16(int16(v)))
		case fieldWord:
			if v < 0 || v > 0xFFFF || v&0xFF == 0xFF || v>>8 == 0xFF {
				return nil, fmt.Errorf("word value %d not encodable", v)
			}
			out = append(out, byte(v>>8), byte(v))
		}
	}
	return out, nil
}

func appendNib4(out []byte, v uint16) []byte {
	return append(out, byte(v>>12)&0x0F, byte(v>>8)&0x0F, byte(v>>4)&0x0F, byte(v)&0x0F)
}

func unpack(tpl []field, data []byte, nargs int) ([]int, error) {
	size := 0
	for _, f := range tpl {
		size += f.width()
	}
	if len(data) != size {
		return nil, fmt.Errorf("length %d, want %d", len(data), size)
	}

	values := make([]int, nargs)
	pos := 0
	for _, f := range tpl {
		b := data[pos : pos+f.width()]
		pos += f.width()
		switch f.kind {
		case fieldLiteral:
			if b[0] != f.value {
				return nil, fmt.Errorf("byte %02X, want %02X", b[0], f.value)
			}
		case fieldByte:
			values[f.arg] = int(b[0])
		case fieldLow:
			if b[0]&0xF0 != f.value {
				return nil, fmt.Errorf("byte %02X, want %X_", b[0], f.value>>4)
			}
			values[f.arg] = int(b[0] & 0x0F)
		case fieldNib2:
			if err := nibbles(b); err != nil {
				return nil, err
			}
			values[f.arg] = int(b[0])<<4 | int(b[1])
		case fieldNib4, fieldNib4Signed:
			if err := nibbles(b); err != nil {
				return nil, err
			}
			u := uint16(b[0])<<12 | uint16(b[1])<<8 | uint16(b[2])<<4 | uint16(b[3])
			if f.kind == fieldNib4Signed {
				values[f.arg] = int(int16(u))
			} else {
				values[f.arg] = int(u)
			}
		case fieldWord:
			values[f.arg] = int(b[0])<<8 | int(b[1])
		}
	}
	return values, nil
}

func nibbles(b []byte) error {
	for _, c := range b {
		if c > 0x0F {
			return fmt.Errorf("byte %02X is not a nibble", c)
		}
	}
	return nil
}
