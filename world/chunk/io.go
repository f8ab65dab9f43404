package chunk

import (
	"encoding/binary"
	"io"
)

// readValues reads len(out) little-endian 16-bit block values.
func readValues(r io.Reader, out []Value) error {
	if len(out) == 0 {
		return nil
	}
	buf := make([]byte, len(out)*2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	for i := range out {
		out[i] = Value(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return nil
}

// writeValues writes values as little-endian 16-bit words.
func writeValues(w io.Writer, values []Value) error {
	if len(values) == 0 {
		return nil
	}
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	_, err := w.Write(buf)
	return err
}

// readData reads len(out) block-data bytes.
func readData(r io.Reader, out []Data) error {
	if len(out) == 0 {
		return nil
	}
	_, err := io.ReadFull(r, out)
	return err
}

// writeData writes block-data bytes.
func writeData(w io.Writer, data []Data) error {
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}
