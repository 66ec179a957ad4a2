// Package formats implements corerender's engine-native binary resource
// formats: compiled meshes (.msh), physics collision geometry (.phy), and
// skeletal animation clips (.ani). These supplement engine/loader's glTF
// backend with the formats the engine actually ships assets in.
package formats

import (
	"encoding/binary"
	"fmt"
	"io"
)

// readString reads a length-prefixed (i32) UTF-8 string, matching the
// length+utf8 encoding used throughout the .msh/.phy/.ani layouts.
func readString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d", n)
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read string bytes: %w", err)
	}
	return string(buf), nil
}

// writeString writes a length-prefixed (i32) UTF-8 string.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(s))); err != nil {
		return fmt.Errorf("write string length: %w", err)
	}
	if len(s) == 0 {
		return nil
	}
	_, err := w.Write([]byte(s))
	if err != nil {
		return fmt.Errorf("write string bytes: %w", err)
	}
	return nil
}

func readVec3(r io.Reader) (v [3]float32, err error) {
	err = binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeVec3(w io.Writer, v [3]float32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readVec4(r io.Reader) (v [4]float32, err error) {
	err = binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeVec4(w io.Writer, v [4]float32) error {
	return binary.Write(w, binary.LittleEndian, v)
}
