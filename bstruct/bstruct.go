// Package bstruct converts fixed-layout structs to and from their
// binary representation.
//
// Only exported fields are considered. Supported field types are
// uint8, uint16, uint32, uint64, and byte arrays ([N]byte).
// Fields are laid out in declaration order without padding.
package bstruct

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
)

// FieldInfo describes a field as it is encoded or decoded.
type FieldInfo struct {
	Index int
	Name  string
	Type  string
	Value []byte
}

// StructToBytes encodes the struct s. If optFn is non-nil, it is
// called after each field is encoded.
func StructToBytes(s interface{}, bo binary.ByteOrder, optFn func(FieldInfo) error) ([]byte, error) {
	if s == nil {
		return nil, errors.New("struct is nil")
	}

	structValue := reflect.ValueOf(s)
	if structValue.Kind() == reflect.Ptr {
		structValue = structValue.Elem()
	}

	if structValue.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct - got %s", structValue.Kind())
	}

	structType := structValue.Type()

	var b []byte

	for i := 0; i < structValue.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldValue := structValue.Field(i)

		at := len(b)

		switch fieldValue.Kind() {
		case reflect.Uint8:
			b = append(b, uint8(fieldValue.Uint()))
		case reflect.Uint16:
			b = append(b, make([]byte, 2)...)
			bo.PutUint16(b[len(b)-2:], uint16(fieldValue.Uint()))
		case reflect.Uint32:
			b = append(b, make([]byte, 4)...)
			bo.PutUint32(b[len(b)-4:], uint32(fieldValue.Uint()))
		case reflect.Uint64:
			b = append(b, make([]byte, 8)...)
			bo.PutUint64(b[len(b)-8:], fieldValue.Uint())
		case reflect.Array:
			if field.Type.Elem().Kind() != reflect.Uint8 {
				return nil, fmt.Errorf("unsupported array type %s for field %q (index %d)",
					field.Type, field.Name, i)
			}
			for j := 0; j < fieldValue.Len(); j++ {
				b = append(b, uint8(fieldValue.Index(j).Uint()))
			}
		default:
			return nil, fmt.Errorf("unsupported data type %s for field %q (index %d)",
				field.Type, field.Name, i)
		}

		if optFn != nil {
			err := optFn(FieldInfo{
				Index: i,
				Name:  field.Name,
				Type:  field.Type.String(),
				Value: b[at:],
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return b, nil
}

// Size returns the number of bytes needed to encode a struct
// of the same type as s.
func Size(s interface{}) (int, error) {
	b, err := StructToBytes(s, binary.LittleEndian, nil)
	if err != nil {
		return 0, err
	}

	return len(b), nil
}

// BytesToStruct decodes b into the struct pointed to by ptr.
// b must be at least as long as the struct's encoding. Trailing
// bytes are ignored.
func BytesToStruct(b []byte, bo binary.ByteOrder, ptr interface{}) error {
	ptrValue := reflect.ValueOf(ptr)
	if ptrValue.Kind() != reflect.Ptr || ptrValue.IsNil() {
		return errors.New("destination must be a non-nil pointer to a struct")
	}

	structValue := ptrValue.Elem()
	if structValue.Kind() != reflect.Struct {
		return fmt.Errorf("expected a pointer to a struct - got a pointer to %s", structValue.Kind())
	}

	structType := structValue.Type()

	at := 0
	need := func(n int, name string) error {
		if at+n > len(b) {
			return fmt.Errorf("need %d bytes to decode field %q - only %d remain",
				n, name, len(b)-at)
		}
		return nil
	}

	for i := 0; i < structValue.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldValue := structValue.Field(i)

		switch fieldValue.Kind() {
		case reflect.Uint8:
			if err := need(1, field.Name); err != nil {
				return err
			}
			fieldValue.SetUint(uint64(b[at]))
			at++
		case reflect.Uint16:
			if err := need(2, field.Name); err != nil {
				return err
			}
			fieldValue.SetUint(uint64(bo.Uint16(b[at:])))
			at += 2
		case reflect.Uint32:
			if err := need(4, field.Name); err != nil {
				return err
			}
			fieldValue.SetUint(uint64(bo.Uint32(b[at:])))
			at += 4
		case reflect.Uint64:
			if err := need(8, field.Name); err != nil {
				return err
			}
			fieldValue.SetUint(bo.Uint64(b[at:]))
			at += 8
		case reflect.Array:
			if field.Type.Elem().Kind() != reflect.Uint8 {
				return fmt.Errorf("unsupported array type %s for field %q (index %d)",
					field.Type, field.Name, i)
			}
			n := fieldValue.Len()
			if err := need(n, field.Name); err != nil {
				return err
			}
			reflect.Copy(fieldValue, reflect.ValueOf(b[at:at+n]))
			at += n
		default:
			return fmt.Errorf("unsupported data type %s for field %q (index %d)",
				field.Type, field.Name, i)
		}
	}

	return nil
}
