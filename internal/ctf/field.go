/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ctf

import "fmt"

// Role is a semantic tag on an Integer field identifying it as a
// well-known element of a packet or event (timestamp, packet magic,
// stream id and so on).
type Role int

// Roles an Integer field can carry. A field may carry more than one.
const (
	RolePacketMagic Role = iota
	RolePacketStreamID
	RolePacketContextContentSize
	RolePacketContextPacketSize
	RolePacketContextEventsDiscarded
	RolePacketContextPacketSeqNum
	RoleDefaultClockTimestamp
	RolePacketEndDefaultClockTimestamp
	RoleStreamInstanceID
)

var roleNames = map[Role]string{
	RolePacketMagic:                    "packet_magic",
	RolePacketStreamID:                 "packet_stream_id",
	RolePacketContextContentSize:       "packet_context_content_size",
	RolePacketContextPacketSize:        "packet_context_packet_size",
	RolePacketContextEventsDiscarded:   "packet_context_events_discarded",
	RolePacketContextPacketSeqNum:      "packet_context_packet_seq_num",
	RoleDefaultClockTimestamp:          "default_clock_timestamp",
	RolePacketEndDefaultClockTimestamp: "packet_end_default_clock_timestamp",
	RoleStreamInstanceID:               "stream_instance_id",
}

func (r Role) String() string { return roleNames[r] }

// IntegerBase is the numeric base an Integer's value is displayed in.
type IntegerBase int

// Numeric bases a TSDL integer can declare.
const (
	BaseDec IntegerBase = iota
	BaseBin
	BaseOct
	BaseHex
)

// Encoding is the text encoding of a string-like field.
type Encoding int

// Encodings a TSDL string-like field can declare.
const (
	EncodingNone Encoding = iota
	EncodingASCII
	EncodingUTF8
)

// FieldType is the closed sum type of field kinds: every concrete
// field-type variant implements it and accepts a FieldTypeVisitor,
// which is responsible for all ordering, indentation and string
// emission. FieldType values themselves do no serialization.
type FieldType interface {
	Accept(v FieldTypeVisitor)
	fieldType()
}

// FieldTypeVisitor has one method per FieldType variant. No open-ended
// polymorphism: adding a new kind of field means adding a method here,
// not subclassing.
type FieldTypeVisitor interface {
	VisitInteger(*Integer)
	VisitFloat(*Float)
	VisitSignedEnum(*Enum)
	VisitUnsignedEnum(*Enum)
	VisitStaticArray(*StaticArray)
	VisitDynamicArray(*DynamicArray)
	VisitStaticBlob(*StaticBlob)
	VisitDynamicBlob(*DynamicBlob)
	VisitNullTerminatedString(*NullTerminatedString)
	VisitStaticString(*StaticString)
	VisitDynamicString(*DynamicString)
	VisitStructure(*Structure)
	VisitSignedVariant(*Variant)
	VisitUnsignedVariant(*Variant)
}

// Field is a named member of a Structure or a Variant choice.
type Field struct {
	Name string
	Type FieldType
}

// Integer is a fixed-width integer field.
type Integer struct {
	SizeBits  uint
	Alignment uint
	Signed    bool
	Base      IntegerBase
	ByteOrder ByteOrder
	Roles     []Role
}

func (i *Integer) fieldType() {}
func (i *Integer) Accept(v FieldTypeVisitor) { v.VisitInteger(i) }

// HasRole reports whether r is among i's roles.
func (i *Integer) HasRole(r Role) bool {
	for _, role := range i.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// Float is an IEEE-754-shaped floating point field.
type Float struct {
	Alignment      uint
	MantissaDigits uint
	ExponentDigits uint
	ByteOrder      ByteOrder
}

func (f *Float) fieldType() {}
func (f *Float) Accept(v FieldTypeVisitor) { v.VisitFloat(f) }

// EnumRange is one name -> [Begin, End] mapping of an Enum. Ranges may
// overlap; mapping order is preserved and significant for emission.
type EnumRange struct {
	Name  string
	Begin int64
	End   int64
}

// Enum is an enumeration: an underlying Integer plus an
// ordered list of mappings. Signed selects which FieldTypeVisitor
// method Accept dispatches to (SignedEnum vs UnsignedEnum), mirroring
// the underlying integer's signedness.
type Enum struct {
	Underlying *Integer
	Signed     bool
	Mappings   []EnumRange
}

func (e *Enum) fieldType() {}
func (e *Enum) Accept(v FieldTypeVisitor) {
	if e.Signed {
		v.VisitSignedEnum(e)
		return
	}
	v.VisitUnsignedEnum(e)
}

// StaticArray is a fixed-length array of Element.
type StaticArray struct {
	Element   FieldType
	Length    uint64
	Alignment uint
}

func (a *StaticArray) fieldType() {}
func (a *StaticArray) Accept(v FieldTypeVisitor) { v.VisitStaticArray(a) }

// DynamicArray is a variable-length array of Element whose length is
// read from an unsigned Integer field reachable by LengthFieldLocation,
// a path relative to the enclosing scope. Only the last path component
// is ever emitted; nested scopes rely on it being unique.
type DynamicArray struct {
	Element             FieldType
	LengthFieldLocation []string
	Alignment           uint
}

func (a *DynamicArray) fieldType() {}
func (a *DynamicArray) Accept(v FieldTypeVisitor) { v.VisitDynamicArray(a) }

// StaticBlob is a fixed-length blob, lowered at emission time to an
// array of 8-bit unsigned hex integers.
type StaticBlob struct {
	Length    uint64
	Alignment uint
}

func (b *StaticBlob) fieldType() {}
func (b *StaticBlob) Accept(v FieldTypeVisitor) { v.VisitStaticBlob(b) }

// DynamicBlob is a variable-length blob, same lowering as StaticBlob.
type DynamicBlob struct {
	LengthFieldLocation []string
	Alignment           uint
}

func (b *DynamicBlob) fieldType() {}
func (b *DynamicBlob) Accept(v FieldTypeVisitor) { v.VisitDynamicBlob(b) }

// NullTerminatedString is a classic C string field.
type NullTerminatedString struct {
	Encoding Encoding
}

func (s *NullTerminatedString) fieldType() {}
func (s *NullTerminatedString) Accept(v FieldTypeVisitor) { v.VisitNullTerminatedString(s) }

// StaticString is a fixed-length string, lowered to an array of bytes.
type StaticString struct {
	Length    uint64
	Encoding  Encoding
	Alignment uint
}

func (s *StaticString) fieldType() {}
func (s *StaticString) Accept(v FieldTypeVisitor) { v.VisitStaticString(s) }

// DynamicString is a variable-length string, lowered to an array of
// bytes whose length comes from LengthFieldLocation.
type DynamicString struct {
	LengthFieldLocation []string
	Encoding            Encoding
	Alignment           uint
}

func (s *DynamicString) fieldType() {}
func (s *DynamicString) Accept(v FieldTypeVisitor) { v.VisitDynamicString(s) }

// Structure is an ordered list of named Fields.
type Structure struct {
	Fields []Field
}

func (s *Structure) fieldType() {}
func (s *Structure) Accept(v FieldTypeVisitor) { v.VisitStructure(s) }

// VariantChoice is one tag-name -> FieldType arm of a Variant.
type VariantChoice struct {
	Name string
	Type FieldType
}

// Variant is a tagged union: a tag-field location plus an ordered list
// of choices. Alignment can be
// externally imposed (0 means none). Signed mirrors the tag's
// underlying enum signedness, same role as Enum.Signed.
type Variant struct {
	TagFieldLocation []string
	Choices          []VariantChoice
	Signed           bool
	Alignment        uint
}

func (t *Variant) fieldType() {}
func (t *Variant) Accept(v FieldTypeVisitor) {
	if t.Signed {
		v.VisitSignedVariant(t)
		return
	}
	v.VisitUnsignedVariant(t)
}

// NewStructure validates field names are non-empty and distinct within
// the structure.
func NewStructure(fields ...Field) (*Structure, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("ctf: structure field name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("ctf: structure field %q declared more than once", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return &Structure{Fields: fields}, nil
}

// NewDynamicArray validates that LengthFieldLocation is non-empty: a
// dynamic-length type must reference a field.
func NewDynamicArray(element FieldType, lengthFieldLocation []string, alignment uint) (*DynamicArray, error) {
	if len(lengthFieldLocation) == 0 {
		return nil, fmt.Errorf("ctf: dynamic array length field location must not be empty")
	}
	return &DynamicArray{Element: element, LengthFieldLocation: lengthFieldLocation, Alignment: alignment}, nil
}

// NewVariant validates the tag path and choice set are non-empty and
// that choice names are distinct.
func NewVariant(tagFieldLocation []string, signed bool, alignment uint, choices ...VariantChoice) (*Variant, error) {
	if len(tagFieldLocation) == 0 {
		return nil, fmt.Errorf("ctf: variant tag field location must not be empty")
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("ctf: variant must have at least one choice")
	}
	seen := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		if c.Name == "" {
			return nil, fmt.Errorf("ctf: variant choice name must not be empty")
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("ctf: variant choice %q declared more than once", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return &Variant{TagFieldLocation: tagFieldLocation, Signed: signed, Alignment: alignment, Choices: choices}, nil
}

// NewEnum validates that there is at least one mapping.
func NewEnum(underlying *Integer, signed bool, mappings ...EnumRange) (*Enum, error) {
	if underlying == nil {
		return nil, fmt.Errorf("ctf: enum underlying integer must not be nil")
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("ctf: enum must have at least one mapping")
	}
	return &Enum{Underlying: underlying, Signed: signed, Mappings: mappings}, nil
}
