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

package tsdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/facebook/lttng-relay/internal/ctf"
)

// fieldEmitter is the FieldTypeVisitor that renders a type subtree as
// TSDL text. It carries
// the trace ABI, the containing stream's default clock class name (may
// be empty), the current indentation level, whether identifier
// escaping is bypassed (true inside a variant's choices), and a
// one-shot integer-encoding override consumed by the next Integer it
// renders.
//
// Visit* methods write the node's own inline type text into out. The
// six "lowered to array" kinds (StaticArray, DynamicArray, the blobs
// and the sized strings) additionally set isArray/bracket/paddingAlign
// so that renderField can compose the name-and-brackets statement the
// way TSDL actually spells arrays: the bracket always follows the
// field name, never the type.
type fieldEmitter struct {
	abi          ctf.ABI
	defaultClock string
	indent       int
	bypassEscape bool
	encOverride  *ctf.Encoding

	out strings.Builder
	err error

	isArray      bool
	bracket      string
	paddingAlign uint
}

// renderFieldType is the package entry point used for whole subtrees
// that stand alone (packet.header, event.header, packet.context,
// event.context, an event class's payload) rather than as a named
// struct field.
func renderFieldType(ft ctf.FieldType, abi ctf.ABI, defaultClock string, indent int) (string, error) {
	if ft == nil {
		return "", newInvalidFieldType("field type must not be nil")
	}
	fe := &fieldEmitter{abi: abi, defaultClock: defaultClock, indent: indent}
	ft.Accept(fe)
	if fe.err != nil {
		return "", fe.err
	}
	return fe.out.String(), nil
}

func (fe *fieldEmitter) escapeName(name string) (string, error) {
	if fe.bypassEscape {
		return name, nil
	}
	return EscapeIdentifier(name)
}

// renderField renders one named member (struct field or variant
// choice) at fe's indentation, handling the padding-struct and
// bracket-suffix conventions uniformly for every FieldType kind.
func (fe *fieldEmitter) renderField(name string, ft ctf.FieldType) (string, error) {
	child := &fieldEmitter{abi: fe.abi, defaultClock: fe.defaultClock, indent: fe.indent, bypassEscape: fe.bypassEscape}
	ft.Accept(child)
	if child.err != nil {
		return "", child.err
	}
	tabs := strings.Repeat("\t", fe.indent)
	var b strings.Builder
	if child.paddingAlign != 0 {
		fmt.Fprintf(&b, "%sstruct { } align(%d) %s_padding;\n", tabs, child.paddingAlign, name)
	}
	b.WriteString(tabs)
	b.WriteString(child.out.String())
	b.WriteByte(' ')
	b.WriteString(name)
	if child.isArray {
		b.WriteByte('[')
		b.WriteString(child.bracket)
		b.WriteByte(']')
	}
	b.WriteString(";\n")
	return b.String(), nil
}

func baseValue(b ctf.IntegerBase) int {
	switch b {
	case ctf.BaseBin:
		return 2
	case ctf.BaseOct:
		return 8
	case ctf.BaseHex:
		return 16
	default:
		return 10
	}
}

func encodingString(e ctf.Encoding) string {
	if e == ctf.EncodingASCII {
		return "ASCII"
	}
	return "UTF8"
}

func encodingPtr(e ctf.Encoding) *ctf.Encoding {
	if e == ctf.EncodingNone {
		return nil
	}
	return &e
}

// renderInteger is shared by VisitInteger and every lowering (blobs,
// sized strings) that needs an 8-bit byte integer's textual form.
// forceBase emits `base = …;` even for decimal, which the blob (hex)
// and sized-string (decimal) lowerings both require, unlike a plain
// user Integer field where decimal is the implicit default and is
// omitted.
func (fe *fieldEmitter) renderInteger(i *ctf.Integer, forceBase bool) string {
	var b strings.Builder
	b.WriteString("integer { size = ")
	b.WriteString(strconv.FormatUint(uint64(i.SizeBits), 10))
	b.WriteString("; align = ")
	b.WriteString(strconv.FormatUint(uint64(i.Alignment), 10))
	b.WriteString(";")
	if i.Signed {
		b.WriteString(" signed = true;")
	}
	if forceBase || i.Base != ctf.BaseDec {
		b.WriteString(" base = ")
		b.WriteString(strconv.Itoa(baseValue(i.Base)))
		b.WriteString(";")
	}
	if i.ByteOrder != fe.abi.ByteOrder {
		b.WriteString(" byte_order = ")
		b.WriteString(i.ByteOrder.String())
		b.WriteString(";")
	}
	if fe.encOverride != nil {
		b.WriteString(" encoding = ")
		b.WriteString(encodingString(*fe.encOverride))
		b.WriteString(";")
		fe.encOverride = nil
	}
	if i.HasRole(ctf.RoleDefaultClockTimestamp) || i.HasRole(ctf.RolePacketEndDefaultClockTimestamp) {
		if fe.defaultClock == "" {
			fe.err = newInvalidFieldType("integer field carries a default-clock-timestamp role but its stream has no default clock class")
			return ""
		}
		b.WriteString(" map = clock.")
		b.WriteString(fe.defaultClock)
		b.WriteString(".value;")
	}
	b.WriteString(" }")
	return b.String()
}

func (fe *fieldEmitter) VisitInteger(i *ctf.Integer) {
	fe.out.WriteString(fe.renderInteger(i, false))
}

func (fe *fieldEmitter) renderFloat(f *ctf.Float) string {
	var b strings.Builder
	b.WriteString("floating_point { align = ")
	b.WriteString(strconv.FormatUint(uint64(f.Alignment), 10))
	b.WriteString("; mant_dig = ")
	b.WriteString(strconv.FormatUint(uint64(f.MantissaDigits), 10))
	b.WriteString("; exp_dig = ")
	b.WriteString(strconv.FormatUint(uint64(f.ExponentDigits), 10))
	b.WriteString(";")
	if f.ByteOrder != fe.abi.ByteOrder {
		b.WriteString(" byte_order = ")
		b.WriteString(f.ByteOrder.String())
		b.WriteString(";")
	}
	b.WriteString(" }")
	return b.String()
}

func (fe *fieldEmitter) VisitFloat(f *ctf.Float) {
	fe.out.WriteString(fe.renderFloat(f))
}

func (fe *fieldEmitter) emitEnum(e *ctf.Enum) {
	underlying := fe.renderInteger(e.Underlying, false)
	if fe.err != nil {
		return
	}
	fe.out.WriteString("enum : ")
	fe.out.WriteString(underlying)
	fe.out.WriteString(" {\n")
	tabs := strings.Repeat("\t", fe.indent+1)
	for idx, m := range e.Mappings {
		fe.out.WriteString(tabs)
		fe.out.WriteString(`"`)
		fe.out.WriteString(m.Name)
		fe.out.WriteString(`" = `)
		fe.out.WriteString(strconv.FormatInt(m.Begin, 10))
		if m.End != m.Begin {
			fe.out.WriteString(" ... ")
			fe.out.WriteString(strconv.FormatInt(m.End, 10))
		}
		if idx != len(e.Mappings)-1 {
			fe.out.WriteString(",")
		}
		fe.out.WriteString("\n")
	}
	fe.out.WriteString(strings.Repeat("\t", fe.indent))
	fe.out.WriteString("}")
}

func (fe *fieldEmitter) VisitSignedEnum(e *ctf.Enum) { fe.emitEnum(e) }
func (fe *fieldEmitter) VisitUnsignedEnum(e *ctf.Enum) { fe.emitEnum(e) }

func (fe *fieldEmitter) VisitStructure(s *ctf.Structure) {
	fe.out.WriteString("struct {\n")
	inner := &fieldEmitter{abi: fe.abi, defaultClock: fe.defaultClock, indent: fe.indent + 1, bypassEscape: fe.bypassEscape}
	for _, f := range s.Fields {
		name, err := fe.escapeName(f.Name)
		if err != nil {
			fe.err = err
			return
		}
		stmt, err := inner.renderField(name, f.Type)
		if err != nil {
			fe.err = err
			return
		}
		fe.out.WriteString(stmt)
	}
	fe.out.WriteString(strings.Repeat("\t", fe.indent))
	fe.out.WriteString("}")
}

func (fe *fieldEmitter) lengthTail(location []string) (string, error) {
	tail := location[len(location)-1]
	if fe.bypassEscape {
		return tail, nil
	}
	return EscapeIdentifier(tail)
}

func (fe *fieldEmitter) VisitStaticArray(a *ctf.StaticArray) {
	elem := &fieldEmitter{abi: fe.abi, defaultClock: fe.defaultClock, indent: fe.indent, bypassEscape: fe.bypassEscape, encOverride: fe.encOverride}
	a.Element.Accept(elem)
	if elem.err != nil {
		fe.err = elem.err
		return
	}
	fe.out.WriteString(elem.out.String())
	fe.isArray = true
	fe.bracket = strconv.FormatUint(a.Length, 10)
	fe.paddingAlign = a.Alignment
}

func (fe *fieldEmitter) VisitDynamicArray(a *ctf.DynamicArray) {
	elem := &fieldEmitter{abi: fe.abi, defaultClock: fe.defaultClock, indent: fe.indent, bypassEscape: fe.bypassEscape, encOverride: fe.encOverride}
	a.Element.Accept(elem)
	if elem.err != nil {
		fe.err = elem.err
		return
	}
	fe.out.WriteString(elem.out.String())
	fe.isArray = true
	tail, err := fe.lengthTail(a.LengthFieldLocation)
	if err != nil {
		fe.err = err
		return
	}
	fe.bracket = tail
	fe.paddingAlign = a.Alignment
}

// blobByteInteger is the element type every blob lowers to: an
// unsigned, hex-displayed byte. Its byte order follows the trace ABI so
// renderInteger never emits a byte_order clause for a single byte.
func (fe *fieldEmitter) blobByteInteger() *ctf.Integer {
	return &ctf.Integer{SizeBits: 8, Alignment: 8, Signed: false, Base: ctf.BaseHex, ByteOrder: fe.abi.ByteOrder}
}

func (fe *fieldEmitter) VisitStaticBlob(b *ctf.StaticBlob) {
	fe.out.WriteString(fe.renderInteger(fe.blobByteInteger(), true))
	fe.isArray = true
	fe.bracket = strconv.FormatUint(b.Length, 10)
	fe.paddingAlign = b.Alignment
}

func (fe *fieldEmitter) VisitDynamicBlob(b *ctf.DynamicBlob) {
	fe.out.WriteString(fe.renderInteger(fe.blobByteInteger(), true))
	fe.isArray = true
	tail, err := fe.lengthTail(b.LengthFieldLocation)
	if err != nil {
		fe.err = err
		return
	}
	fe.bracket = tail
	fe.paddingAlign = b.Alignment
}

func (fe *fieldEmitter) VisitNullTerminatedString(s *ctf.NullTerminatedString) {
	if s.Encoding == ctf.EncodingASCII {
		fe.out.WriteString("string { encoding = ASCII }")
		return
	}
	fe.out.WriteString("string")
}

// stringByteInteger is the element type a sized string lowers to: an
// unsigned, decimal byte (decimal, not hex, unlike a blob's bytes).
// Byte order follows the trace ABI, same as blobByteInteger.
func (fe *fieldEmitter) stringByteInteger() *ctf.Integer {
	return &ctf.Integer{SizeBits: 8, Alignment: 8, Signed: false, Base: ctf.BaseDec, ByteOrder: fe.abi.ByteOrder}
}

func (fe *fieldEmitter) VisitStaticString(s *ctf.StaticString) {
	fe.encOverride = encodingPtr(s.Encoding)
	fe.out.WriteString(fe.renderInteger(fe.stringByteInteger(), true))
	fe.isArray = true
	fe.bracket = strconv.FormatUint(s.Length, 10)
	fe.paddingAlign = s.Alignment
}

func (fe *fieldEmitter) VisitDynamicString(s *ctf.DynamicString) {
	fe.encOverride = encodingPtr(s.Encoding)
	fe.out.WriteString(fe.renderInteger(fe.stringByteInteger(), true))
	fe.isArray = true
	tail, err := fe.lengthTail(s.LengthFieldLocation)
	if err != nil {
		fe.err = err
		return
	}
	fe.bracket = tail
	fe.paddingAlign = s.Alignment
}

func (fe *fieldEmitter) emitVariant(t *ctf.Variant) {
	if len(t.TagFieldLocation) == 0 {
		fe.err = newInvalidFieldType("variant has no tag field location")
		return
	}
	tag, err := fe.lengthTail(t.TagFieldLocation)
	if err != nil {
		fe.err = err
		return
	}
	fe.out.WriteString("variant <")
	fe.out.WriteString(tag)
	fe.out.WriteString("> {\n")
	inner := &fieldEmitter{abi: fe.abi, defaultClock: fe.defaultClock, indent: fe.indent + 1, bypassEscape: true}
	for _, c := range t.Choices {
		stmt, err := inner.renderField(c.Name, c.Type)
		if err != nil {
			fe.err = err
			return
		}
		fe.out.WriteString(stmt)
	}
	fe.out.WriteString(strings.Repeat("\t", fe.indent))
	fe.out.WriteString("}")
	fe.paddingAlign = t.Alignment
}

func (fe *fieldEmitter) VisitSignedVariant(t *ctf.Variant) { fe.emitVariant(t) }
func (fe *fieldEmitter) VisitUnsignedVariant(t *ctf.Variant) { fe.emitVariant(t) }
