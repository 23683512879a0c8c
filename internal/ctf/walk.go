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

// integerCollector is an internal FieldTypeVisitor that recurses into
// every composite FieldType and records every Integer it finds,
// including enum/variant underlying integers. Used by validation
// (invariant checks at construction time), not by the emitter, which
// has its own visitor in internal/tsdl.
type integerCollector struct {
	found []*Integer
}

func collectIntegers(ft FieldType) []*Integer {
	if ft == nil {
		return nil
	}
	c := &integerCollector{}
	ft.Accept(c)
	return c.found
}

func (c *integerCollector) VisitInteger(i *Integer) { c.found = append(c.found, i) }
func (c *integerCollector) VisitFloat(*Float) {}

func (c *integerCollector) VisitSignedEnum(e *Enum) { c.found = append(c.found, e.Underlying) }
func (c *integerCollector) VisitUnsignedEnum(e *Enum) { c.found = append(c.found, e.Underlying) }

func (c *integerCollector) VisitStaticArray(a *StaticArray) { a.Element.Accept(c) }
func (c *integerCollector) VisitDynamicArray(a *DynamicArray) { a.Element.Accept(c) }

func (c *integerCollector) VisitStaticBlob(*StaticBlob) {}
func (c *integerCollector) VisitDynamicBlob(*DynamicBlob) {}

func (c *integerCollector) VisitNullTerminatedString(*NullTerminatedString) {}
func (c *integerCollector) VisitStaticString(*StaticString) {}
func (c *integerCollector) VisitDynamicString(*DynamicString) {}

func (c *integerCollector) VisitStructure(s *Structure) {
	for _, f := range s.Fields {
		f.Type.Accept(c)
	}
}

func (c *integerCollector) VisitSignedVariant(t *Variant) { c.visitVariant(t) }
func (c *integerCollector) VisitUnsignedVariant(t *Variant) { c.visitVariant(t) }

func (c *integerCollector) visitVariant(t *Variant) {
	for _, choice := range t.Choices {
		choice.Type.Accept(c)
	}
}
