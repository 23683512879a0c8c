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
	"strings"

	"github.com/facebook/lttng-relay/internal/ctf"
)

// AppendFunc is supplied by the collaborator that owns the metadata
// channel (internal/relay's MetadataStream in this repo). Emit calls it
// once per top-level fragment.
type AppendFunc func(fragment string) error

// Emitter drives the TSDL serialization of a ctf.TraceClass, calling
// Append once per top-level fragment in fixed order: trace, env,
// clocks, streams, events. It carries no state across Emit calls other
// than Append itself.
type Emitter struct {
	Append AppendFunc
}

// Emit serializes tc and everything it owns, in fragment order. The
// first error, whether from field-type validation or from Append
// itself, stops emission and is returned to the caller. The
// trace/env/clocks/streams portion of that order is driven by tc.Visit;
// only event classes are walked directly, since they serialize per
// stream and aren't part of TraceVisitor.
func (e *Emitter) Emit(tc *ctf.TraceClass) error {
	v := &emitVisitor{e: e}
	tc.Visit(v)
	v.flushEnv()
	if v.err != nil {
		return v.err
	}

	for _, sc := range tc.StreamClasses {
		for _, ec := range sc.EventClasses {
			frag, err := e.eventFragment(tc.ABI, sc, ec)
			if err != nil {
				return err
			}
			if err := e.append(frag); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitVisitor is the ctf.TraceVisitor that actually drives Emit's
// output. Environment entries are buffered as they arrive and flushed
// as a single `env { ... };` fragment the first time a clock or stream
// class is visited (or once, after Visit returns, for a trace with no
// clocks or streams): the document wants one env fragment covering
// every entry, but TraceVisitor delivers them one at a time.
type emitVisitor struct {
	e   *Emitter
	tc  *ctf.TraceClass
	env []ctf.EnvEntry
	err error

	envFlushed bool
}

func (v *emitVisitor) VisitTraceClass(tc *ctf.TraceClass) {
	v.tc = tc
	if v.err != nil {
		return
	}
	frag, err := v.e.traceFragment(tc)
	if err != nil {
		v.err = err
		return
	}
	v.err = v.e.append(frag)
}

func (v *emitVisitor) VisitEnvEntry(entry ctf.EnvEntry) {
	if v.err != nil {
		return
	}
	v.env = append(v.env, entry)
}

func (v *emitVisitor) flushEnv() {
	if v.envFlushed {
		return
	}
	v.envFlushed = true
	if v.err != nil || len(v.env) == 0 {
		return
	}
	frag, err := v.e.envFragment(v.env)
	if err != nil {
		v.err = err
		return
	}
	v.err = v.e.append(frag)
}

func (v *emitVisitor) VisitClockClass(c *ctf.ClockClass) {
	v.flushEnv()
	if v.err != nil {
		return
	}
	frag, err := v.e.clockFragment(c)
	if err != nil {
		v.err = err
		return
	}
	v.err = v.e.append(frag)
}

func (v *emitVisitor) VisitStreamClass(sc *ctf.StreamClass) {
	v.flushEnv()
	if v.err != nil {
		return
	}
	frag, err := v.e.streamFragment(v.tc.ABI, sc)
	if err != nil {
		v.err = err
		return
	}
	v.err = v.e.append(frag)
}

func (e *Emitter) append(fragment string) error {
	if e.Append == nil {
		return newIoAppend("no append callback configured", nil)
	}
	if err := e.Append(fragment); err != nil {
		return newIoAppend("append callback failed", err)
	}
	return nil
}

// traceFragment builds the `/* CTF 1.8 */` + `trace { … };` fragment.
// long_size is emitted from ABI.LongSize; historical emitters reused
// the long alignment there, which was wrong.
func (e *Emitter) traceFragment(tc *ctf.TraceClass) (string, error) {
	var b strings.Builder
	b.WriteString("/* CTF 1.8 */\n\ntrace {\n")
	b.WriteString("\tmajor = 1;\n")
	b.WriteString("\tminor = 8;\n")
	fmt.Fprintf(&b, "\tuuid = \"%s\";\n", tc.UUID)
	fmt.Fprintf(&b, "\tbyte_order = %s;\n", tc.ABI.ByteOrder)
	fmt.Fprintf(&b, "\tlong_size = %d;\n", tc.ABI.LongSize)
	if tc.PacketHeader != nil {
		header, err := renderFieldType(tc.PacketHeader, tc.ABI, "", 1)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\tpacket.header := %s;\n", header)
	}
	b.WriteString("};\n\n")
	return b.String(), nil
}

// envFragment builds the single `env { KEY = VALUE; … };` fragment
// covering every entry, in insertion order.
func (e *Emitter) envFragment(entries []ctf.EnvEntry) (string, error) {
	var b strings.Builder
	b.WriteString("env {\n")
	for _, entry := range entries {
		switch {
		case entry.IntValue != nil:
			fmt.Fprintf(&b, "\t%s = %d;\n", entry.Key, *entry.IntValue)
		case entry.StrValue != nil:
			fmt.Fprintf(&b, "\t%s = \"%s\";\n", entry.Key, EscapeEnvString(*entry.StrValue))
		default:
			return "", newInvalidFieldType(fmt.Sprintf("environment entry %q has neither an int nor a string value", entry.Key))
		}
	}
	b.WriteString("};\n\n")
	return b.String(), nil
}

func (e *Emitter) clockFragment(c *ctf.ClockClass) (string, error) {
	var b strings.Builder
	b.WriteString("clock {\n")
	fmt.Fprintf(&b, "\tname = \"%s\";\n", c.Name)
	if c.UUID != "" {
		fmt.Fprintf(&b, "\tuuid = \"%s\";\n", c.UUID)
	}
	// uuid is the only optional key; description is always emitted, even
	// when empty.
	fmt.Fprintf(&b, "\tdescription = \"%s\";\n", EscapeEnvString(c.Description))
	fmt.Fprintf(&b, "\tfreq = %d;\n", c.FrequencyHz)
	fmt.Fprintf(&b, "\toffset = %d;\n", c.OffsetTicks)
	b.WriteString("};\n\n")
	return b.String(), nil
}

// streamFragment builds the `stream { … };` fragment. The event.header
// and packet.context are rendered with the
// stream's default clock class name available to integer fields
// carrying a clock-timestamp role; event.context is rendered without
// it, since per-event context fields never carry that role.
func (e *Emitter) streamFragment(abi ctf.ABI, sc *ctf.StreamClass) (string, error) {
	var b strings.Builder
	b.WriteString("stream {\n")
	fmt.Fprintf(&b, "\tid = %d;\n", sc.ID)
	if sc.EventHeader != nil {
		text, err := renderFieldType(sc.EventHeader, abi, sc.DefaultClockClassName, 1)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\tevent.header := %s;\n", text)
	}
	if sc.PacketContext != nil {
		text, err := renderFieldType(sc.PacketContext, abi, sc.DefaultClockClassName, 1)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\tpacket.context := %s;\n", text)
	}
	if sc.EventContext != nil {
		text, err := renderFieldType(sc.EventContext, abi, "", 1)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\tevent.context := %s;\n", text)
	}
	b.WriteString("};\n\n")
	return b.String(), nil
}

func (e *Emitter) eventFragment(abi ctf.ABI, sc *ctf.StreamClass, ec *ctf.EventClass) (string, error) {
	var b strings.Builder
	b.WriteString("event {\n")
	fmt.Fprintf(&b, "\tname = \"%s\";\n", EscapeEnvString(ec.Name))
	fmt.Fprintf(&b, "\tid = %d;\n", ec.ID)
	fmt.Fprintf(&b, "\tstream_id = %d;\n", ec.StreamClassID)
	fmt.Fprintf(&b, "\tloglevel = %d;\n", ec.LogLevel)
	if ec.EMFURI != "" {
		fmt.Fprintf(&b, "\tmodel.emf.uri = \"%s\";\n", EscapeEnvString(ec.EMFURI))
	}
	if ec.Payload != nil {
		text, err := renderFieldType(ec.Payload, abi, "", 1)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\tfields := %s;\n", text)
	}
	b.WriteString("};\n\n")
	return b.String(), nil
}
