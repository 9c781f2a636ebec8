// Package catalog maps named camera operations to VISCA byte templates and
// decodes inquiry replies into structured values.
package catalog

import (
	"fmt"
	"sort"

	"github.com/benarent/viscago/pkg/visca"
)

// Operation names one entry of the command/inquiry set.
type Operation string

// Param describes one caller-supplied parameter.
type Param struct {
	Name    string
	Min     int
	Max     int
	Allowed []int
}

func (p Param) check(v int) error {
	if v < p.Min || v > p.Max {
		return fmt.Errorf("%s=%d out of range %d..%d", p.Name, v, p.Min, p.Max)
	}
	if len(p.Allowed) == 0 {
		return nil
	}
	for _, a := range p.Allowed {
		if a == v {
			return nil
		}
	}
	return fmt.Errorf("%s=%d not one of %v", p.Name, v, p.Allowed)
}

// Definition is the static description of an operation.
type Definition struct {
	Operation   Operation
	Kind        visca.Kind
	Description string
	Params      []Param
	// Fields names the values decoded from an inquiry reply.
	Fields []string
	// Idempotent operations are safe to re-issue after a timeout.
	Idempotent bool

	template []field
	reply    []field
}

// IsInquiry reports whether the operation is answered by a single reply.
func (d Definition) IsInquiry() bool { return d.Kind == visca.KindInquiry }

// Request is a built packet body ready to be addressed.
type Request struct {
	Operation Operation
	Kind      visca.Kind
	Params    []int
	Payload   []byte
}

// Encode frames the request for a camera address.
func (r Request) Encode(address int) ([]byte, error) {
	return visca.Encode(r.Kind, address, r.Payload)
}

// Result is a decoded inquiry reply.
type Result struct {
	Operation Operation
	Fields    []string
	Values    []int
	Raw       []byte
}

// Value returns the named field.
func (r Result) Value(name string) (int, bool) {
	for i, f := range r.Fields {
		if f == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Int returns the named field or zero.
func (r Result) Int(name string) int {
	v, _ := r.Value(name)
	return v
}

var index = buildIndex()

func buildIndex() map[Operation]Definition {
	m := make(map[Operation]Definition, len(definitions))
	for _, d := range definitions {
		if _, dup := m[d.Operation]; dup {
			panic("catalog: duplicate operation " + string(d.Operation))
		}
		m[d.Operation] = d
	}
	return m
}

// Lookup returns the definition for op.
func Lookup(op Operation) (Definition, bool) {
	d, ok := index[op]
	return d, ok
}

// Operations lists every definition sorted by name.
func Operations() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Build validates params and packs them into the operation's template.
// Nothing is written on failure.
func Build(op Operation, params ...int) (Request, error) {
	d, ok := index[op]
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown operation %q", visca.ErrInvalidOperation, op)
	}
	if len(params) != len(d.Params) {
		return Request{}, fmt.Errorf("%w: %s takes %d parameters, got %d",
			visca.ErrInvalidOperation, op, len(d.Params), len(params))
	}
	for i, p := range d.Params {
		if err := p.check(params[i]); err != nil {
			return Request{}, fmt.Errorf("%w: %s: %v", visca.ErrInvalidOperation, op, err)
		}
	}
	payload, err := pack(d.template, params)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %s: %v", visca.ErrInvalidOperation, op, err)
	}
	return Request{Operation: op, Kind: d.Kind, Params: append([]int(nil), params...), Payload: payload}, nil
}

// Parse decodes an inquiry reply for op.
func Parse(op Operation, reply visca.Reply) (Result, error) {
	d, ok := index[op]
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown operation %q", visca.ErrInvalidOperation, op)
	}
	if !d.IsInquiry() {
		return Result{}, fmt.Errorf("%w: %s is not an inquiry", visca.ErrInvalidOperation, op)
	}
	if reply.Type != visca.ReplyCompletion || reply.Socket != 0 {
		return Result{}, fmt.Errorf("%w: %s reply is %s on socket %d", visca.ErrUnexpectedReply, op, reply.Type, reply.Socket)
	}
	values, err := unpack(d.reply, reply.Data, len(d.Fields))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s reply %X: %v", visca.ErrUnexpectedReply, op, reply.Data, err)
	}
	raw := append([]byte(nil), reply.Data...)
	return Result{Operation: op, Fields: d.Fields, Values: values, Raw: raw}, nil
}

// EncodeReply packs inquiry values into reply data (the bytes after 0x50).
func EncodeReply(op Operation, values ...int) ([]byte, error) {
	d, ok := index[op]
	if !ok || !d.IsInquiry() {
		return nil, fmt.Errorf("%w: %q is not an inquiry", visca.ErrInvalidOperation, op)
	}
	if len(values) != len(d.Fields) {
		return nil, fmt.Errorf("%w: %s reply has %d fields, got %d", visca.ErrInvalidOperation, op, len(d.Fields), len(values))
	}
	data, err := pack(d.reply, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", visca.ErrInvalidOperation, op, err)
	}
	return data, nil
}

// Identify maps a request packet back to its operation and parameters.
func Identify(p visca.Packet) (Operation, []int, error) {
	kind := p.Kind()
	for _, d := range definitions {
		if d.Kind != kind {
			continue
		}
		values, err := unpack(d.template, p.Payload, len(d.Params))
		if err != nil {
			continue
		}
		valid := true
		for i, prm := range d.Params {
			if prm.check(values[i]) != nil {
				valid = false
				break
			}
		}
		if valid {
			return d.Operation, values, nil
		}
	}
	return "", nil, fmt.Errorf("%w: no operation matches %s", visca.ErrInvalidOperation, p)
}
