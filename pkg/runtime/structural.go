package runtime

import (
	"sort"
	"strings"
)

// TypeDescriptor describes a type: its ordered properties and member functions.
type TypeDescriptor struct {
	Name       string
	Properties []string
	methods    map[string]Function
}

func NewTypeDescriptor(name string, properties []string) *TypeDescriptor {
	return &TypeDescriptor{Name: name, Properties: properties, methods: make(map[string]Function)}
}

func (td *TypeDescriptor) Method(name string) (Function, bool) {
	fn, ok := td.methods[name]
	return fn, ok
}

// DefineMethod installs fn under its own name, replacing an existing entry.
func (td *TypeDescriptor) DefineMethod(fn Function) {
	td.methods[fn.Name()] = fn
}

func (td *TypeDescriptor) HasProperty(name string) bool {
	for _, p := range td.Properties {
		if p == name {
			return true
		}
	}
	return false
}

func (td *TypeDescriptor) MethodNames() []string {
	names := make([]string, 0, len(td.methods))
	for name := range td.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal compares name, properties and the member-function key set; bodies are ignored.
func (td *TypeDescriptor) Equal(o *TypeDescriptor) bool {
	if td == o {
		return true
	}
	if td == nil || o == nil || td.Name != o.Name || len(td.Properties) != len(o.Properties) || len(td.methods) != len(o.methods) {
		return false
	}
	for i, p := range td.Properties {
		if o.Properties[i] != p {
			return false
		}
	}
	for name := range td.methods {
		if _, ok := o.methods[name]; !ok {
			return false
		}
	}
	return true
}

// TypeValue exposes a TypeDescriptor as a first-class value.
type TypeValue struct {
	Base
	Descriptor *TypeDescriptor
}

func NewTypeValue(td *TypeDescriptor) TypeValue { return TypeValue{Descriptor: td} }

func (t TypeValue) Kind() Kind            { return KindType }
func (t TypeValue) Bool() bool            { return true }
func (t TypeValue) Show() string          { return "type " + t.Descriptor.Name }
func (t TypeValue) Type() *TypeDescriptor { return builtinType("type") }

func (t TypeValue) Equal(rhs Object) bool {
	o, ok := rhs.(TypeValue)
	return ok && t.Descriptor.Equal(o.Descriptor)
}

// StructuralObject is an instance of a user-declared type.
type StructuralObject struct {
	Base
	descriptor *TypeDescriptor
	properties map[string]Object
	bound      map[string]Function
}

// NewStructuralObject builds an instance; declared properties missing from props are Unit.
func NewStructuralObject(td *TypeDescriptor, props map[string]Object) (*StructuralObject, error) {
	obj := &StructuralObject{
		descriptor: td,
		properties: make(map[string]Object, len(td.Properties)),
	}
	for name, v := range props {
		if !td.HasProperty(name) {
			return nil, RuntimeErrorf("type %s has no property '%s'", td.Name, name)
		}
		obj.properties[name] = v
	}
	for _, name := range td.Properties {
		if _, ok := obj.properties[name]; !ok {
			obj.properties[name] = UnitValue
		}
	}
	return obj, nil
}

func (s *StructuralObject) Kind() Kind            { return KindStructural }
func (s *StructuralObject) Bool() bool            { return true }
func (s *StructuralObject) Type() *TypeDescriptor { return s.descriptor }

func (s *StructuralObject) Property(name string) (Object, bool) {
	v, ok := s.properties[name]
	return v, ok
}

func (s *StructuralObject) SetProperty(name string, v Object) error {
	if !s.descriptor.HasProperty(name) {
		return RuntimeErrorf("type %s has no property '%s'", s.descriptor.Name, name)
	}
	s.properties[name] = v
	return nil
}

// bind attaches a member function to this instance only. Respond consults these
// first, but NG source has no syntax for per-instance members, so only code in
// this package installs them.
func (s *StructuralObject) bind(fn Function) {
	if s.bound == nil {
		s.bound = make(map[string]Function)
	}
	s.bound[fn.Name()] = fn
}

func (s *StructuralObject) Respond(name string, ctx *Context, args []Object) (Object, error) {
	if fn, ok := s.bound[name]; ok {
		return fn.Invoke(ctx, s, args)
	}
	if v, ok := s.properties[name]; ok {
		if len(args) != 0 {
			return nil, RuntimeErrorf("property '%s' of %s is not callable", name, s.descriptor.Name)
		}
		return v, nil
	}
	return DefaultRespond(s, name, ctx, args)
}

func (s *StructuralObject) Show() string {
	var b strings.Builder
	b.WriteString(s.descriptor.Name)
	b.WriteString("{")
	for i, name := range s.descriptor.Properties {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(showElement(s.properties[name]))
	}
	b.WriteString("}")
	return b.String()
}

func (s *StructuralObject) Equal(rhs Object) bool {
	o, ok := rhs.(*StructuralObject)
	if !ok {
		return false
	}
	if o == s {
		return true
	}
	if !s.descriptor.Equal(o.descriptor) {
		return false
	}
	for _, name := range s.descriptor.Properties {
		if !s.properties[name].Equal(o.properties[name]) {
			return false
		}
	}
	return true
}
