package runtime

// Function is anything callable by name or through member dispatch.
type Function interface {
	Name() string
	// Arity is the parameter count, or -1 when the function is variadic.
	Arity() int
	// Invoke runs the function on behalf of caller. self is nil for plain calls.
	Invoke(caller *Context, self Object, args []Object) (Object, error)
}

// NativeCallContext is handed to natively implemented functions.
type NativeCallContext struct {
	Context *Context
	Self    Object
}

type NativeFunc func(call *NativeCallContext, args []Object) (Object, error)

// NativeFunction adapts a Go function to the Function protocol.
type NativeFunction struct {
	FuncName string
	Params   int
	Impl     NativeFunc
}

func NewNativeFunction(name string, arity int, impl NativeFunc) *NativeFunction {
	return &NativeFunction{FuncName: name, Params: arity, Impl: impl}
}

func (f *NativeFunction) Name() string { return f.FuncName }
func (f *NativeFunction) Arity() int   { return f.Params }

func (f *NativeFunction) Invoke(caller *Context, self Object, args []Object) (Object, error) {
	if err := CheckArity(f, len(args)); err != nil {
		return nil, err
	}
	res, err := f.Impl(&NativeCallContext{Context: caller, Self: self}, args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return UnitValue, nil
	}
	return res, nil
}

// CheckArity fails when got does not match the function's declared parameter count.
func CheckArity(fn Function, got int) error {
	if want := fn.Arity(); want >= 0 && want != got {
		return RuntimeErrorf("%s expects %d argument(s), got %d", fn.Name(), want, got)
	}
	return nil
}
