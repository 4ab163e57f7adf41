package verify

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/jsval"
	"github.com/hlop3z/seqgen/internal/types"
)

// Timeout bounds the execution of one module.
var Timeout = 5 * time.Second

// Definition is what a generated module passed to Model.init.
type Definition struct {
	// Class is the name of the class init was called on.
	Class string
	// Fields and Options hold the init arguments. DataTypes references and
	// the sequelize instance come back as jsval.Raw.
	Fields  *jsval.Map
	Options *jsval.Map
}

// ModelName returns options.modelName, or "" when it is not a string.
func (d *Definition) ModelName() string {
	v, _ := d.Options.Get("modelName")
	s, _ := v.(jsval.Str)
	return string(s)
}

// Property names marking stub values; the generated code never uses them.
const (
	typeMarker        = "__seqgenType"
	instanceMarker    = "__seqgenInstance"
	unknownTypeMarker = "__seqgenUnknownType"
)

// prelude defines the stub sequelize module. %s is the JSON list of
// DataTypes members.
const prelude = `
var __seqgen = (function (members) {
	var modifiers = ['BINARY', 'UNSIGNED', 'ZEROFILL'];
	function type(expr) {
		var t = function () {
			return type(expr + '(' + Array.prototype.join.call(arguments, ', ') + ')');
		};
		t.` + typeMarker + ` = expr;
		modifiers.forEach(function (m) {
			Object.defineProperty(t, m, { get: function () { return type(expr + '.' + m); } });
		});
		return t;
	}

	var known = {};
	members.forEach(function (m) { known[m] = type('DataTypes.' + m); });
	var DataTypes = new Proxy(known, {
		get: function (target, prop) {
			if (typeof prop === 'string' && !(prop in target)) {
				var err = new Error('DataTypes.' + prop + ' is not a Sequelize datatype');
				err.` + unknownTypeMarker + ` = prop;
				throw err;
			}
			return target[prop];
		}
	});

	var calls = [];
	class Model {
		static init(fields, options) {
			calls.push({ model: this, name: this.name, fields: fields, options: options });
			return this;
		}
	}

	var module = { exports: {} };
	return {
		module: module,
		calls: calls,
		instance: { ` + instanceMarker + `: true },
		require: function (name) {
			if (name !== 'sequelize') {
				throw new Error("Cannot find module '" + name + "'");
			}
			return { DataTypes: DataTypes, Model: Model };
		}
	};
})(%s);
`

// Evaluate runs src as a CommonJS module, calls the exported factory with a
// stub sequelize instance and returns the captured Model.init arguments.
// Errors carry ErrJSSyntax, ErrJSExecution or ErrJSShape.
func Evaluate(name, src string) (*Definition, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(500)

	timer := time.AfterFunc(Timeout, func() {
		vm.Interrupt("execution timeout")
	})
	defer timer.Stop()

	if _, err := vm.RunString(preludeSource()); err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to load sequelize stub")
	}

	// The wrapper header shares the first source line so line numbers match.
	wrapped := "(function (require, module, exports) {" + src + "\n})(__seqgen.require, __seqgen.module, __seqgen.module.exports);"
	prg, err := goja.Compile(name, wrapped, false)
	if err != nil {
		return nil, wrapJSError(err, name, "syntax error in model module")
	}
	if _, err := vm.RunProgram(prg); err != nil {
		return nil, wrapJSError(err, name, "failed to load model module")
	}

	stub := vm.Get("__seqgen").ToObject(vm)
	factory, ok := goja.AssertFunction(stub.Get("module").ToObject(vm).Get("exports"))
	if !ok {
		return nil, alerr.New(alerr.ErrJSShape, "module.exports is not a function").WithFile(name, 0)
	}

	ret, err := factory(goja.Undefined(), stub.Get("instance"))
	if err != nil {
		return nil, wrapJSError(err, name, "model factory failed")
	}

	calls := stub.Get("calls").ToObject(vm)
	if n := calls.Get("length").ToInteger(); n != 1 {
		return nil, alerr.Newf(alerr.ErrJSShape, "expected exactly one Model.init call, got %d", n).WithFile(name, 0)
	}
	call := calls.Get("0").ToObject(vm)

	if model := call.Get("model"); !ret.StrictEquals(model) {
		return nil, alerr.New(alerr.ErrJSShape, "factory does not return the initialized model").WithFile(name, 0)
	}

	def := &Definition{Class: call.Get("name").String()}
	if def.Fields, err = exportMap(vm, call.Get("fields"), "fields"); err != nil {
		return nil, err.(*alerr.Error).WithFile(name, 0)
	}
	if def.Options, err = exportMap(vm, call.Get("options"), "options"); err != nil {
		return nil, err.(*alerr.Error).WithFile(name, 0)
	}
	return def, nil
}

func preludeSource() string {
	all := types.All()
	members := make([]string, len(all))
	for i, t := range all {
		members[i] = t.Name
	}
	list, _ := json.Marshal(members)
	return strings.Replace(prelude, "%s", string(list), 1)
}

func exportMap(vm *goja.Runtime, v goja.Value, path string) (*jsval.Map, error) {
	n, err := export(vm, v, path)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*jsval.Map)
	if !ok {
		return nil, alerr.Newf(alerr.ErrJSShape, "%s is not an object", path)
	}
	return m, nil
}

// export converts a JS value into a value tree. Undefined and null become
// jsval.Null, stub types and the sequelize instance become jsval.Raw.
func export(vm *goja.Runtime, v goja.Value, path string) (jsval.Node, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return jsval.Null{}, nil
	}

	obj, isObj := v.(*goja.Object)
	if !isObj {
		switch x := v.Export().(type) {
		case bool:
			return jsval.Bool(x), nil
		case int64:
			return jsval.Number(float64(x)), nil
		case float64:
			return jsval.Number(x), nil
		case string:
			return jsval.Str(x), nil
		default:
			return nil, alerr.Newf(alerr.ErrJSShape, "%s has unsupported value %s", path, v.String())
		}
	}

	if expr := obj.Get(typeMarker); expr != nil && !goja.IsUndefined(expr) {
		return jsval.Raw(expr.String()), nil
	}
	if mark := obj.Get(instanceMarker); mark != nil && mark.ToBoolean() {
		return jsval.Raw("sequelize"), nil
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return nil, alerr.Newf(alerr.ErrJSShape, "%s is a function", path)
	}

	if obj.ClassName() == "Array" {
		list := jsval.NewList()
		n := obj.Get("length").ToInteger()
		for i := int64(0); i < n; i++ {
			idx := strconv.FormatInt(i, 10)
			item, err := export(vm, obj.Get(idx), path+"["+idx+"]")
			if err != nil {
				return nil, err
			}
			list.Append(item)
		}
		return list, nil
	}

	m := jsval.NewMap()
	for _, k := range obj.Keys() {
		item, err := export(vm, obj.Get(k), path+"."+k)
		if err != nil {
			return nil, err
		}
		m.Set(k, item)
	}
	return m, nil
}

func wrapJSError(err error, name, msg string) *alerr.Error {
	switch e := err.(type) {
	case *goja.CompilerSyntaxError:
		line := 0
		if e.File != nil {
			line = e.File.Position(e.Offset).Line
		}
		return alerr.Wrap(alerr.ErrJSSyntax, err, msg).WithFile(name, line)
	case *goja.InterruptedError:
		return alerr.New(alerr.ErrJSExecution, "script execution timed out").
			WithFile(name, 0).
			With("timeout", Timeout.String())
	case *goja.Exception:
		line := 0
		for _, frame := range e.Stack() {
			if pos := frame.Position(); pos.Line > 0 && frame.SrcName() == name {
				line = pos.Line
				break
			}
		}
		if member := unknownType(e); member != "" {
			return alerr.Newf(alerr.ErrUnknownType, "DataTypes.%s is not a Sequelize datatype", member).
				WithFile(name, line).
				With("type", member).
				WithHelp("run 'seqgen types' to list the supported datatypes")
		}
		out := alerr.Wrap(alerr.ErrJSExecution, err, msg).WithFile(name, line)
		if v := e.Value(); v != nil {
			out.With("exception", v.String())
		}
		return out
	default:
		return alerr.Wrap(alerr.ErrJSExecution, err, msg).WithFile(name, 0)
	}
}

// unknownType returns the DataTypes member named by an exception raised by
// the stub for a missing member.
func unknownType(e *goja.Exception) string {
	obj, ok := e.Value().(*goja.Object)
	if !ok {
		return ""
	}
	v := obj.Get(unknownTypeMarker)
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}

// Check lints src and then evaluates it.
func Check(name, src string) (*Definition, error) {
	if err := Lint(name, src); err != nil {
		return nil, err
	}
	return Evaluate(name, src)
}
