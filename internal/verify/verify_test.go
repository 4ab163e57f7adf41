package verify

import (
	"testing"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/jsval"
	"github.com/hlop3z/seqgen/internal/testutil"
)

const validModule = `const { DataTypes, Model } = require('sequelize');

class Invoice extends Model {
}

module.exports = (sequelize) => {
    return Invoice.init({
        id: {
            type: DataTypes.BIGINT,
            primaryKey: true,
            autoIncrement: true
        },
        total: {
            type: DataTypes.DECIMAL(10, 2),
            allowNull: false
        },
        code: {
            type: DataTypes.STRING(8).BINARY
        }
    }, {
        sequelize: sequelize,
        modelName: 'Invoice',
        tableName: 'invoices',
        indexes: [
            {
                name: 'invoices_code_uq',
                fields: ['code'],
                unique: true
            }
        ],
        version: 3,
        ratio: 0.5,
        'odd-key': null
    });
}
`

func TestLint(t *testing.T) {
	testutil.AssertNoError(t, Lint("invoice.js", validModule))

	err := Lint("broken.js", "module.exports = (sequelize) => {\n    return X.init({a: }, {});\n}\n")
	testutil.AssertError(t, err, alerr.ErrJSSyntax)
	ctx := err.(*alerr.Error).GetContext()
	testutil.AssertEqual(t, ctx["file"], any("broken.js"))
	testutil.AssertEqual(t, ctx["line"], any(2))
}

func TestEvaluate(t *testing.T) {
	def, err := Evaluate("invoice.js", validModule)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, def.Class, "Invoice")
	testutil.AssertEqual(t, def.ModelName(), "Invoice")

	flat := jsval.Options{}
	testutil.AssertEqual(t, jsval.Serialize(def.Fields, flat),
		"{id: {type: DataTypes.BIGINT, primaryKey: true, autoIncrement: true}, "+
			"total: {type: DataTypes.DECIMAL(10, 2), allowNull: false}, "+
			"code: {type: DataTypes.STRING(8).BINARY}}")
	testutil.AssertEqual(t, jsval.Serialize(def.Options, flat),
		"{sequelize: sequelize, modelName: 'Invoice', tableName: 'invoices', "+
			"indexes: [{name: 'invoices_code_uq', fields: ['code'], unique: true}], "+
			"version: 3, ratio: 0.5}")

	if !def.Options.Has("odd-key") {
		t.Error("null entries are kept in the tree")
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code alerr.Code
	}{
		{
			name: "syntax",
			src:  "module.exports = (sequelize) => {",
			code: alerr.ErrJSSyntax,
		},
		{
			name: "throws",
			src:  "throw new Error('boom');",
			code: alerr.ErrJSExecution,
		},
		{
			name: "unknown module",
			src:  "const x = require('lodash');",
			code: alerr.ErrJSExecution,
		},
		{
			name: "unknown datatype",
			src: `const { DataTypes, Model } = require('sequelize');
class A extends Model {}
module.exports = (sequelize) => A.init({a: {type: DataTypes.NOPE(1)}}, {sequelize: sequelize});`,
			code: alerr.ErrUnknownType,
		},
		{
			name: "unknown datatype without call",
			src: `const { DataTypes, Model } = require('sequelize');
class A extends Model {}
module.exports = (sequelize) => A.init({a: {type: DataTypes.GEOMETRYISH}}, {sequelize: sequelize});`,
			code: alerr.ErrUnknownType,
		},
		{
			name: "exports not a function",
			src:  "module.exports = {};",
			code: alerr.ErrJSShape,
		},
		{
			name: "no init call",
			src:  "module.exports = (sequelize) => null;",
			code: alerr.ErrJSShape,
		},
		{
			name: "init called twice",
			src: `const { Model } = require('sequelize');
class A extends Model {}
module.exports = (sequelize) => { A.init({}, {}); return A.init({}, {}); };`,
			code: alerr.ErrJSShape,
		},
		{
			name: "returns something else",
			src: `const { Model } = require('sequelize');
class A extends Model {}
module.exports = (sequelize) => { A.init({}, {}); return 1; };`,
			code: alerr.ErrJSShape,
		},
		{
			name: "function value",
			src: `const { Model } = require('sequelize');
class A extends Model {}
module.exports = (sequelize) => A.init({a: {get: function () {}}}, {});`,
			code: alerr.ErrJSShape,
		},
		{
			name: "fields not object",
			src: `const { Model } = require('sequelize');
class A extends Model {}
module.exports = (sequelize) => A.init('fields', {});`,
			code: alerr.ErrJSShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.name+".js", tt.src)
			testutil.AssertError(t, err, tt.code)
		})
	}
}

func TestEvaluateUnknownTypeLocation(t *testing.T) {
	src := "const { DataTypes, Model } = require('sequelize');\n" +
		"class A extends Model {}\n" +
		"module.exports = (sequelize) => A.init({a: {type: DataTypes.NOPE}}, {sequelize: sequelize});\n"

	_, err := Evaluate("a.js", src)
	testutil.AssertError(t, err, alerr.ErrUnknownType)
	ctx := err.(*alerr.Error).GetContext()
	testutil.AssertEqual(t, ctx["type"], any("NOPE"))
	testutil.AssertEqual(t, ctx["file"], any("a.js"))
	testutil.AssertEqual(t, ctx["line"], any(3))
}

func TestCheck(t *testing.T) {
	def, err := Check("invoice.js", validModule)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, def.ModelName(), "Invoice")

	_, err = Check("bad.js", "module.exports = (")
	testutil.AssertError(t, err, alerr.ErrJSSyntax)
}
