package starlark

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.starlark.net/starlark"
)

// AssetID returns the content-addressed id of an emitted asset.
func AssetID(typ, content string) string {
	sum := sha256.Sum256([]byte(content))
	return "macro-" + hex.EncodeToString(sum[:]) + "." + typ
}

// Predeclared returns the builtins available to every macro module:
//
//	js(code)                   verbatim JavaScript, inserted as written
//	regexp(pattern, flags="")  a regular expression literal
//	add_asset(type, content)   emits an asset, returns its id
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"js":        starlark.NewBuiltin("js", builtinJS),
		"regexp":    starlark.NewBuiltin("regexp", builtinRegExp),
		"add_asset": starlark.NewBuiltin("add_asset", builtinAddAsset),
	}
}

func builtinJS(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var code string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "code", &code); err != nil {
		return nil, err
	}
	return NewJS(code), nil
}

func builtinRegExp(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, flags string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "flags?", &flags); err != nil {
		return nil, err
	}
	if pattern == "" {
		return nil, fmt.Errorf("%s: empty pattern", b.Name())
	}
	return NewRegExp(pattern, flags), nil
}

func builtinAddAsset(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var typ, content string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "type", &typ, "content", &content); err != nil {
		return nil, err
	}
	if typ == "" {
		return nil, fmt.Errorf("%s: empty asset type", b.Name())
	}
	ctx := contextOf(thread)
	sink := AssetSinkFrom(ctx)
	if sink == nil {
		return nil, fmt.Errorf("%s: assets are not collected in this context", b.Name())
	}
	id := AssetID(typ, content)
	sink.Add(Asset{ID: id, Type: typ, Content: content, Loc: callLocationFrom(ctx)})
	return starlark.String(id), nil
}
