package dialect

// Builtin dialects. JavaScript always accepts JSX and import attributes;
// TypeScript only accepts JSX in .tsx units, where `<T>expr` assertions are
// not available.
var (
	JS = NewDialect("js").
		JSX().
		ImportAttributes().
		Extensions(".js", ".mjs", ".cjs").
		Loader("jsx").
		Build()

	JSX = NewDialect("jsx").
		JSX().
		ImportAttributes().
		Extensions(".jsx").
		Loader("jsx").
		Build()

	TS = NewDialect("ts").
		TypeScript().
		ImportAttributes().
		Extensions(".ts", ".mts", ".cts").
		Loader("ts").
		Build()

	TSX = NewDialect("tsx").
		TypeScript().
		JSX().
		ImportAttributes().
		Extensions(".tsx").
		Loader("tsx").
		Build()
)

func init() {
	Register(JS)
	Register(JSX)
	Register(TS)
	Register(TSX)
	SetDefault(JS)
}
