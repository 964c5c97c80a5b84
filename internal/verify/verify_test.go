package verify_test

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmacro/internal/verify"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
)

func mustDialect(t *testing.T, name string) *dialect.Dialect {
	t.Helper()
	d, err := dialect.MustGet(name)
	require.NoError(t, err)
	return d
}

func TestLoader(t *testing.T) {
	tests := []struct {
		dialect string
		want    api.Loader
	}{
		{"js", api.LoaderJSX},
		{"jsx", api.LoaderJSX},
		{"ts", api.LoaderTS},
		{"tsx", api.LoaderTSX},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			got, err := verify.Loader(mustDialect(t, tt.dialect))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := verify.Loader(dialect.NewDialect("odd").Loader("coffee").Build())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown esbuild loader "coffee"`)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		code    string
		wantErr bool
	}{
		{name: "plain js", dialect: "js", code: "const x = 1 + 2;\n"},
		{name: "jsx element", dialect: "jsx", code: "const el = <div className=\"a\">{x}</div>;\n"},
		{name: "ts annotations", dialect: "ts", code: "let n: number = 1;\ninterface A { b: string; }\n"},
		{name: "tsx", dialect: "tsx", code: "const f = <T,>(x: T) => <b>{x}</b>;\n"},
		{name: "ts under js", dialect: "js", code: "let n: number = 1;\n", wantErr: true},
		{name: "jsx under ts", dialect: "ts", code: "const el = <div />;\n", wantErr: true},
		{name: "syntax error", dialect: "js", code: "const x = ;\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verify.Check(mustDialect(t, tt.dialect), "out.js", tt.code)
			if tt.wantErr {
				var verr *verify.Error
				require.ErrorAs(t, err, &verr)
				require.NotEmpty(t, verr.Issues)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheck_ErrorLocation(t *testing.T) {
	err := verify.Check(nil, "app.js", "let a = 1;\nconst x = ;\n")

	var verr *verify.Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, 2, verr.Issues[0].Line)
	assert.Equal(t, 10, verr.Issues[0].Column)
	assert.Contains(t, err.Error(), "app.js: esbuild rejected output\n  app.js:2:10: ")
}
