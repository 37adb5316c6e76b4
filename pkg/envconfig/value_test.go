package envconfig_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ageoftraders/appkit/pkg/envconfig"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	valid := map[string]float64{
		"0":       0,
		"42":      42,
		"-7":      -7,
		"3.14":    3.14,
		"1e3":     1000,
		"  12  ":  12,
		"-0.5":    -0.5,
		"1000000": 1000000,
	}
	for raw, want := range valid {
		f, err := envconfig.ParseNumber(raw)
		require.NoError(t, err, "ParseNumber(%q) should succeed", raw)
		assert.Equal(t, want, f, "ParseNumber(%q)", raw)
	}

	invalid := []string{"", "abc", "12abc", "1.2.3", "Inf", "-inf", "NaN", "0x10", "1e999"}
	for _, raw := range invalid {
		_, err := envconfig.ParseNumber(raw)
		assert.Error(t, err, "ParseNumber(%q) should fail", raw)
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	truthy := []string{"true", "TRUE", "True", "1", "yes", "YES", "y", "Y"}
	for _, raw := range truthy {
		b, err := envconfig.ParseBool(raw)
		require.NoError(t, err, "ParseBool(%q) should succeed", raw)
		assert.True(t, b, "ParseBool(%q)", raw)
	}

	falsy := []string{"false", "FALSE", "False", "0", "no", "NO", "n", "N"}
	for _, raw := range falsy {
		b, err := envconfig.ParseBool(raw)
		require.NoError(t, err, "ParseBool(%q) should succeed", raw)
		assert.False(t, b, "ParseBool(%q)", raw)
	}

	invalid := []string{"", "2", "yep", "nope", "on", "off", "t", "f", "truee"}
	for _, raw := range invalid {
		_, err := envconfig.ParseBool(raw)
		assert.Error(t, err, "ParseBool(%q) should fail", raw)
	}
}

func TestParseJSON_Scalars(t *testing.T) {
	t.Parallel()

	v, err := envconfig.ParseJSON(`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, envconfig.KindString, v.Kind())
	assert.Equal(t, "hello", v.Text())

	v, err = envconfig.ParseJSON(`12.5`)
	require.NoError(t, err)
	assert.Equal(t, envconfig.KindNumber, v.Kind())
	assert.Equal(t, 12.5, v.Float())

	v, err = envconfig.ParseJSON(`true`)
	require.NoError(t, err)
	assert.Equal(t, envconfig.KindBool, v.Kind())
	assert.True(t, v.Bool())

	v, err = envconfig.ParseJSON(`null`)
	require.NoError(t, err)
	assert.Equal(t, envconfig.KindNull, v.Kind())
}

func TestParseJSON_ObjectOrder(t *testing.T) {
	t.Parallel()

	v, err := envconfig.ParseJSON(`{"zeta":1,"alpha":{"nested":[1,"two",false,null]},"mid":true}`)
	require.NoError(t, err)
	require.Equal(t, envconfig.KindObject, v.Kind())

	members := v.Members()
	require.Len(t, members, 3)
	assert.Equal(t, "zeta", members[0].Name, "object member order must follow the source text")
	assert.Equal(t, "alpha", members[1].Name)
	assert.Equal(t, "mid", members[2].Name)

	nested := members[1].Value.Members()
	require.Len(t, nested, 1)
	elems := nested[0].Value.Elements()
	require.Len(t, elems, 4)
	assert.Equal(t, envconfig.KindNumber, elems[0].Kind())
	assert.Equal(t, envconfig.KindString, elems[1].Kind())
	assert.Equal(t, envconfig.KindBool, elems[2].Kind())
	assert.Equal(t, envconfig.KindNull, elems[3].Kind())
}

func TestParseJSON_Invalid(t *testing.T) {
	t.Parallel()

	invalid := []string{"", "{", `{"a":}`, `[1,2`, `{"a":1} trailing`, `'single'`, `{"a" 1}`}
	for _, raw := range invalid {
		_, err := envconfig.ParseJSON(raw)
		assert.Error(t, err, "ParseJSON(%q) should fail", raw)
	}
}

func TestValue_Interface(t *testing.T) {
	t.Parallel()

	v, err := envconfig.ParseJSON(`{"name":"atlas","replicas":3,"tls":true,"tags":["a","b"],"extra":null}`)
	require.NoError(t, err)

	got := v.Interface()
	want := map[string]any{
		"name":     "atlas",
		"replicas": float64(3),
		"tls":      true,
		"tags":     []any{"a", "b"},
		"extra":    nil,
	}
	assert.Equal(t, want, got)
}

func TestValue_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"x"`, envconfig.String("x").String())
	assert.Equal(t, "2.5", envconfig.Number(2.5).String())
	assert.Equal(t, "true", envconfig.Bool(true).String())
	assert.Equal(t, "null", envconfig.Null().String())

	v, err := envconfig.ParseJSON(`{"a":[1,null]}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,null]}`, v.String())
}

func TestValue_MembersCopy(t *testing.T) {
	t.Parallel()

	v := envconfig.Object(envconfig.Member{Name: "a", Value: envconfig.Number(1)})

	members := v.Members()
	members[0].Name = "mutated"

	assert.Equal(t, "a", v.Members()[0].Name, "Members must return a copy")
}
