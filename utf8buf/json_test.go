package utf8buf_test

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funny-falcon/allocstr/alloc"
	"github.com/funny-falcon/allocstr/utf8buf"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type person struct {
	Name     utf8buf.Buffer  `json:"name"`
	Nickname *utf8buf.Buffer `json:"nickname,omitempty"`
	Age      int             `json:"age"`
}

func TestBuffer_marshalJSON(t *testing.T) {
	b, err := utf8buf.FromStringIn("say \"héllo\"\n", alloc.Heap{})
	require.NoError(t, err)
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `"say \"héllo\"\n"`, string(data))

	var back utf8buf.Buffer
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(b))

	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.True(t, back.IsEmpty())
	assert.Error(t, json.Unmarshal([]byte(`42`), &back))
}

func TestBuffer_marshalJSONField(t *testing.T) {
	b, err := utf8buf.FromStringIn("hi", alloc.Heap{})
	require.NoError(t, err)
	byValue := struct{ B utf8buf.Buffer }{B: *b}
	data, err := json.Marshal(byValue)
	require.NoError(t, err)
	assert.Equal(t, `{"B":"hi"}`, string(data))

	byPointer := struct{ B *utf8buf.Buffer }{B: b}
	data, err = json.Marshal(byPointer)
	require.NoError(t, err)
	assert.Equal(t, `{"B":"hi"}`, string(data))
}

func TestJSONConfig(t *testing.T) {
	c := alloc.NewCounting(alloc.Heap{})
	api := utf8buf.JSONConfig(c)

	var p person
	err := api.UnmarshalFromString(`{"name":"Zoë","nickname":"éclair","age":7}`, &p)
	require.NoError(t, err)
	assert.Equal(t, "Zoë", p.Name.String())
	require.NotNil(t, p.Nickname)
	assert.Equal(t, "éclair", p.Nickname.String())
	assert.Equal(t, 7, p.Age)
	assert.Same(t, c, p.Name.Allocator())
	assert.Same(t, c, p.Nickname.Allocator())
	assert.Equal(t, 2, c.Stats().Allocs)

	out, err := api.MarshalToString(&p)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Zoë","nickname":"éclair","age":7}`, out)

	p.Name.Release()
	p.Nickname.Release()
	assert.Equal(t, 0, c.Stats().Live)

	p = person{}
	out, err = api.MarshalToString(&p)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"","age":0}`, out)
}

func TestJSONConfig_invalid(t *testing.T) {
	api := utf8buf.JSONConfig(alloc.Heap{})
	var p person
	err := api.Unmarshal([]byte("{\"name\":\"bad\xff\"}"), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid utf-8")
	assert.True(t, p.Name.IsEmpty())
}
