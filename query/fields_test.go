package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasbot/oaserrors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		field string
		want  FieldCategory
	}{
		{"title", FieldInfo},
		{"termsOfService", FieldInfo},
		{"license", FieldInfo},
		{"host", FieldSwagger},
		{"basePath", FieldSwagger},
		{"externalDocs", FieldSwagger},
		{"paths", FieldGeneral},
		{"operations", FieldGeneral},
		{"definitions", FieldGeneral},
		{"foo", FieldUnknown},
		{"", FieldUnknown},
		{"Title", FieldUnknown},
		{"basepath", FieldUnknown},
		{"swagger", FieldUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.field))
		})
	}
}

func TestFieldNames(t *testing.T) {
	info := FieldNames(FieldInfo)
	assert.Equal(t, []string{"description", "version", "title", "termsOfService", "contact", "license"}, info)
	assert.Len(t, FieldNames(FieldSwagger), 8)
	assert.Equal(t, []string{"paths", "operations", "definitions"}, FieldNames(FieldGeneral))
	assert.Nil(t, FieldNames(FieldUnknown))

	info[0] = "mutated"
	assert.Equal(t, FieldInfo, Classify("description"), "callers cannot mutate the sets")
	assert.Equal(t, "description", FieldNames(FieldInfo)[0])

	for _, c := range []FieldCategory{FieldInfo, FieldSwagger, FieldGeneral} {
		for _, name := range FieldNames(c) {
			assert.Equal(t, c, Classify(name), name)
		}
	}
}

func TestFieldCategory_String(t *testing.T) {
	assert.Equal(t, "info", FieldInfo.String())
	assert.Equal(t, "swagger", FieldSwagger.String())
	assert.Equal(t, "general", FieldGeneral.String())
	assert.Equal(t, "unknown", FieldUnknown.String())
}

func TestTarget_APIName(t *testing.T) {
	name, err := Target{API: "petstore"}.APIName()
	require.NoError(t, err)
	assert.Equal(t, "petstore", name)

	name, err = Target{Contexts: []Context{
		{Name: "a"},
		{Name: "b", Parameters: map[string]string{"api": ""}},
		{Name: "c", Parameters: map[string]string{"api": "banking"}},
	}}.APIName()
	require.NoError(t, err)
	assert.Equal(t, "banking", name)

	_, err = Target{}.APIName()
	assert.ErrorIs(t, err, oaserrors.ErrNoAPISpecified)
}
