package crud

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/model"
)

func TestPrepare(t *testing.T) {
	def := Definition{
		Name:          "user",
		ExcludeFields: []string{"role"},
		Schema:        Schema{"name": String, "status": Int, "role": String},
	}

	payload, err := def.Prepare(map[string]any{
		"name":    "Bob",
		"status":  "1",
		"role":    "admin",
		"_token":  "csrf",
		"_method": "PUT",
	})
	require.NoError(t, err)

	assert.Equal(t, Payload{"name": "Bob", "status": int64(1)}, payload)
}

func TestPrepare_Errors(t *testing.T) {
	def := Definition{Name: "user", Schema: Schema{"status": Int}}

	_, err := def.Prepare(map[string]any{"status": "x", "admin": true, "zeta": 1})

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 3)
	assert.Equal(t, "admin", verrs[0].Field)
	assert.Equal(t, map[string]string{
		"admin":  "unknown field",
		"status": "must be a valid integer",
		"zeta":   "unknown field",
	}, verrs.Fields())
}

func TestFieldType_Coerce(t *testing.T) {
	day := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		typ     FieldType
		in      any
		want    any
		wantErr bool
	}{
		{name: "nil", typ: Int, in: nil, want: nil},
		{name: "string passthrough", typ: String, in: "abc", want: "abc"},
		{name: "string from number", typ: String, in: float64(12), want: "12"},
		{name: "form single value", typ: String, in: []string{"x"}, want: "x"},
		{name: "form multiple values", typ: String, in: []string{"x", "y"}, wantErr: true},
		{name: "int from string", typ: Int, in: " 42 ", want: int64(42)},
		{name: "int empty string", typ: Int, in: "", want: nil},
		{name: "int from float", typ: Int, in: float64(3), want: int64(3)},
		{name: "int from fraction", typ: Int, in: 3.5, wantErr: true},
		{name: "int from json number", typ: Int, in: json.Number("7"), want: int64(7)},
		{name: "int from bool", typ: Int, in: true, want: int64(1)},
		{name: "int garbage", typ: Int, in: "seven", wantErr: true},
		{name: "bool on", typ: Bool, in: "on", want: true},
		{name: "bool empty", typ: Bool, in: "", want: false},
		{name: "bool from 1", typ: Bool, in: "1", want: true},
		{name: "bool garbage", typ: Bool, in: "maybe", wantErr: true},
		{name: "time date", typ: Time, in: "2024-05-17", want: day},
		{name: "time empty", typ: Time, in: "", want: nil},
		{name: "time garbage", typ: Time, in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Coerce(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResult_Status(t *testing.T) {
	assert.Equal(t, 200, OK("ok", nil).Status())
	assert.Equal(t, 403, Fail(KindForbidden, "no").Status())
	assert.Equal(t, 400, Fail(KindError, "no").Status())
	assert.Equal(t, 400, Fail(KindPersistence, "no").Status())

	res := Fail(KindSuccess, "bad")
	assert.False(t, res.Success)
	assert.Nil(t, res.Data)
	assert.Equal(t, KindError, res.Kind)
}
