package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr error
	}{
		{"5000", 500000, nil},
		{"5000.00", 500000, nil},
		{"4999.99", 499999, nil},
		{"5,000.5", 500050, nil},
		{".75", 75, nil},
		{"5000.000", 500000, nil},
		{"4999.999", 499999, ErrSubCentavo},
		{"abc", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"12.3.4", 0, ErrInvalidAmount},
		{"92233720368547757.99", 9223372036854775799, nil},
		{"92233720368547759", 0, ErrInvalidAmount},
		{"4611686018427392904", 0, ErrInvalidAmount},
	}
	for _, tt := range tests {
		got, err := ParseMoney(tt.in)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.in)
			if tt.wantErr == ErrSubCentavo {
				assert.Equal(t, tt.want, got, tt.in)
			}
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func Test_Money_JSON_AcceptsNumbersStringsAndNull(t *testing.T) {
	var out struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
		D Money `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":150,"b":"150.25","c":null,"d":1.5e3}`), &out))
	assert.Equal(t, Money(15000), out.A)
	assert.Equal(t, Money(15025), out.B)
	assert.Equal(t, Money(0), out.C)
	assert.Equal(t, Money(150000), out.D)

	b, err := json.Marshal(Money(500000))
	require.NoError(t, err)
	assert.Equal(t, "5000.00", string(b))
}

func Test_Case_TagList_Tolerance(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"array", `{"case_tag_list":[{"ctag_id":1,"ctag_name":"A"},{"ctag_id":2,"ctag_name":"B"}]}`, 2},
		{"json string", `{"case_tag_list":"[{\"ctag_id\":1,\"ctag_name\":\"A\"}]"}`, 1},
		{"invalid string", `{"case_tag_list":"not json"}`, 0},
		{"object instead of array", `{"case_tag_list":{"ctag_id":1}}`, 0},
		{"null", `{"case_tag_list":null}`, 0},
		{"missing", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Case
			require.NoError(t, json.Unmarshal([]byte(tt.body), &c))
			assert.Len(t, c.Tags.Tags, tt.want)
			assert.NotNil(t, c.Tags.Tags)
		})
	}
}

func Test_Case_ActiveTag_Tolerance(t *testing.T) {
	var c Case
	require.NoError(t, json.Unmarshal([]byte(`{"case_tag":"{\"ctag_id\":3,\"ctag_name\":\"Filed\"}"}`), &c))
	require.NotNil(t, c.Tags.ActiveID)
	assert.Equal(t, int64(3), *c.Tags.ActiveID)

	c = Case{}
	require.NoError(t, json.Unmarshal([]byte(`{"case_tag":"{broken"}`), &c))
	assert.Nil(t, c.Tags.ActiveID)

	c = Case{}
	require.NoError(t, json.Unmarshal([]byte(`{"case_tag":{"ctag_id":4,"ctag_name":"Paid"}}`), &c))
	require.NotNil(t, c.Tags.ActiveID)
	assert.Equal(t, int64(4), *c.Tags.ActiveID)
}

func Test_Case_Marshal_DerivesBothTagColumns(t *testing.T) {
	active := int64(2)
	c := Case{
		ID:     7,
		Status: CaseProcessing,
		Tags: TagSet{
			Tags:     []Tag{{ID: 1, Name: "Intake"}, {ID: 2, Name: "Filed"}},
			ActiveID: &active,
		},
	}
	b, err := json.Marshal(c)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.JSONEq(t, `{"ctag_id":2,"ctag_name":"Filed"}`, string(raw["case_tag"]))

	var list string
	require.NoError(t, json.Unmarshal(raw["case_tag_list"], &list))
	assert.JSONEq(t, `[{"ctag_id":1,"ctag_name":"Intake"},{"ctag_id":2,"ctag_name":"Filed"}]`, list)

	var back Case
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, c.Tags, back.Tags)
}

func Test_Role_Label(t *testing.T) {
	assert.Equal(t, "Super Lawyer", RoleAdmin.Label())
	assert.Equal(t, "Lawyer", RoleLawyer.Label())
}

func Test_Count_JSON(t *testing.T) {
	var out struct {
		A Count `json:"a"`
		B Count `json:"b"`
		C Count `json:"c"`
		D Count `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12","b":7,"c":null,"d":3.0}`), &out))
	assert.Equal(t, Count(12), out.A)
	assert.Equal(t, Count(7), out.B)
	assert.Equal(t, Count(0), out.C)
	assert.Equal(t, Count(3), out.D)

	var bad Count
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &bad))
}
