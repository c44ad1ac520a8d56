/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/suparena/entitymapper/maybe"
)

type address struct {
	Street string
	Zip    string `store:"postal_code"`
	Secret string `store:"-"`
}

type sample struct {
	Name     string
	Count    int64
	Ratio    float64
	Active   bool
	Price    decimal.Decimal
	At       time.Time
	Seen     strfmt.DateTime
	ID       strfmt.UUID
	Raw      []byte
	Tags     []string
	Scores   map[string]int
	Home     address
	Work     *address
	Nickname maybe.Maybe[string]
	Discount maybe.Maybe[decimal.Decimal]
}

func roundTrip[T any](t *testing.T, set *Set, in T) (types.AttributeValue, T) {
	t.Helper()
	typ := reflect.TypeOf((*T)(nil)).Elem()
	c, err := set.For(typ)
	require.NoError(t, err)

	av, err := c.Encode(reflect.ValueOf(in))
	require.NoError(t, err)

	out := reflect.New(typ).Elem()
	require.NoError(t, c.Decode(av, out))
	return av, out.Interface().(T)
}

func TestStructRoundTrip(t *testing.T) {
	set := NewSet(nil)
	at := time.Date(2024, 3, 9, 10, 30, 0, 1500, time.UTC)

	in := sample{
		Name:     "ada",
		Count:    -42,
		Ratio:    0.25,
		Active:   true,
		Price:    decimal.RequireFromString("19.99"),
		At:       at,
		Seen:     strfmt.DateTime(at),
		ID:       strfmt.UUID("0190f7b2-7a55-7cc4-a8b4-9d1c7c8a4e11"),
		Raw:      []byte{0, 1, 2},
		Tags:     []string{"a", "b"},
		Scores:   map[string]int{"x": 1},
		Home:     address{Street: "Main", Zip: "1000", Secret: "dropped"},
		Work:     &address{Street: "Dock"},
		Nickname: maybe.Some("countess"),
	}

	av, out := roundTrip(t, set, in)

	m := av.(*types.AttributeValueMemberM).Value
	home := m["home"].(*types.AttributeValueMemberM).Value
	assert.Contains(t, home, "postal_code")
	assert.NotContains(t, home, "secret")
	assert.Equal(t, &types.AttributeValueMemberNULL{Value: true}, m["discount"])

	assert.True(t, in.Price.Equal(out.Price))
	out.Price = in.Price
	assert.True(t, at.Equal(out.At))
	out.At = in.At
	assert.True(t, time.Time(in.Seen).Equal(time.Time(out.Seen)))
	out.Seen = in.Seen
	in.Home.Secret = ""
	assert.Equal(t, in, out)
}

func TestDecimalIsCanonical(t *testing.T) {
	set := NewSet(nil)
	av, out := roundTrip(t, set, decimal.RequireFromString("1234567.8900"))

	assert.Equal(t, &types.AttributeValueMemberN{Value: "1234567.89"}, av)
	assert.True(t, decimal.RequireFromString("1234567.89").Equal(out))

	c, err := set.For(decimalType)
	require.NoError(t, err)
	dst := reflect.New(decimalType).Elem()
	require.NoError(t, c.Decode(&types.AttributeValueMemberS{Value: "10.5"}, dst))
	assert.Equal(t, "10.5", dst.Interface().(decimal.Decimal).String())

	assert.Error(t, c.Decode(&types.AttributeValueMemberS{Value: "10,5"}, dst))
}

// Host formatting differs per locale; stored text must not.
func TestDecimalRoundTripAcrossLocales(t *testing.T) {
	value := decimal.RequireFromString("1234.5")
	brazil := message.NewPrinter(language.BrazilianPortuguese)
	english := message.NewPrinter(language.AmericanEnglish)

	require.NotEqual(t, brazil.Sprintf("%v", 1234.5), english.Sprintf("%v", 1234.5))

	writer := NewSet(nil)
	reader := NewSet(nil)

	c, err := writer.For(decimalType)
	require.NoError(t, err)
	av, err := c.Encode(reflect.ValueOf(value))
	require.NoError(t, err)
	assert.Equal(t, "1234.5", av.(*types.AttributeValueMemberN).Value)

	c, err = reader.For(decimalType)
	require.NoError(t, err)
	dst := reflect.New(decimalType).Elem()
	require.NoError(t, c.Decode(av, dst))

	got := dst.Interface().(decimal.Decimal)
	assert.True(t, value.Equal(got), "decoded %s, want %s", got, value)
}

func TestMaybeEncoding(t *testing.T) {
	set := NewSet(nil)

	av, out := roundTrip(t, set, maybe.None[int]())
	assert.Equal(t, Null(), av)
	assert.True(t, out.IsNone())

	av, out = roundTrip(t, set, maybe.Some(7))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "7"}, av)
	assert.Equal(t, 7, out.Value())

	c, err := set.For(reflect.TypeOf(maybe.Maybe[int]{}))
	require.NoError(t, err)
	dst := reflect.New(c.Type()).Elem()
	require.NoError(t, c.Decode(nil, dst))
	assert.True(t, dst.Interface().(maybe.Maybe[int]).IsNone())
}

func TestNullDecodesToZero(t *testing.T) {
	set := NewSet(nil)
	for _, typ := range []reflect.Type{
		reflect.TypeOf(""), reflect.TypeOf(0), reflect.TypeOf(false),
		reflect.TypeOf([]string(nil)), reflect.TypeOf((*int)(nil)),
		reflect.TypeOf(address{}), timeType, decimalType,
	} {
		c, err := set.For(typ)
		require.NoError(t, err)
		dst := reflect.New(typ).Elem()
		require.NoError(t, c.Decode(Null(), dst), typ.String())
		assert.True(t, dst.IsZero(), typ.String())
	}
}

func TestDecodeTypeMismatch(t *testing.T) {
	set := NewSet(nil)
	c, err := set.For(reflect.TypeOf(0))
	require.NoError(t, err)

	dst := reflect.New(c.Type()).Elem()
	assert.Error(t, c.Decode(&types.AttributeValueMemberS{Value: "1"}, dst))
	assert.Error(t, c.Decode(&types.AttributeValueMemberN{Value: "1.5"}, dst))

	i8, err := set.For(reflect.TypeOf(int8(0)))
	require.NoError(t, err)
	assert.Error(t, i8.Decode(&types.AttributeValueMemberN{Value: "300"}, reflect.New(i8.Type()).Elem()))
}

func TestUnsupportedTypes(t *testing.T) {
	set := NewSet(nil)
	_, err := set.For(reflect.TypeOf(map[int]string{}))
	assert.Error(t, err)
	_, err = set.For(reflect.TypeOf(make(chan int)))
	assert.Error(t, err)
}

func TestCustomConverterWins(t *testing.T) {
	upper := New(
		func(s string) (types.AttributeValue, error) {
			return &types.AttributeValueMemberS{Value: "x:" + s}, nil
		},
		func(av types.AttributeValue) (string, error) {
			return av.(*types.AttributeValueMemberS).Value[2:], nil
		},
	)
	set := NewSet(nil, upper)

	av, out := roundTrip(t, set, "abc")
	assert.Equal(t, &types.AttributeValueMemberS{Value: "x:abc"}, av)
	assert.Equal(t, "abc", out)
}

func TestEncodeAs(t *testing.T) {
	set := NewSet(nil)
	tests := []struct {
		name string
		typ  reflect.Type
		v    any
		want types.AttributeValue
	}{
		{"same type", reflect.TypeOf(int64(0)), int64(3), &types.AttributeValueMemberN{Value: "3"}},
		{"numeric literal", reflect.TypeOf(int64(0)), 3, &types.AttributeValueMemberN{Value: "3"}},
		{"maybe element", reflect.TypeOf(maybe.Maybe[string]{}), "x", &types.AttributeValueMemberS{Value: "x"}},
		{"maybe none", reflect.TypeOf(maybe.Maybe[string]{}), maybe.None[string](), Null()},
		{"nil", reflect.TypeOf(maybe.Maybe[string]{}), nil, Null()},
		{"list element", reflect.TypeOf([]string{}), "b", &types.AttributeValueMemberS{Value: "b"}},
		{"pointer element", reflect.TypeOf((*int)(nil)), 5, &types.AttributeValueMemberN{Value: "5"}},
		{"decimal from string", decimalType, "10.50", &types.AttributeValueMemberN{Value: "10.5"}},
		{"named string", reflect.TypeOf(strfmt.UUID("")), "abc", &types.AttributeValueMemberS{Value: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := set.EncodeAs(tt.typ, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := set.EncodeAs(reflect.TypeOf(""), 5)
	assert.Error(t, err, "int must not silently become a rune string")
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "createdAt", LowerFirst("CreatedAt"))
	assert.Equal(t, "iD", LowerFirst("ID"))
	assert.Equal(t, "", LowerFirst(""))
	assert.Equal(t, "Name", Identity("Name"))
	assert.Equal(t, "order_id", SnakeCase("OrderID"))
	assert.Equal(t, "xml_parser", SnakeCase("XMLParser"))
	assert.Equal(t, "created_at", SnakeCase("CreatedAt"))
}

func TestParseTag(t *testing.T) {
	f, _ := reflect.TypeOf(struct {
		A string `store:"a_name,noindex"`
		B string `store:",key"`
		C string `store:"-"`
	}{}).FieldByName("A")
	assert.Equal(t, Tag{Name: "a_name", NoIndex: true}, ParseTag(f.Tag))

	f, _ = reflect.TypeOf(struct {
		B string `store:",key"`
	}{}).FieldByName("B")
	assert.Equal(t, Tag{Key: true}, ParseTag(f.Tag))

	f, _ = reflect.TypeOf(struct {
		C string `store:"-"`
	}{}).FieldByName("C")
	assert.True(t, ParseTag(f.Tag).Skip)
}
