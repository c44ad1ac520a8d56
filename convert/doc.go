/*
Package convert encodes entity values to stored attribute values and upgrades
old document shapes on read.

Converters:

A Set resolves one Converter per Go type. Built-ins cover strings, bools,
integers, floats, decimal.Decimal, time.Time, strfmt.DateTime, []byte,
pointers, slices, string-keyed maps, nested structs and maybe.Maybe:

	set := convert.NewSet(convert.LowerFirst)
	c, _ := set.For(reflect.TypeOf(decimal.Decimal{}))
	av, _ := c.Encode(reflect.ValueOf(decimal.RequireFromString("10.50")))
	// &types.AttributeValueMemberN{Value: "10.5"}

Numeric text is always canonical ('.' decimal point, no grouping). Nothing in
this package reads host formatting state, so a value written by a process
running under one locale reads back exactly under any other.

maybe.None is stored as NULL; NULL or a missing attribute decodes as None.

Migrations:

	pipeline := convert.NewPipeline(
	    convert.RenameField("fullName", "name"),
	    convert.DefaultField("tier", &types.AttributeValueMemberS{Value: "free"}, false),
	)

Migrations run in registration order on a copy of the stored properties. A
failing migration fails the decode of that one document only.
*/
package convert
