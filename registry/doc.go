/*
Package registry builds the mappings between entity types and stored documents.

A Registry is an explicit value owned by the caller; there is no global
registry. Mappings are built once with a fluent Builder and frozen:

	reg := registry.New()

	_, err := registry.Entity[User](reg).
	    Kind("User").
	    PropertyOf(func(u *User) any { return &u.Name }, registry.RenameTo("whatever")).
	    Property("Bio", registry.ExcludeFromIndexes()).
	    Infer(true).
	    Build()

Key selection:
The key defaults to the field tagged `store:",key"`, then a field named ID or
Id. Key and KeyOf select any other string field. The key is held in the
document key, never as a property. An empty key marks an unsaved entity; the
store assigns an ID on insert.

Field naming:
Builder overrides win, then `store:"name"` tags. With Infer(true) every other
exported field is mapped under the name produced by the naming strategy
(convert.LowerFirst by default). With inference off only declared or tagged
fields and the key are stored.

Polymorphic mappings:

	registry.Interface[Shape, Circle](reg).
	    WithConcreteFunc(func(s Shape) Shape { return normalize(s) }).
	    Build()

Documents carry a "_type" discriminator naming their concrete type. Decoding
uses the registered mapping of that name when it implements the interface,
otherwise the default concrete type, and always ends with the concrete func.

Field resolution:
EntityMapping implements FieldResolver. Unknown logical names fail with an
errors.ResolutionError. FieldOf resolves typed accessors.

Mappings, resolvers and lookups are safe for concurrent use.
*/
package registry
