/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitymapper/convert"
	"github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

type audit struct {
	CreatedBy string
}

type user struct {
	audit
	ID       string
	Name     string
	Email    string `store:"mail"`
	Bio      string `store:",noindex"`
	Password string `store:"-"`
	Age      int
	internal string
}

type account struct {
	Handle  strfmt.UUID `store:",key"`
	Balance int
}

type badKey struct {
	ID int
}

type noKey struct {
	Name string
}

func TestEntityBuildDefaults(t *testing.T) {
	reg := New()
	m, err := Entity[user](reg).Infer(true).Build()
	require.NoError(t, err)

	assert.Equal(t, "user", m.Kind())
	assert.Equal(t, "ID", m.KeyName())

	var physical []string
	for _, p := range m.Properties() {
		physical = append(physical, p.Physical)
	}
	assert.Equal(t, []string{"createdBy", "name", "mail", "bio", "age"}, physical)

	bio, ok := m.Property("Bio")
	require.True(t, ok)
	assert.True(t, bio.ExcludeFromIndexes)

	name, _ := m.Property("Name")
	assert.False(t, name.ExcludeFromIndexes)

	got, err := MappingFor[user](reg)
	require.NoError(t, err)
	assert.Same(t, m, got)
}

func TestInferDisabledMapsDeclaredOnly(t *testing.T) {
	reg := New()
	m, err := Entity[user](reg).Property("Name").Build()
	require.NoError(t, err)

	var logical []string
	for _, p := range m.Properties() {
		logical = append(logical, p.Logical)
	}
	// tagged fields count as declared
	assert.Equal(t, []string{"Name", "Email", "Bio"}, logical)

	field, err := m.FieldName("Name")
	require.NoError(t, err)
	assert.Equal(t, "Name", field)

	_, err = m.FieldName("Age")
	assert.True(t, errors.IsResolution(err))
}

func TestFieldResolution(t *testing.T) {
	reg := New()
	m, err := Entity[user](reg).
		PropertyOf(func(u *user) any { return &u.Name }, RenameTo("whatever")).
		Infer(true).
		Build()
	require.NoError(t, err)

	field, err := m.FieldName("Name")
	require.NoError(t, err)
	assert.Equal(t, "whatever", field)

	field, err = FieldOf(m, func(u *user) any { return &u.Age })
	require.NoError(t, err)
	assert.Equal(t, "age", field)

	field, err = m.FieldName("ID")
	require.NoError(t, err)
	assert.Equal(t, storagemodels.KeyField, field)

	_, err = m.FieldName("whatever")
	assert.True(t, errors.IsResolution(err), "physical names are not logical names")

	_, err = m.FieldName("Nmae")
	var re *errors.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Nmae", re.Property)
}

func TestResolverConcurrentReads(t *testing.T) {
	reg := New()
	m := Entity[user](reg).Infer(true).MustBuild()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				field, err := m.FieldName("Age")
				assert.NoError(t, err)
				assert.Equal(t, "age", field)
			}
		}()
	}
	wg.Wait()
}

func TestCustomKey(t *testing.T) {
	reg := New()
	m, err := Entity[account](reg).Infer(true).Build()
	require.NoError(t, err)
	assert.Equal(t, "Handle", m.KeyName())

	m2, err := Entity[user](New()).KeyOf(func(u *user) any { return &u.Email }).Build()
	require.NoError(t, err)
	assert.Equal(t, "Email", m2.KeyName())
	_, ok := m2.PropertyByField("mail")
	assert.False(t, ok, "the key is not a stored property")
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(r *Registry) error
	}{
		{"non-string key", func(r *Registry) error { _, err := Entity[badKey](r).Build(); return err }},
		{"missing key", func(r *Registry) error { _, err := Entity[noKey](r).Build(); return err }},
		{"unknown key name", func(r *Registry) error { _, err := Entity[user](r).Key("Nope").Build(); return err }},
		{"unknown property", func(r *Registry) error { _, err := Entity[user](r).Property("Nope").Build(); return err }},
		{"duplicate physical", func(r *Registry) error {
			_, err := Entity[user](r).Infer(true).Property("Age", RenameTo("name")).Build()
			return err
		}},
		{"reserved name", func(r *Registry) error {
			_, err := Entity[user](r).Property("Age", RenameTo("PK")).Build()
			return err
		}},
		{"bad selector", func(r *Registry) error {
			_, err := Entity[user](r).PropertyOf(func(u *user) any { return u.Name }).Build()
			return err
		}},
		{"not a struct", func(r *Registry) error { _, err := Entity[string](r).Build(); return err }},
		{"not an interface", func(r *Registry) error { _, err := Interface[user, user](r).Build(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build(New())
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidMapping)
		})
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := New()
	_, err := Entity[user](reg).Build()
	require.NoError(t, err)

	_, err = Entity[user](reg).Build()
	assert.ErrorIs(t, err, errors.ErrInvalidMapping)

	_, err = Entity[account](reg).Kind("user").Build()
	assert.ErrorIs(t, err, errors.ErrInvalidMapping)
}

func TestUnregisteredLookup(t *testing.T) {
	_, err := MappingFor[user](New())
	assert.True(t, errors.IsUnregistered(err))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reg := New()
	m := Entity[user](reg).Infer(true).MustBuild()

	in := user{audit: audit{CreatedBy: "ops"}, ID: "u1", Name: "ada", Email: "a@x", Bio: "long", Password: "secret", Age: 36}
	doc, err := m.Encode(reflect.ValueOf(in))
	require.NoError(t, err)

	assert.Equal(t, storagemodels.Key{Kind: "user", ID: "u1"}, doc.Key)
	assert.NotContains(t, doc.Properties, "password")
	assert.NotContains(t, doc.Properties, "iD")
	assert.True(t, doc.Properties["bio"].ExcludeFromIndexes)
	for name, p := range doc.Properties {
		if name != "bio" {
			assert.False(t, p.ExcludeFromIndexes, name)
		}
	}

	out, err := m.Decode(doc)
	require.NoError(t, err)
	in.Password = ""
	assert.Equal(t, in, out.Interface().(user))
}

func TestDecodeAppliesMigrations(t *testing.T) {
	reg := New()
	m := Entity[user](reg).
		Infer(true).
		Migrate(
			convert.RenameField("fullName", "name"),
			convert.DefaultField("age", &types.AttributeValueMemberN{Value: "18"}, false),
		).
		MustBuild()

	doc := storagemodels.NewDocument(storagemodels.Key{Kind: "user", ID: "old"})
	doc.Set("fullName", &types.AttributeValueMemberS{Value: "grace"}, false)

	out, err := m.Decode(doc)
	require.NoError(t, err)
	u := out.Interface().(user)
	assert.Equal(t, "grace", u.Name)
	assert.Equal(t, 18, u.Age)
	assert.Equal(t, "old", u.ID)
	assert.Contains(t, doc.Properties, "fullName", "stored document is left alone")
}

func TestDecodeFailureIsDecodeError(t *testing.T) {
	m := Entity[user](New()).Infer(true).MustBuild()

	doc := storagemodels.NewDocument(storagemodels.Key{Kind: "user", ID: "bad"})
	doc.Set("age", &types.AttributeValueMemberS{Value: "old"}, false)

	_, err := m.Decode(doc)
	require.Error(t, err)
	assert.True(t, errors.IsDecode(err))

	var de *errors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "bad", de.Key.ID)
}

func TestSetKey(t *testing.T) {
	m := Entity[user](New()).MustBuild()

	u := &user{Name: "x"}
	require.NoError(t, m.SetKey(reflect.ValueOf(u), "k1"))
	assert.Equal(t, "k1", u.ID)

	id, err := m.KeyOf(reflect.ValueOf(*u))
	require.NoError(t, err)
	assert.Equal(t, "k1", id)
}
