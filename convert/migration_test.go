/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitymapper/storagemodels"
)

func TestPipelineAppliesInOrder(t *testing.T) {
	p := NewPipeline(
		RenameField("fullName", "name"),
		DefaultField("tier", &types.AttributeValueMemberS{Value: "free"}, false),
		MigrationFunc("upper tier", func(props storagemodels.Properties) bool {
			_, ok := props["tier"]
			return ok
		}, func(props storagemodels.Properties) (storagemodels.Properties, error) {
			props["tier"] = storagemodels.Property{Value: &types.AttributeValueMemberS{Value: "FREE"}}
			return props, nil
		}),
	)

	in := storagemodels.Properties{
		"fullName": {Value: &types.AttributeValueMemberS{Value: "Ada"}, ExcludeFromIndexes: true},
	}
	out, err := p.Apply(in)
	require.NoError(t, err)

	assert.Equal(t, storagemodels.Properties{
		"name": {Value: &types.AttributeValueMemberS{Value: "Ada"}, ExcludeFromIndexes: true},
		"tier": {Value: &types.AttributeValueMemberS{Value: "FREE"}},
	}, out)
	assert.Contains(t, in, "fullName", "input must not be modified")
	assert.NotContains(t, in, "tier")
	assert.Equal(t, []string{"rename fullName to name", "default tier", "upper tier"}, p.Names())
}

func TestPipelineSkipsCurrentShape(t *testing.T) {
	p := NewPipeline(RenameField("fullName", "name"))
	in := storagemodels.Properties{"name": {Value: &types.AttributeValueMemberS{Value: "Ada"}}}

	out, err := p.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPipelineFailure(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(MigrationFunc("explode", nil, func(storagemodels.Properties) (storagemodels.Properties, error) {
		return nil, boom
	}))

	_, err := p.Apply(storagemodels.Properties{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "explode")
}

func TestNilPipeline(t *testing.T) {
	var p *Pipeline
	in := storagemodels.Properties{"a": {}}
	out, err := p.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, 0, p.Len())
}
