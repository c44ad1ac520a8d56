/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitymapper/storagemodels"
)

// Migration upgrades one historical document shape towards the current one.
// Migrate must not modify its argument.
type Migration interface {
	Name() string
	Applies(props storagemodels.Properties) bool
	Migrate(props storagemodels.Properties) (storagemodels.Properties, error)
}

// Pipeline applies migrations in registration order.
type Pipeline struct {
	migrations []Migration
}

// NewPipeline creates a pipeline over the given migrations.
func NewPipeline(migrations ...Migration) *Pipeline {
	return &Pipeline{migrations: append([]Migration(nil), migrations...)}
}

// Len returns the number of registered migrations.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.migrations)
}

// Names lists the registered migrations in order.
func (p *Pipeline) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.migrations))
	for i, m := range p.migrations {
		names[i] = m.Name()
	}
	return names
}

// Apply runs every migration whose Applies reports true, each on the output of
// the previous step. The input is never modified. A nil pipeline returns the
// input unchanged.
func (p *Pipeline) Apply(props storagemodels.Properties) (storagemodels.Properties, error) {
	if p.Len() == 0 {
		return props, nil
	}
	current := props
	for _, m := range p.migrations {
		if !m.Applies(current) {
			continue
		}
		next, err := m.Migrate(current.Clone())
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", m.Name(), err)
		}
		current = next
	}
	return current, nil
}

type funcMigration struct {
	name    string
	applies func(storagemodels.Properties) bool
	migrate func(storagemodels.Properties) (storagemodels.Properties, error)
}

// MigrationFunc builds a migration from functions. A nil applies runs the
// migration on every document.
func MigrationFunc(name string, applies func(storagemodels.Properties) bool, migrate func(storagemodels.Properties) (storagemodels.Properties, error)) Migration {
	return &funcMigration{name: name, applies: applies, migrate: migrate}
}

func (m *funcMigration) Name() string { return m.name }

func (m *funcMigration) Applies(props storagemodels.Properties) bool {
	return m.applies == nil || m.applies(props)
}

func (m *funcMigration) Migrate(props storagemodels.Properties) (storagemodels.Properties, error) {
	return m.migrate(props)
}

// RenameField moves a property written under an old physical name. The
// exclude-from-indexes flag moves with it.
func RenameField(from, to string) Migration {
	return MigrationFunc(
		fmt.Sprintf("rename %s to %s", from, to),
		func(props storagemodels.Properties) bool {
			_, hasOld := props[from]
			_, hasNew := props[to]
			return hasOld && !hasNew
		},
		func(props storagemodels.Properties) (storagemodels.Properties, error) {
			props[to] = props[from]
			delete(props, from)
			return props, nil
		},
	)
}

// DefaultField adds a property missing from documents written before it existed.
func DefaultField(name string, value types.AttributeValue, excludeFromIndexes bool) Migration {
	return MigrationFunc(
		fmt.Sprintf("default %s", name),
		func(props storagemodels.Properties) bool {
			_, ok := props[name]
			return !ok
		},
		func(props storagemodels.Properties) (storagemodels.Properties, error) {
			props[name] = storagemodels.Property{Value: value, ExcludeFromIndexes: excludeFromIndexes}
			return props, nil
		},
	)
}
