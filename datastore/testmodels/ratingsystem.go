/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds entity types shared by tests and the CLI examples.
package testmodels

import (
	"github.com/go-openapi/strfmt"
	"github.com/shopspring/decimal"

	"github.com/suparena/entitymapper/maybe"
)

// RatingSystem describes how a club ranks its players.
type RatingSystem struct {

	// Unique identifier for the rating system, assigned on insert.
	ID string

	// Name of the rating system.
	// Required: true
	Name string

	// A description of the rating system.
	Description string `store:",noindex"`

	// Points awarded to a new player.
	BaseRating decimal.Decimal

	// site Url
	SiteURL maybe.Maybe[string] `store:"siteUrl"`

	// Timestamp when the rating system was created.
	// Format: date-time
	CreatedAt strfmt.DateTime

	// Timestamp when the rating system was last updated.
	// Format: date-time
	UpdatedAt strfmt.DateTime
}

// Player is rated by a RatingSystem.
type Player struct {
	Key          string `store:",key"`
	Name         string
	Rating       decimal.Decimal
	RatingSystem string
	Tags         []string
}
