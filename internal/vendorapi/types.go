package vendorapi

import (
	"context"
	"fmt"
	"strings"
)

// EntityType is one of the FONDSNET data sets this tool imports.
type EntityType string

const (
	EntityCompanies EntityType = "companies"
	EntityContacts  EntityType = "contacts"
	EntityDealers   EntityType = "dealers"
)

func AllEntityTypes() []EntityType {
	return []EntityType{EntityCompanies, EntityContacts, EntityDealers}
}

func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(strings.ToLower(strings.TrimSpace(s))) {
	case EntityCompanies:
		return EntityCompanies, nil
	case EntityContacts:
		return EntityContacts, nil
	case EntityDealers:
		return EntityDealers, nil
	default:
		return "", fmt.Errorf("unknown entity type %q (must be one of: companies, contacts, dealers)", s)
	}
}

// Record is one vendor entity. Fields are kept as flat string pairs; the
// snapshot layer owns normalization and has no schema knowledge per entity
// type, so new vendor fields flow through without code changes.
type Record struct {
	ID     string
	Fields map[string]string
}

// RecordSet is the full vendor data set for one entity type as returned by
// one fetch. Record order is vendor-defined and not meaningful.
type RecordSet struct {
	Entity  EntityType
	Records []Record
}

// Source supplies vendor record sets. The concrete vendor protocol is a
// collaborator concern; the pipeline only depends on this interface.
type Source interface {
	FetchRecords(ctx context.Context, entity EntityType) (RecordSet, error)
}
