// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns: domain entities carry no GORM tags, and ToDomain/FromDomain
// convert between the two.
//
// Every tenant-scoped table stores both tenant_id (nullable) and scope, the
// tenant id text or "*" for legacy rows, so that per-tenant unique indexes also
// cover rows without a tenant.
package models
