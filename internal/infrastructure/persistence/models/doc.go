// Package models contains the GORM persistence models of the ledger tables.
// Domain types carry no ORM tags; each model converts to and from its
// domain counterpart with ToDomain / FromDomain.
package models
