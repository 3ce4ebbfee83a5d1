// Package database manages the PostgreSQL connection pool used to load
// market metadata at startup. The service never writes to the database.
package database
