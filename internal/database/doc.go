// Package database provides the connection pools that replirouter routes
// between.
//
// Every physical connection is a Pool: a set of connections to one server
// with a three-tier release API (idle, active, all). Pools are opened from
// a config.DBConfig by adapter:
//   - postgresql: pgx connection pool
//   - pq: database/sql with lib/pq
//   - mysql: database/sql with go-sql-driver/mysql
//   - sqlite: database/sql with modernc.org/sqlite
package database
