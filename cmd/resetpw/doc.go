// Command resetpw provides a CLI utility for account password management in
// nyapix.
//
// It supports the following operations:
//   - reset: Set a new password for an existing account
//   - status: Show how many accounts exist
//
// Usage:
//
//	resetpw <command> [username]
//
// Commands:
//
//	reset <username>  Prompt twice for a new password and store its bcrypt
//	                  hash. Use it to recover the bootstrap admin account.
//
//	status            Display the number of accounts. The admin account is
//	                  created by the server on first start.
//
// Environment:
//
//	DATABASE_DRIVER - sqlite3 or pgx (default: sqlite3)
//	DATABASE_DIR    - Path to database directory (default: /database)
//	DATABASE_URL    - PostgreSQL connection string for pgx
package main
