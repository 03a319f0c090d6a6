// Package cli provides the interactive tripkeeper client.
//
// It wires configuration, the gateway selected by the backend setting, the
// travel caches and the sync orchestrator, and exposes them through a small
// REPL. Signing in loads the user's trips, expenses, photos and profile;
// signing out clears them.
//
// Commands:
//   - login [uid] [email] / logout
//   - trips, show <trip>, shared <trip>
//   - addtrip, notes <trip>, deltrip <trip>
//   - addexpense <trip>, delexpense <expense>
//   - addphotos <trip> <file>..., delphoto <photo>
//   - profile [name|birthdate [value]]
//   - report
//
// With -r the client signs in, prints the report and exits.
package cli
