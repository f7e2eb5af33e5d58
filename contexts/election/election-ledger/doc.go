// Package electionledger implements the election ledger inside the election
// context.
//
// The module owns the candidate registry, session epochs, the vote-casting
// protocol and the ordered ledger event feed. Every mutation is validated in
// the application layer and committed atomically through the storage port, so
// readers only ever observe fully applied operations.
//
// Layering:
// - domain: entities, sentinel errors, admin policy
// - application: commands (mutations), queries (reads, event feed), workers
// - ports: storage, outbox, identity and clock boundaries
// - adapters: memory, postgres, ethereum address and HTTP handler implementations
// - transport: module-private DTOs for HTTP contracts
package electionledger
