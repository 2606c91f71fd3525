package domain

// KeyPrefix is prepended to every storage key the service owns.
// Keeps the engine's records, caches and counters in one namespace
// when sharing a database with other tenants.
const KeyPrefix = "relevance:"
